package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

const defaultReviewPageSize = 20

type reviewService struct {
	uow      repository.UnitOfWork
	repos    repository.Repositories
	notifier Notifier
	clock    domain.Clock
}

func NewReviewService(uow repository.UnitOfWork, repos repository.Repositories, notifier Notifier, clock domain.Clock) ReviewService {
	return &reviewService{uow: uow, repos: repos, notifier: notifier, clock: clock}
}

// CreateVehicleReview lets the renter of a completed rental rate the vehicle.
func (s *reviewService) CreateVehicleReview(ctx context.Context, renterID, rentalID string, rating int, comment string) (*domain.Review, error) {
	logger.EnterMethod("reviewService.CreateVehicleReview", "renterID", renterID, "rentalID", rentalID, "rating", rating)
	now := s.clock.Now()

	var review *domain.Review
	var ownerID string
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rental, err := s.loadReviewable(ctx, repos, rentalID, domain.ReviewTypeVehicle)
		if err != nil {
			return err
		}
		if rental.RenterID != renterID {
			return domain.Forbidden("only the renter can review the vehicle of rental %s", rentalID)
		}
		review, err = domain.NewReview(uuid.New().String(), domain.ReviewTypeVehicle, rental, rating, comment, now)
		if err != nil {
			return err
		}

		vehicle, err := repos.Vehicles.GetByIDForUpdate(ctx, rental.VehicleID)
		if err != nil {
			return err
		}
		vehicle.UpdateRating(rating, now)
		if err := repos.Vehicles.Update(ctx, vehicle); err != nil {
			return err
		}
		ownerID = rental.OwnerID
		return repos.Reviews.Create(ctx, review)
	})
	if err != nil {
		logger.ExitMethodWithError("reviewService.CreateVehicleReview", err, "rentalID", rentalID)
		return nil, err
	}

	s.notify(ctx, ownerID, "New vehicle review",
		fmt.Sprintf("Your vehicle received a %d star review.", rating), review)
	logger.ExitMethod("reviewService.CreateVehicleReview", "reviewID", review.ID)
	return review, nil
}

// CreateRenterReview lets the owner of a completed rental rate the renter.
func (s *reviewService) CreateRenterReview(ctx context.Context, ownerID, rentalID string, rating int, comment string) (*domain.Review, error) {
	logger.EnterMethod("reviewService.CreateRenterReview", "ownerID", ownerID, "rentalID", rentalID, "rating", rating)
	now := s.clock.Now()

	var review *domain.Review
	var renterID string
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rental, err := s.loadReviewable(ctx, repos, rentalID, domain.ReviewTypeRenter)
		if err != nil {
			return err
		}
		if rental.OwnerID != ownerID {
			return domain.Forbidden("only the owner can review the renter of rental %s", rentalID)
		}
		review, err = domain.NewReview(uuid.New().String(), domain.ReviewTypeRenter, rental, rating, comment, now)
		if err != nil {
			return err
		}

		renter, err := repos.Users.GetByIDForUpdate(ctx, rental.RenterID)
		if err != nil {
			return err
		}
		renter.UpdateRating(rating, now)
		if err := repos.Users.Update(ctx, renter); err != nil {
			return err
		}
		renterID = rental.RenterID
		return repos.Reviews.Create(ctx, review)
	})
	if err != nil {
		logger.ExitMethodWithError("reviewService.CreateRenterReview", err, "rentalID", rentalID)
		return nil, err
	}

	s.notify(ctx, renterID, "New review",
		fmt.Sprintf("The owner rated your rental %d stars.", rating), review)
	logger.ExitMethod("reviewService.CreateRenterReview", "reviewID", review.ID)
	return review, nil
}

func (s *reviewService) loadReviewable(ctx context.Context, repos repository.Repositories, rentalID string, reviewType domain.ReviewType) (*domain.Rental, error) {
	rental, err := repos.Rentals.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	exists, err := repos.Reviews.ExistsForRental(ctx, rentalID, reviewType)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.Conflict("rental %s already has a %s review", rentalID, reviewType)
	}
	return rental, nil
}

func (s *reviewService) notify(ctx context.Context, userID, title, message string, review *domain.Review) {
	attrs := map[string]string{notificationTypeAttribute: "REVIEW_RECEIVED", rentalIDAttribute: review.RentalID}
	if err := s.notifier.Notify(context.WithoutCancel(ctx), userID, title, message, attrs); err != nil {
		logger.ErrorContext(ctx, "Failed to send review notification", "reviewID", review.ID, "userID", userID, "error", err)
	}
}

func (s *reviewService) ListVehicleReviews(ctx context.Context, vehicleID string, page, pageSize int) ([]domain.Review, int, error) {
	if pageSize <= 0 {
		pageSize = defaultReviewPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return s.repos.Reviews.ListByVehicle(ctx, vehicleID, pageSize, (page-1)*pageSize)
}
