package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
	"rentacar-backend/internal/utils"
)

// MaxPageSize caps the page size of every list operation.
const MaxPageSize = 100

const (
	actionCreated             = "CREATED"
	actionCounterofferMade    = "COUNTEROFFER_SUBMITTED"
	actionCounterofferAccept  = "COUNTEROFFER_ACCEPTED"
	actionCounterofferReject  = "COUNTEROFFER_REJECTED"
	actionPaymentVerified     = "PAYMENT_VERIFIED"
	actionExtended            = "EXTENDED"
	actionCompleted           = "COMPLETED"
	actionCancelled           = "CANCELLED"
	notificationTypeAttribute = "type"
	rentalIDAttribute         = "rental_id"
)

// RentalPolicy holds the business constants applied by the rental lifecycle.
type RentalPolicy struct {
	LoyaltyDiscountPercentage     decimal.Decimal
	LateReturnBlockDays           int
	LateReturnSurchargePercentage decimal.Decimal
}

func DefaultRentalPolicy() RentalPolicy {
	return RentalPolicy{
		LoyaltyDiscountPercentage:     decimal.NewFromInt(10),
		LateReturnBlockDays:           4,
		LateReturnSurchargePercentage: decimal.NewFromInt(15),
	}
}

type rentalService struct {
	uow      repository.UnitOfWork
	repos    repository.Repositories
	notifier Notifier
	limiter  AttemptLimiter
	codes    CodeGenerator
	clock    domain.Clock
	policy   RentalPolicy
}

func NewRentalService(
	uow repository.UnitOfWork,
	repos repository.Repositories,
	notifier Notifier,
	limiter AttemptLimiter,
	codes CodeGenerator,
	clock domain.Clock,
	policy RentalPolicy,
) RentalService {
	return &rentalService{
		uow:      uow,
		repos:    repos,
		notifier: notifier,
		limiter:  limiter,
		codes:    codes,
		clock:    clock,
		policy:   policy,
	}
}

// notice is a notification queued during a command and sent after commit.
type notice struct {
	userID  string
	title   string
	message string
	kind    string
}

func (s *rentalService) dispatch(ctx context.Context, rentalID string, notices []notice) {
	// the command already committed; notifications must outlive a cancelled request
	ctx = context.WithoutCancel(ctx)
	for _, n := range notices {
		attrs := map[string]string{notificationTypeAttribute: n.kind, rentalIDAttribute: rentalID}
		if err := s.notifier.Notify(ctx, n.userID, n.title, n.message, attrs); err != nil {
			logger.ErrorContext(ctx, "Failed to send rental notification", "rentalID", rentalID, "userID", n.userID, "type", n.kind, "error", err)
		}
	}
}

func recordStateChange(ctx context.Context, repos repository.Repositories, rt *domain.Rental, action string, previous domain.RentalStatus, now time.Time) error {
	event, err := domain.NewRentalStateChanged(rt, action, previous, now)
	if err != nil {
		return err
	}
	return repos.Outbox.Append(ctx, event)
}

func vehicleName(v *domain.Vehicle) string {
	if v == nil {
		return "the vehicle"
	}
	return fmt.Sprintf("%s %s", v.Brand, v.Model)
}

func (s *rentalService) CreateRental(ctx context.Context, in CreateRentalInput) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.CreateRental", "renterID", in.RenterID, "vehicleID", in.VehicleID, "start", in.StartDate, "end", in.EndDate)
	now := s.clock.Now()

	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, domain.InvalidArgument("start and end dates are required")
	}
	if in.StartDate.Before(now) {
		return nil, domain.InvalidArgument("start date cannot be in the past")
	}
	if !in.StartDate.Before(in.EndDate) {
		return nil, domain.InvalidArgument("end date must be after start date")
	}
	if in.CounterofferAmount != nil && !in.CounterofferAmount.IsPositive() {
		return nil, domain.InvalidArgument("counteroffer amount must be greater than zero")
	}

	code, err := s.codes.Generate()
	if err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err)
		return nil, err
	}

	var rental *domain.Rental
	var notices []notice
	err = s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		vehicle, err := repos.Vehicles.GetByIDForUpdate(ctx, in.VehicleID)
		if err != nil {
			return err
		}
		if !vehicle.CanBeRented(now) {
			return domain.InvalidState("vehicle %s is not available for rental", vehicle.ID)
		}

		renter, err := repos.Users.GetByIDForUpdate(ctx, in.RenterID)
		if err != nil {
			return err
		}
		if !renter.IsRenter() {
			return domain.InvalidArgument("only users with the renter role can book vehicles")
		}
		renterChanged := false
		if renter.IsBlocked {
			if !renter.BlockExpired(now) {
				return domain.Forbidden("user is blocked until %s", renter.BlockedUntil.Format(time.RFC3339))
			}
			renter.Unblock(now)
			renterChanged = true
		}
		if renter.ID == vehicle.OwnerID {
			return domain.InvalidArgument("owners cannot rent their own vehicle")
		}

		availability, err := NewAvailabilityChecker(repos.Rentals).Check(ctx, vehicle.ID, in.StartDate, in.EndDate)
		if err != nil {
			return err
		}
		if !availability.IsAvailable {
			return domain.InvalidState("vehicle is already booked for the selected dates")
		}

		days := utils.RentalDays(in.StartDate, in.EndDate)
		params := domain.RentalParams{
			ID:                 uuid.New().String(),
			VehicleID:          vehicle.ID,
			RenterID:           renter.ID,
			OwnerID:            vehicle.OwnerID,
			StartDate:          in.StartDate,
			EndDate:            in.EndDate,
			BasePrice:          utils.BasePrice(vehicle.DailyRate, days),
			VerificationCode:   code,
			Notes:              in.Notes,
			CounterofferAmount: in.CounterofferAmount,
		}
		if renter.IsEligibleForDiscount() {
			params.DiscountPercentage = s.policy.LoyaltyDiscountPercentage
		}
		if renter.ConsumeLateReturnSurcharge(now) {
			params.AdditionalChargePercentage = s.policy.LateReturnSurchargePercentage
			renterChanged = true
		}

		rental, err = domain.NewRental(params, now)
		if err != nil {
			return err
		}
		if err := repos.Rentals.Create(ctx, rental); err != nil {
			return err
		}
		if renterChanged {
			if err := repos.Users.Update(ctx, renter); err != nil {
				return err
			}
		}
		if err := recordStateChange(ctx, repos, rental, actionCreated, "", now); err != nil {
			return err
		}

		name := vehicleName(vehicle)
		notices = append(notices,
			notice{renter.ID, "Rental requested",
				fmt.Sprintf("Your rental of %s from %s to %s was registered. Total: %s. Verification code: %s",
					name, rental.StartDate.Format(time.DateOnly), rental.EndDate.Format(time.DateOnly), rental.FinalPrice.StringFixed(2), rental.VerificationCode),
				"RENTAL_CREATED"},
			notice{vehicle.OwnerID, "New rental request",
				fmt.Sprintf("%s wants to rent your %s from %s to %s.", renter.FullName(), name,
					rental.StartDate.Format(time.DateOnly), rental.EndDate.Format(time.DateOnly)),
				"RENTAL_REQUEST"},
		)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err, "vehicleID", in.VehicleID)
		return nil, err
	}

	s.dispatch(ctx, rental.ID, notices)
	logger.ExitMethod("rentalService.CreateRental", "rentalID", rental.ID, "finalPrice", rental.FinalPrice)
	return rental, nil
}

func (s *rentalService) SubmitCounteroffer(ctx context.Context, rentalID string, amount decimal.Decimal) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.SubmitCounteroffer", "rentalID", rentalID, "amount", amount)
	now := s.clock.Now()

	var rental *domain.Rental
	var notices []notice
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		rental, err = repos.Rentals.GetByID(ctx, rentalID)
		if err != nil {
			return err
		}
		previous := rental.Status
		if err := rental.SubmitCounteroffer(amount, now); err != nil {
			return err
		}
		if err := repos.Rentals.Update(ctx, rental); err != nil {
			return err
		}
		if err := recordStateChange(ctx, repos, rental, actionCounterofferMade, previous, now); err != nil {
			return err
		}
		notices = append(notices, notice{rental.OwnerID, "New counteroffer",
			fmt.Sprintf("The renter offered %s for rental %s.", amount.StringFixed(2), rental.ID), "COUNTEROFFER_SUBMITTED"})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.SubmitCounteroffer", err, "rentalID", rentalID)
		return nil, err
	}

	s.dispatch(ctx, rental.ID, notices)
	logger.ExitMethod("rentalService.SubmitCounteroffer", "rentalID", rentalID)
	return rental, nil
}

func (s *rentalService) AcceptCounteroffer(ctx context.Context, rentalID string) (*domain.Rental, error) {
	return s.answerCounteroffer(ctx, rentalID, true)
}

func (s *rentalService) RejectCounteroffer(ctx context.Context, rentalID string) (*domain.Rental, error) {
	return s.answerCounteroffer(ctx, rentalID, false)
}

func (s *rentalService) answerCounteroffer(ctx context.Context, rentalID string, accept bool) (*domain.Rental, error) {
	method := "rentalService.RejectCounteroffer"
	if accept {
		method = "rentalService.AcceptCounteroffer"
	}
	logger.EnterMethod(method, "rentalID", rentalID)
	now := s.clock.Now()

	var rental *domain.Rental
	var notices []notice
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		rental, err = repos.Rentals.GetByID(ctx, rentalID)
		if err != nil {
			return err
		}
		if rental.IsTerminal() {
			return domain.InvalidState("rental is already %s", rental.Status)
		}
		if !rental.HasPendingCounteroffer() {
			return domain.InvalidState("rental has no pending counteroffer")
		}

		previous := rental.Status
		amount := *rental.CounterofferAmount
		action, title, message, kind := actionCounterofferReject, "Counteroffer rejected",
			fmt.Sprintf("Your counteroffer of %s was rejected.", amount.StringFixed(2)), "COUNTEROFFER_REJECTED"
		if accept {
			rental.AcceptCounteroffer(now)
			action, title, message, kind = actionCounterofferAccept, "Counteroffer accepted",
				fmt.Sprintf("Your counteroffer of %s was accepted. New total: %s.", amount.StringFixed(2), rental.FinalPrice.StringFixed(2)), "COUNTEROFFER_ACCEPTED"
		} else {
			rental.RejectCounteroffer(now)
		}

		if err := repos.Rentals.Update(ctx, rental); err != nil {
			return err
		}
		if err := recordStateChange(ctx, repos, rental, action, previous, now); err != nil {
			return err
		}
		notices = append(notices, notice{rental.RenterID, title, message, kind})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "rentalID", rentalID)
		return nil, err
	}

	s.dispatch(ctx, rental.ID, notices)
	logger.ExitMethod(method, "rentalID", rentalID, "finalPrice", rental.FinalPrice)
	return rental, nil
}

func verificationKey(rentalID string) string {
	return "verify-payment:" + rentalID
}

// VerifyPayment returns false without error when the code does not match.
func (s *rentalService) VerifyPayment(ctx context.Context, rentalID, code string) (bool, error) {
	logger.EnterMethod("rentalService.VerifyPayment", "rentalID", rentalID)
	now := s.clock.Now()

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, verificationKey(rentalID))
		if err != nil {
			logger.Warn("Verification attempt limiter unavailable, allowing attempt", "rentalID", rentalID, "error", err)
		} else if !allowed {
			err := domain.TooManyAttempts("too many verification attempts for rental %s, try again later", rentalID)
			logger.ExitMethodWithError("rentalService.VerifyPayment", err, "rentalID", rentalID)
			return false, err
		}
	}

	var verified, activated bool
	var notices []notice
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rental, err := repos.Rentals.GetByID(ctx, rentalID)
		if err != nil {
			return err
		}
		if rental.IsTerminal() {
			return domain.InvalidState("rental is already %s", rental.Status)
		}

		alreadyActive := rental.IsActive() && rental.PaymentVerified
		previous := rental.Status
		verified = rental.VerifyPayment(code, now)
		if !verified || alreadyActive {
			return nil
		}

		vehicle, err := repos.Vehicles.GetByIDForUpdate(ctx, rental.VehicleID)
		if err != nil {
			return err
		}
		vehicle.MarkAsRented(rental.EndDate, now)
		if err := repos.Vehicles.Update(ctx, vehicle); err != nil {
			return err
		}
		if err := repos.Rentals.Update(ctx, rental); err != nil {
			return err
		}
		if err := recordStateChange(ctx, repos, rental, actionPaymentVerified, previous, now); err != nil {
			return err
		}
		activated = true
		notices = append(notices, notice{rental.RenterID, "Payment verified",
			fmt.Sprintf("Your payment for %s was verified. The rental is now active.", vehicleName(vehicle)), "PAYMENT_VERIFIED"})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.VerifyPayment", err, "rentalID", rentalID)
		return false, err
	}

	if verified && s.limiter != nil {
		if err := s.limiter.Reset(ctx, verificationKey(rentalID)); err != nil {
			logger.Warn("Failed to reset verification attempts", "rentalID", rentalID, "error", err)
		}
	}
	if activated {
		s.dispatch(ctx, rentalID, notices)
	}
	logger.ExitMethod("rentalService.VerifyPayment", "rentalID", rentalID, "verified", verified)
	return verified, nil
}

func (s *rentalService) ExtendRental(ctx context.Context, rentalID string, newEndDate time.Time) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.ExtendRental", "rentalID", rentalID, "newEndDate", newEndDate)
	now := s.clock.Now()

	var rental *domain.Rental
	var notices []notice
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		rental, err = repos.Rentals.GetByID(ctx, rentalID)
		if err != nil {
			return err
		}
		if !rental.IsActive() {
			return domain.InvalidState("only active rentals can be extended, rental is %s", rental.Status)
		}
		if !newEndDate.After(rental.EndDate) {
			return domain.InvalidArgument("new end date must be after the current end date")
		}

		vehicle, err := repos.Vehicles.GetByIDForUpdate(ctx, rental.VehicleID)
		if err != nil {
			return err
		}
		availability, err := NewAvailabilityChecker(repos.Rentals).
			CheckExcluding(ctx, rental.VehicleID, rental.EndDate, newEndDate, rental.ID)
		if err != nil {
			return err
		}
		if !availability.IsAvailable {
			return domain.InvalidState("vehicle is not available for the requested extension")
		}

		previous := rental.Status
		if err := rental.Extend(newEndDate, now); err != nil {
			return err
		}
		vehicle.UpdateLastRentalDate(rental.EndDate, now)
		if err := repos.Vehicles.Update(ctx, vehicle); err != nil {
			return err
		}
		if err := repos.Rentals.Update(ctx, rental); err != nil {
			return err
		}
		if err := recordStateChange(ctx, repos, rental, actionExtended, previous, now); err != nil {
			return err
		}
		notices = append(notices, notice{rental.OwnerID, "Rental extended",
			fmt.Sprintf("The rental of your %s was extended until %s.", vehicleName(vehicle), rental.EndDate.Format(time.DateOnly)),
			"RENTAL_EXTENDED"})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.ExtendRental", err, "rentalID", rentalID)
		return nil, err
	}

	s.dispatch(ctx, rental.ID, notices)
	logger.ExitMethod("rentalService.ExtendRental", "rentalID", rentalID, "finalPrice", rental.FinalPrice)
	return rental, nil
}

func (s *rentalService) CompleteRental(ctx context.Context, rentalID string, returnDate *time.Time) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.CompleteRental", "rentalID", rentalID)
	now := s.clock.Now()
	returned := now
	if returnDate != nil && !returnDate.IsZero() {
		returned = *returnDate
	}

	var rental *domain.Rental
	var notices []notice
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		rental, err = repos.Rentals.GetByID(ctx, rentalID)
		if err != nil {
			return err
		}
		previous := rental.Status
		if err := rental.Complete(returned, now); err != nil {
			return err
		}

		vehicle, err := repos.Vehicles.GetByIDForUpdate(ctx, rental.VehicleID)
		if err != nil {
			return err
		}
		if err := repos.Rentals.Update(ctx, rental); err != nil {
			return err
		}
		vehicle.IncrementRentalCount(now)
		if err := releaseVehicle(ctx, repos, vehicle, returned, now); err != nil {
			return err
		}

		name := vehicleName(vehicle)
		if rental.IsLateReturn {
			renter, err := repos.Users.GetByIDForUpdate(ctx, rental.RenterID)
			if err != nil {
				return err
			}
			renter.Block(s.policy.LateReturnBlockDays, now)
			renter.LateReturnSurchargePending = true
			if err := repos.Users.Update(ctx, renter); err != nil {
				return err
			}
			logger.Info("Renter penalized for late return", "rentalID", rental.ID, "renterID", renter.ID, "blockedUntil", renter.BlockedUntil)
			notices = append(notices, notice{renter.ID, "Late return penalty",
				fmt.Sprintf("You returned %s late. Your account is blocked for %d days and your next rental carries a %s%% surcharge.",
					name, s.policy.LateReturnBlockDays, s.policy.LateReturnSurchargePercentage.String()),
				"LATE_RETURN_PENALTY"})
		}

		if err := recordStateChange(ctx, repos, rental, actionCompleted, previous, now); err != nil {
			return err
		}
		notices = append(notices,
			notice{rental.OwnerID, "Rental completed",
				fmt.Sprintf("The rental of your %s was marked as completed.", name), "RENTAL_COMPLETED"},
			notice{rental.RenterID, "How was your trip?",
				fmt.Sprintf("Your rental of %s is complete. Please leave a review.", name), "REVIEW_REQUEST"},
		)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.CompleteRental", err, "rentalID", rentalID)
		return nil, err
	}

	s.dispatch(ctx, rental.ID, notices)
	logger.ExitMethod("rentalService.CompleteRental", "rentalID", rentalID, "late", rental.IsLateReturn)
	return rental, nil
}

// releaseVehicle persists the vehicle after one of its rentals ended at endedAt.
// While another rental of it is still active the vehicle stays unavailable and
// keeps that rental's end date. The ending rental must already be saved.
func releaseVehicle(ctx context.Context, repos repository.Repositories, vehicle *domain.Vehicle, endedAt, now time.Time) error {
	active, err := repos.Rentals.HasActiveByVehicle(ctx, vehicle.ID)
	if err != nil {
		return err
	}
	if active {
		logger.Info("Vehicle stays unavailable, another rental is active", "vehicleID", vehicle.ID)
	} else {
		vehicle.UpdateLastRentalDate(endedAt, now)
		vehicle.MarkAsAvailable(now)
	}
	return repos.Vehicles.Update(ctx, vehicle)
}

func (s *rentalService) CancelRental(ctx context.Context, rentalID string) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.CancelRental", "rentalID", rentalID)
	now := s.clock.Now()

	var rental *domain.Rental
	var notices []notice
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		rental, err = repos.Rentals.GetByID(ctx, rentalID)
		if err != nil {
			return err
		}
		previous := rental.Status
		if err := rental.Cancel(now); err != nil {
			return err
		}

		var vehicle *domain.Vehicle
		if previous == domain.RentalStatusActive {
			vehicle, err = repos.Vehicles.GetByIDForUpdate(ctx, rental.VehicleID)
			if err != nil {
				return err
			}
		}
		if err := repos.Rentals.Update(ctx, rental); err != nil {
			return err
		}
		if vehicle != nil {
			// the rental ended now, not at its booked end
			if err := releaseVehicle(ctx, repos, vehicle, now, now); err != nil {
				return err
			}
		}
		if err := recordStateChange(ctx, repos, rental, actionCancelled, previous, now); err != nil {
			return err
		}

		notices = append(notices,
			notice{rental.RenterID, "Rental cancelled", fmt.Sprintf("Your rental %s was cancelled.", rental.ID), "RENTAL_CANCELLED"},
			notice{rental.OwnerID, "Rental cancelled", fmt.Sprintf("The rental %s of your vehicle was cancelled.", rental.ID), "RENTAL_CANCELLED"},
		)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.CancelRental", err, "rentalID", rentalID)
		return nil, err
	}

	s.dispatch(ctx, rental.ID, notices)
	logger.ExitMethod("rentalService.CancelRental", "rentalID", rentalID)
	return rental, nil
}

func (s *rentalService) GetRental(ctx context.Context, rentalID string) (*domain.Rental, error) {
	return s.repos.Rentals.GetByID(ctx, rentalID)
}

func (s *rentalService) ListUserRentals(ctx context.Context, filter repository.RentalFilter) ([]domain.Rental, int, error) {
	switch filter.Role {
	case repository.RentalRoleAny, repository.RentalRoleRenter, repository.RentalRoleOwner:
	default:
		return nil, 0, domain.InvalidArgument("invalid role filter %q", filter.Role)
	}
	switch filter.Status {
	case "", domain.RentalStatusPending, domain.RentalStatusActive, domain.RentalStatusCompleted, domain.RentalStatusCancelled:
	default:
		return nil, 0, domain.InvalidArgument("invalid status filter %q", filter.Status)
	}
	if filter.PageSize > MaxPageSize {
		filter.PageSize = MaxPageSize
	}
	return s.repos.Rentals.ListByUser(ctx, filter)
}
