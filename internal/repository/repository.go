package repository

import (
	"context"
	"time"

	"rentacar-backend/internal/domain"
)

// RentalRole selects which side of a rental a listing is filtered on.
type RentalRole string

const (
	RentalRoleAny    RentalRole = ""
	RentalRoleRenter RentalRole = "renter"
	RentalRoleOwner  RentalRole = "owner"
)

type RentalFilter struct {
	UserID   string
	Role     RentalRole
	Status   domain.RentalStatus
	Page     int
	PageSize int
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id string) (*domain.Rental, error)
	// Update persists rental if its Version still matches the stored row and
	// bumps the version, failing with domain.ErrConcurrencyConflict otherwise.
	Update(ctx context.Context, rental *domain.Rental) error
	ListByUser(ctx context.Context, filter RentalFilter) ([]domain.Rental, int, error)
	// ListBlockingByVehicle returns the PENDING and ACTIVE rentals of a vehicle.
	ListBlockingByVehicle(ctx context.Context, vehicleID string) ([]domain.Rental, error)
	ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]domain.Rental, error)
	HasActiveByVehicle(ctx context.Context, vehicleID string) (bool, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) error
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
	// GetByIDForUpdate locks the vehicle row until the surrounding unit of work ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Vehicle, error)
	Update(ctx context.Context, vehicle *domain.Vehicle) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Vehicle, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByIDForUpdate locks the user row until the surrounding unit of work ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error)
	ListWithExpiredBlock(ctx context.Context, now time.Time) ([]domain.User, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	ExistsForRental(ctx context.Context, rentalID string, reviewType domain.ReviewType) (bool, error)
	ListByVehicle(ctx context.Context, vehicleID string, limit, offset int) ([]domain.Review, int, error)
}

type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	Update(ctx context.Context, report *domain.Report) error
	ExistsForRental(ctx context.Context, rentalID string) (bool, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, int, error)
	MarkAsRead(ctx context.Context, id, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

type OutboxRepository interface {
	Append(ctx context.Context, event *domain.OutboxEvent) error
	ListUnpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	RecordFailure(ctx context.Context, id string) error
}

// Repositories is the set of repositories bound to one unit of work.
type Repositories struct {
	Rentals       RentalRepository
	Vehicles      VehicleRepository
	Users         UserRepository
	Reviews       ReviewRepository
	Reports       ReportRepository
	Notifications NotificationRepository
	Outbox        OutboxRepository
}

// UnitOfWork runs fn atomically. Every write made through repos is committed
// when fn returns nil and rolled back otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
