package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/repository"
)

type CreateRentalInput struct {
	RenterID           string
	VehicleID          string
	StartDate          time.Time
	EndDate            time.Time
	Notes              string
	CounterofferAmount *decimal.Decimal
}

type RentalService interface {
	CreateRental(ctx context.Context, in CreateRentalInput) (*domain.Rental, error)
	SubmitCounteroffer(ctx context.Context, rentalID string, amount decimal.Decimal) (*domain.Rental, error)
	AcceptCounteroffer(ctx context.Context, rentalID string) (*domain.Rental, error)
	RejectCounteroffer(ctx context.Context, rentalID string) (*domain.Rental, error)
	VerifyPayment(ctx context.Context, rentalID, code string) (bool, error)
	ExtendRental(ctx context.Context, rentalID string, newEndDate time.Time) (*domain.Rental, error)
	// CompleteRental closes the rental; a nil returnDate means now.
	CompleteRental(ctx context.Context, rentalID string, returnDate *time.Time) (*domain.Rental, error)
	CancelRental(ctx context.Context, rentalID string) (*domain.Rental, error)
	GetRental(ctx context.Context, rentalID string) (*domain.Rental, error)
	ListUserRentals(ctx context.Context, filter repository.RentalFilter) ([]domain.Rental, int, error)
}

// Availability is the outcome of an availability check. Conflicts lists the
// booked windows that overlap the requested one.
type Availability struct {
	IsAvailable bool               `json:"is_available"`
	Conflicts   []domain.DateRange `json:"conflicts"`
}

type AvailabilityChecker interface {
	Check(ctx context.Context, vehicleID string, start, end time.Time) (Availability, error)
	CheckExcluding(ctx context.Context, vehicleID string, start, end time.Time, excludeRentalID string) (Availability, error)
}

type VehicleService interface {
	RegisterVehicle(ctx context.Context, ownerID string, params domain.VehicleParams) (*domain.Vehicle, error)
	VerifyVehicle(ctx context.Context, adminID, vehicleID string) (*domain.Vehicle, error)
	SetAvailability(ctx context.Context, ownerID, vehicleID string, available bool) (*domain.Vehicle, error)
	GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
	ListOwnerVehicles(ctx context.Context, ownerID string) ([]domain.Vehicle, error)
}

type ReviewService interface {
	CreateVehicleReview(ctx context.Context, renterID, rentalID string, rating int, comment string) (*domain.Review, error)
	CreateRenterReview(ctx context.Context, ownerID, rentalID string, rating int, comment string) (*domain.Review, error)
	ListVehicleReviews(ctx context.Context, vehicleID string, page, pageSize int) ([]domain.Review, int, error)
}

type ReportService interface {
	CreateReport(ctx context.Context, ownerID, rentalID, reason, description string, severity domain.ReportSeverity) (*domain.Report, error)
	ProcessReport(ctx context.Context, adminID, reportID, resolution string, resolve, applyPenalty bool) (*domain.Report, error)
}

type NotificationService interface {
	Notifier
	GetNotifications(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, int, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// Notifier delivers a message to a user in-app and by email.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message string, attrs map[string]string) error
}

type EmailService interface {
	SendNotificationEmail(ctx context.Context, toEmail, toName, subject, body string) error
}

// AttemptLimiter bounds how often a key may be tried within a window.
type AttemptLimiter interface {
	// Allow records an attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

type CodeGenerator interface {
	Generate() (string, error)
}
