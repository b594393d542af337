package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type VehicleStatus string

const (
	VehicleStatusPendingVerification VehicleStatus = "PENDING_VERIFICATION"
	VehicleStatusVerified            VehicleStatus = "VERIFIED"
	VehicleStatusRejected            VehicleStatus = "REJECTED"
	VehicleStatusSuspended           VehicleStatus = "SUSPENDED"
)

// RentalCooldown is the minimum gap between the end of one rental of a
// vehicle and the next booking.
const RentalCooldown = 24 * time.Hour

const (
	minRating = 1.0
	maxRating = 5.0
)

type Vehicle struct {
	ID                string          `json:"id"`
	OwnerID           string          `json:"owner_id"`
	Brand             string          `json:"brand"`
	Model             string          `json:"model"`
	Year              int             `json:"year"`
	LicensePlate      string          `json:"license_plate"`
	Color             string          `json:"color"`
	Seats             int             `json:"seats"`
	DailyRate         decimal.Decimal `json:"daily_rate"`
	Description       string          `json:"description"`
	Status            VehicleStatus   `json:"status"`
	IsAvailable       bool            `json:"is_available"`
	Rating            float64         `json:"rating"`
	RatingCount       int             `json:"rating_count"`
	RentalCount       int             `json:"rental_count"`
	LastRentalEndDate *time.Time      `json:"last_rental_end_date,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type VehicleParams struct {
	ID           string
	OwnerID      string
	Brand        string
	Model        string
	Year         int
	LicensePlate string
	Color        string
	Seats        int
	DailyRate    decimal.Decimal
	Description  string
}

// NewVehicle registers a listing awaiting admin verification. New vehicles
// start with a 5.0 rating and are not bookable until verified.
func NewVehicle(p VehicleParams, now time.Time) (*Vehicle, error) {
	if p.OwnerID == "" {
		return nil, InvalidArgument("owner is required")
	}
	if p.Brand == "" || p.Model == "" {
		return nil, InvalidArgument("brand and model are required")
	}
	if p.LicensePlate == "" {
		return nil, InvalidArgument("license plate is required")
	}
	if !p.DailyRate.IsPositive() {
		return nil, InvalidArgument("daily rate must be greater than zero")
	}
	return &Vehicle{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Brand:        p.Brand,
		Model:        p.Model,
		Year:         p.Year,
		LicensePlate: p.LicensePlate,
		Color:        p.Color,
		Seats:        p.Seats,
		DailyRate:    p.DailyRate,
		Description:  p.Description,
		Status:       VehicleStatusPendingVerification,
		Rating:       maxRating,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (v *Vehicle) IsVerified() bool {
	return v.Status == VehicleStatusVerified
}

// CanBeRented reports whether a new booking may start at now: the vehicle
// must be verified and available, and the cooldown after its last rental
// must have elapsed.
func (v *Vehicle) CanBeRented(now time.Time) bool {
	if !v.IsVerified() || !v.IsAvailable {
		return false
	}
	if v.LastRentalEndDate != nil {
		return !now.Before(v.LastRentalEndDate.Add(RentalCooldown))
	}
	return true
}

func (v *Vehicle) Verify(now time.Time) error {
	if v.Status != VehicleStatusPendingVerification {
		return InvalidState("vehicle is %s, only vehicles pending verification can be verified", v.Status)
	}
	v.Status = VehicleStatusVerified
	v.IsAvailable = true
	v.UpdatedAt = now
	return nil
}

func (v *Vehicle) MarkAsRented(endDate time.Time, now time.Time) {
	end := endDate
	v.IsAvailable = false
	v.LastRentalEndDate = &end
	v.UpdatedAt = now
}

func (v *Vehicle) MarkAsAvailable(now time.Time) {
	v.IsAvailable = true
	v.UpdatedAt = now
}

func (v *Vehicle) MarkAsUnavailable(now time.Time) {
	v.IsAvailable = false
	v.UpdatedAt = now
}

func (v *Vehicle) UpdateLastRentalDate(endDate time.Time, now time.Time) {
	end := endDate
	v.LastRentalEndDate = &end
	v.UpdatedAt = now
}

func (v *Vehicle) IncrementRentalCount(now time.Time) {
	v.RentalCount++
	v.UpdatedAt = now
}

// UpdateRating folds a new score into the running mean.
func (v *Vehicle) UpdateRating(rating int, now time.Time) {
	v.Rating = runningMean(v.Rating, v.RatingCount, rating)
	v.RatingCount++
	v.UpdatedAt = now
}

func runningMean(avg float64, count int, rating int) float64 {
	mean := (avg*float64(count) + float64(rating)) / float64(count+1)
	if mean < minRating {
		return minRating
	}
	if mean > maxRating {
		return maxRating
	}
	return mean
}
