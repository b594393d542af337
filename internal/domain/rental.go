package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"rentacar-backend/internal/utils"
)

type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "PENDING"
	RentalStatusActive    RentalStatus = "ACTIVE"
	RentalStatusCompleted RentalStatus = "COMPLETED"
	RentalStatusCancelled RentalStatus = "CANCELLED"
)

type CounterofferStatus string

const (
	CounterofferStatusPending  CounterofferStatus = "PENDING"
	CounterofferStatusAccepted CounterofferStatus = "ACCEPTED"
	CounterofferStatusRejected CounterofferStatus = "REJECTED"
)

// LateReturnGrace is how long after the agreed end a vehicle may come back
// before the return counts as late.
const LateReturnGrace = 30 * time.Minute

type Rental struct {
	ID                         string              `json:"id"`
	VehicleID                  string              `json:"vehicle_id"`
	RenterID                   string              `json:"renter_id"`
	OwnerID                    string              `json:"owner_id"`
	StartDate                  time.Time           `json:"start_date"`
	EndDate                    time.Time           `json:"end_date"`
	OriginalEndDate            time.Time           `json:"original_end_date"`
	ActualReturnDate           *time.Time          `json:"actual_return_date,omitempty"`
	BasePrice                  decimal.Decimal     `json:"base_price"`
	DiscountPercentage         decimal.Decimal     `json:"discount_percentage"`
	AdditionalChargePercentage decimal.Decimal     `json:"additional_charge_percentage"`
	FinalPrice                 decimal.Decimal     `json:"final_price"`
	Status                     RentalStatus        `json:"status"`
	VerificationCode           string              `json:"-"`
	PaymentVerified            bool                `json:"payment_verified"`
	Notes                      string              `json:"notes"`
	CounterofferAmount         *decimal.Decimal    `json:"counteroffer_amount,omitempty"`
	CounterofferStatus         *CounterofferStatus `json:"counteroffer_status,omitempty"`
	IsLateReturn               bool                `json:"is_late_return"`
	RentalDuration             int                 `json:"rental_duration"`
	CreatedAt                  time.Time           `json:"created_at"`
	UpdatedAt                  time.Time           `json:"updated_at"`
	Version                    int                 `json:"version"`
}

// RentalParams carries everything needed to open a new booking.
type RentalParams struct {
	ID                         string
	VehicleID                  string
	RenterID                   string
	OwnerID                    string
	StartDate                  time.Time
	EndDate                    time.Time
	BasePrice                  decimal.Decimal
	DiscountPercentage         decimal.Decimal
	AdditionalChargePercentage decimal.Decimal
	VerificationCode           string
	Notes                      string
	CounterofferAmount         *decimal.Decimal
}

func NewRental(p RentalParams, now time.Time) (*Rental, error) {
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return nil, InvalidArgument("start and end dates are required")
	}
	if !p.StartDate.Before(p.EndDate) {
		return nil, InvalidArgument("start date must be before end date")
	}
	if p.BasePrice.IsNegative() {
		return nil, InvalidArgument("base price cannot be negative")
	}
	if p.CounterofferAmount != nil && !p.CounterofferAmount.IsPositive() {
		return nil, InvalidArgument("counteroffer amount must be greater than zero")
	}

	r := &Rental{
		ID:                         p.ID,
		VehicleID:                  p.VehicleID,
		RenterID:                   p.RenterID,
		OwnerID:                    p.OwnerID,
		StartDate:                  p.StartDate,
		EndDate:                    p.EndDate,
		OriginalEndDate:            p.EndDate,
		BasePrice:                  p.BasePrice,
		DiscountPercentage:         p.DiscountPercentage,
		AdditionalChargePercentage: p.AdditionalChargePercentage,
		Status:                     RentalStatusPending,
		VerificationCode:           p.VerificationCode,
		Notes:                      p.Notes,
		RentalDuration:             utils.RentalDays(p.StartDate, p.EndDate),
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
	if p.CounterofferAmount != nil {
		amount := *p.CounterofferAmount
		status := CounterofferStatusPending
		r.CounterofferAmount = &amount
		r.CounterofferStatus = &status
	}
	r.calculateFinalPrice()
	return r, nil
}

// calculateFinalPrice derives FinalPrice from the pricing fields. An accepted
// counteroffer replaces the computed price entirely.
func (r *Rental) calculateFinalPrice() {
	price := r.BasePrice
	price = utils.ApplyDiscount(price, r.DiscountPercentage)
	price = utils.ApplySurcharge(price, r.AdditionalChargePercentage)
	if r.counterofferIs(CounterofferStatusAccepted) && r.CounterofferAmount != nil {
		price = *r.CounterofferAmount
	}
	r.FinalPrice = utils.RoundCents(price)
}

func (r *Rental) counterofferIs(status CounterofferStatus) bool {
	return r.CounterofferStatus != nil && *r.CounterofferStatus == status
}

func (r *Rental) IsPending() bool   { return r.Status == RentalStatusPending }
func (r *Rental) IsActive() bool    { return r.Status == RentalStatusActive }
func (r *Rental) IsCompleted() bool { return r.Status == RentalStatusCompleted }
func (r *Rental) IsCancelled() bool { return r.Status == RentalStatusCancelled }

func (r *Rental) IsTerminal() bool {
	return r.IsCompleted() || r.IsCancelled()
}

func (r *Rental) IsParty(userID string) bool {
	return userID != "" && (userID == r.RenterID || userID == r.OwnerID)
}

// HasPendingCounteroffer reports whether a counteroffer awaits the owner's answer.
func (r *Rental) HasPendingCounteroffer() bool {
	return r.counterofferIs(CounterofferStatusPending) && r.CounterofferAmount != nil
}

// Period is the booked window as a DateRange.
func (r *Rental) Period() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// VerifyPayment activates the rental when code matches. A mismatch, or a
// rental that already reached a terminal state, returns false and leaves
// the rental untouched.
func (r *Rental) VerifyPayment(code string, now time.Time) bool {
	if r.IsTerminal() || code == "" || code != r.VerificationCode {
		return false
	}
	if r.IsActive() && r.PaymentVerified {
		return true
	}
	r.PaymentVerified = true
	r.Status = RentalStatusActive
	r.UpdatedAt = now
	return true
}

// Extend moves the end date forward. The base price is rescaled so the
// per-day base rate stays the same; discount and surcharge are reapplied.
func (r *Rental) Extend(newEnd time.Time, now time.Time) error {
	if !r.IsActive() {
		return InvalidState("only active rentals can be extended, rental is %s", r.Status)
	}
	if !newEnd.After(r.EndDate) {
		return InvalidArgument("new end date must be after the current end date")
	}

	oldDuration := r.RentalDuration
	r.OriginalEndDate = r.EndDate
	r.EndDate = newEnd
	r.RentalDuration = utils.RentalDays(r.StartDate, r.EndDate)
	r.BasePrice = utils.ProrateBase(r.BasePrice, oldDuration, r.RentalDuration)
	r.calculateFinalPrice()
	r.UpdatedAt = now
	return nil
}

// Complete closes an active rental. A return more than LateReturnGrace after
// EndDate marks the rental as late; the flag is never cleared afterwards.
func (r *Rental) Complete(returnDate time.Time, now time.Time) error {
	if !r.IsActive() {
		return InvalidState("only active rentals can be completed, rental is %s", r.Status)
	}
	returned := returnDate
	r.ActualReturnDate = &returned
	r.Status = RentalStatusCompleted
	if returnDate.Sub(r.EndDate) > LateReturnGrace {
		r.IsLateReturn = true
	}
	r.UpdatedAt = now
	return nil
}

func (r *Rental) Cancel(now time.Time) error {
	if r.IsTerminal() {
		return InvalidState("rental is already %s", r.Status)
	}
	r.Status = RentalStatusCancelled
	r.UpdatedAt = now
	return nil
}

func (r *Rental) SubmitCounteroffer(amount decimal.Decimal, now time.Time) error {
	if !r.IsPending() {
		return InvalidState("counteroffers are only possible on pending rentals, rental is %s", r.Status)
	}
	if !amount.IsPositive() {
		return InvalidArgument("counteroffer amount must be greater than zero")
	}
	status := CounterofferStatusPending
	r.CounterofferAmount = &amount
	r.CounterofferStatus = &status
	r.UpdatedAt = now
	return nil
}

// AcceptCounteroffer applies a pending counteroffer to the final price. The
// rental status is not changed.
func (r *Rental) AcceptCounteroffer(now time.Time) bool {
	if r.IsTerminal() || !r.HasPendingCounteroffer() {
		return false
	}
	status := CounterofferStatusAccepted
	r.CounterofferStatus = &status
	r.calculateFinalPrice()
	r.UpdatedAt = now
	return true
}

func (r *Rental) RejectCounteroffer(now time.Time) bool {
	if r.IsTerminal() || !r.counterofferIs(CounterofferStatusPending) {
		return false
	}
	status := CounterofferStatusRejected
	r.CounterofferStatus = &status
	r.CounterofferAmount = nil
	r.UpdatedAt = now
	return true
}
