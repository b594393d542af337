package domain

import "time"

type ReviewType string

const (
	ReviewTypeVehicle ReviewType = "VEHICLE"
	ReviewTypeRenter  ReviewType = "RENTER"
)

type Review struct {
	ID        string     `json:"id"`
	RentalID  string     `json:"rental_id"`
	Type      ReviewType `json:"type"`
	VehicleID string     `json:"vehicle_id,omitempty"`
	RenterID  string     `json:"renter_id"`
	OwnerID   string     `json:"owner_id"`
	Rating    int        `json:"rating"`
	Comment   string     `json:"comment"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewReview builds a review of the given type for a completed rental.
func NewReview(id string, reviewType ReviewType, rental *Rental, rating int, comment string, now time.Time) (*Review, error) {
	if rating < int(minRating) || rating > int(maxRating) {
		return nil, InvalidArgument("rating must be between 1 and 5")
	}
	if !rental.IsCompleted() {
		return nil, InvalidState("only completed rentals can be reviewed")
	}
	r := &Review{
		ID:        id,
		RentalID:  rental.ID,
		Type:      reviewType,
		RenterID:  rental.RenterID,
		OwnerID:   rental.OwnerID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if reviewType == ReviewTypeVehicle {
		r.VehicleID = rental.VehicleID
	}
	return r, nil
}
