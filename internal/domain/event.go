package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

const EventTypeRentalStateChanged = "RentalStateChanged"

var ErrMappingEventPayloadFailed = errors.New("mapping outbox event payload failed")

// OutboxEvent is a state-change record written in the same transaction as the
// change itself and relayed to the message broker afterwards.
type OutboxEvent struct {
	ID          string     `json:"id"`
	AggregateID string     `json:"aggregate_id"`
	EventType   string     `json:"event_type"`
	Payload     []byte     `json:"payload"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Attempts    int        `json:"attempts"`
}

// RentalStateChanged is the payload published for every rental command.
type RentalStateChanged struct {
	RentalID       string          `json:"rental_id"`
	VehicleID      string          `json:"vehicle_id"`
	RenterID       string          `json:"renter_id"`
	OwnerID        string          `json:"owner_id"`
	Action         string          `json:"action"`
	PreviousStatus RentalStatus    `json:"previous_status,omitempty"`
	Status         RentalStatus    `json:"status"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	EndDate        time.Time       `json:"end_date"`
	IsLateReturn   bool            `json:"is_late_return"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// NewRentalStateChanged snapshots r after action was applied.
func NewRentalStateChanged(r *Rental, action string, previous RentalStatus, now time.Time) (*OutboxEvent, error) {
	payload, err := jsoniter.ConfigFastest.Marshal(RentalStateChanged{
		RentalID:       r.ID,
		VehicleID:      r.VehicleID,
		RenterID:       r.RenterID,
		OwnerID:        r.OwnerID,
		Action:         action,
		PreviousStatus: previous,
		Status:         r.Status,
		FinalPrice:     r.FinalPrice,
		EndDate:        r.EndDate,
		IsLateReturn:   r.IsLateReturn,
		OccurredAt:     now,
	})
	if err != nil {
		return nil, errors.Join(ErrMappingEventPayloadFailed, err)
	}

	return &OutboxEvent{
		ID:          uuid.New().String(),
		AggregateID: r.ID,
		EventType:   EventTypeRentalStateChanged,
		Payload:     payload,
		CreatedAt:   now,
	}, nil
}

func DecodeRentalStateChanged(e *OutboxEvent) (RentalStateChanged, error) {
	var payload RentalStateChanged
	if err := jsoniter.ConfigFastest.Unmarshal(e.Payload, &payload); err != nil {
		return RentalStateChanged{}, errors.Join(ErrMappingEventPayloadFailed, err)
	}
	return payload, nil
}
