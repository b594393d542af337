package service

import (
	"context"
	"time"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

type availabilityChecker struct {
	rentals repository.RentalRepository
}

func NewAvailabilityChecker(rentals repository.RentalRepository) AvailabilityChecker {
	return &availabilityChecker{rentals: rentals}
}

func (c *availabilityChecker) Check(ctx context.Context, vehicleID string, start, end time.Time) (Availability, error) {
	return c.CheckExcluding(ctx, vehicleID, start, end, "")
}

// CheckExcluding ignores excludeRentalID so a rental never conflicts with itself.
func (c *availabilityChecker) CheckExcluding(ctx context.Context, vehicleID string, start, end time.Time, excludeRentalID string) (Availability, error) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return Availability{}, domain.InvalidArgument("a valid date range is required")
	}

	blocking, err := c.rentals.ListBlockingByVehicle(ctx, vehicleID)
	if err != nil {
		return Availability{}, err
	}

	requested := domain.DateRange{Start: start, End: end}
	result := Availability{IsAvailable: true, Conflicts: []domain.DateRange{}}
	for i := range blocking {
		rt := &blocking[i]
		if rt.ID == excludeRentalID || rt.IsTerminal() {
			continue
		}
		if domain.Overlaps(rt.Period(), requested) {
			result.IsAvailable = false
			result.Conflicts = append(result.Conflicts, rt.Period())
		}
	}

	logger.Debug("Availability checked", "vehicleID", vehicleID, "available", result.IsAvailable, "conflicts", len(result.Conflicts))
	return result, nil
}
