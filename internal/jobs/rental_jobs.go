package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

// SendReturnReminders notifies renters whose active rental ends within the
// reminder window.
func (jr *JobRunner) SendReturnReminders() {
	jr.runWithRecovery("SendReturnReminders", jr.sendReturnReminders)
}

func (jr *JobRunner) sendReturnReminders(ctx context.Context) (int, error) {
	now := jr.clock.Now()
	rentals, err := jr.repos.Rentals.ListActiveEndingBetween(ctx, now, now.Add(jr.config.Rental.ReminderWindow()))
	if err != nil {
		return 0, fmt.Errorf("list rentals ending soon: %w", err)
	}

	sent := 0
	var errs []error
	for _, rental := range rentals {
		vehicleName := "your vehicle"
		if vehicle, err := jr.repos.Vehicles.GetByID(ctx, rental.VehicleID); err == nil {
			vehicleName = fmt.Sprintf("%s %s", vehicle.Brand, vehicle.Model)
		} else {
			logger.Warn("Failed to load vehicle for reminder", "rentalID", rental.ID, "vehicleID", rental.VehicleID, "error", err)
		}

		message := fmt.Sprintf("Your rental of %s ends on %s. Please return it on time to avoid a late return penalty.",
			vehicleName, rental.EndDate.Format(time.RFC1123))
		attrs := map[string]string{"type": "RETURN_REMINDER", "rental_id": rental.ID}
		if err := jr.services.Notifier.Notify(ctx, rental.RenterID, "Return reminder", message, attrs); err != nil {
			logger.WithRental(rental.ID).Error("Failed to send return reminder", "renterID", rental.RenterID, "error", err)
			errs = append(errs, err)
			continue
		}
		sent++
	}

	if len(errs) > 0 {
		return sent, fmt.Errorf("%d of %d reminders failed: %w", len(errs), len(rentals), errors.Join(errs...))
	}
	return sent, nil
}

// ReleaseExpiredBlocks lifts blocks whose end date has passed.
func (jr *JobRunner) ReleaseExpiredBlocks() {
	jr.runWithRecovery("ReleaseExpiredBlocks", jr.releaseExpiredBlocks)
}

func (jr *JobRunner) releaseExpiredBlocks(ctx context.Context) (int, error) {
	now := jr.clock.Now()
	users, err := jr.repos.Users.ListWithExpiredBlock(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expired blocks: %w", err)
	}

	released := 0
	for i := range users {
		if !users[i].BlockExpired(now) {
			continue
		}
		ok, err := jr.releaseBlock(ctx, users[i].ID, now)
		if err != nil {
			logger.Error("Failed to release user block", "userID", users[i].ID, "error", err)
			continue
		}
		if ok {
			logger.Debug("Released user block", "userID", users[i].ID)
			released++
		}
	}
	return released, nil
}

// releaseBlock unblocks one user under a row lock. The listed row may be stale,
// so the block is checked again and left alone if it was renewed meanwhile.
func (jr *JobRunner) releaseBlock(ctx context.Context, userID string, now time.Time) (bool, error) {
	released := false
	err := jr.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user, err := repos.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if !user.BlockExpired(now) {
			logger.Debug("User block renewed, keeping it", "userID", userID, "blockedUntil", user.BlockedUntil)
			return nil
		}
		user.Unblock(now)
		if err := repos.Users.Update(ctx, user); err != nil {
			return err
		}
		released = true
		return nil
	})
	return released, err
}
