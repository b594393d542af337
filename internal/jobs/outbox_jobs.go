package jobs

import (
	"context"
	"fmt"

	"rentacar-backend/internal/logger"
)

// RelayOutbox publishes pending rental state changes to the broker.
func (jr *JobRunner) RelayOutbox() {
	jr.runWithRecovery("RelayOutbox", jr.relayOutbox)
}

// relayOutbox stops at the first publish failure so events leave in order.
func (jr *JobRunner) relayOutbox(ctx context.Context) (int, error) {
	if jr.publisher == nil {
		logger.Warn("No event publisher configured, outbox relay skipped")
		return 0, nil
	}

	pending, err := jr.repos.Outbox.ListUnpublished(ctx, jr.config.Rental.OutboxBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list unpublished events: %w", err)
	}

	published := 0
	for i := range pending {
		event := &pending[i]
		if err := jr.publisher.Publish(ctx, event); err != nil {
			if recErr := jr.repos.Outbox.RecordFailure(ctx, event.ID); recErr != nil {
				logger.Error("Failed to record outbox failure", "eventID", event.ID, "error", recErr)
			}
			return published, fmt.Errorf("publish event %s: %w", event.ID, err)
		}
		if err := jr.repos.Outbox.MarkPublished(ctx, event.ID, jr.clock.Now()); err != nil {
			return published, fmt.Errorf("mark event %s published: %w", event.ID, err)
		}
		published++
	}
	return published, nil
}
