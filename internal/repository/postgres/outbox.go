package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

type outboxRepository struct {
	db querier
}

func NewOutboxRepository(db *sql.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Append(ctx context.Context, e *domain.OutboxEvent) error {
	query := `INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at, attempts)
	          VALUES ($1, $2, $3, $4, $5, 0)`
	logger.DatabaseCall("INSERT", "outbox_events", "eventID", e.ID, "aggregateID", e.AggregateID, "eventType", e.EventType)
	_, err := r.db.ExecContext(ctx, query, e.ID, e.AggregateID, e.EventType, e.Payload, e.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "eventID", e.ID)
	return err
}

func (r *outboxRepository) ListUnpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at, attempts FROM outbox_events
	          WHERE published_at IS NULL ORDER BY created_at LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt, &e.Attempts); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *outboxRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE outbox_events SET published_at = $1, attempts = attempts + 1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, at, id)
	return err
}

func (r *outboxRepository) RecordFailure(ctx context.Context, id string) error {
	query := `UPDATE outbox_events SET attempts = attempts + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
