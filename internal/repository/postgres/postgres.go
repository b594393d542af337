package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

const uniqueViolation = "23505"

var dialect = goqu.Dialect("postgres")

// querier is satisfied by both *sql.DB and *sql.Tx so repositories work the
// same inside and outside a unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.RentalRepository
	repository.VehicleRepository
	repository.UserRepository
	repository.ReviewRepository
	repository.ReportRepository
	repository.NotificationRepository
	repository.OutboxRepository
}

func NewStore(db *sql.DB) *Store {
	repos := newRepositories(db)
	return &Store{
		db:                     db,
		RentalRepository:       repos.Rentals,
		VehicleRepository:      repos.Vehicles,
		UserRepository:         repos.Users,
		ReviewRepository:       repos.Reviews,
		ReportRepository:       repos.Reports,
		NotificationRepository: repos.Notifications,
		OutboxRepository:       repos.Outbox,
	}
}

func newRepositories(q querier) repository.Repositories {
	return repository.Repositories{
		Rentals:       &rentalRepository{db: q},
		Vehicles:      &vehicleRepository{db: q},
		Users:         &userRepository{db: q},
		Reviews:       &reviewRepository{db: q},
		Reports:       &reportRepository{db: q},
		Notifications: &notificationRepository{db: q},
		Outbox:        &outboxRepository{db: q},
	}
}

// Repositories returns the non-transactional repositories.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Rentals:       s.RentalRepository,
		Vehicles:      s.VehicleRepository,
		Users:         s.UserRepository,
		Reviews:       s.ReviewRepository,
		Reports:       s.ReportRepository,
		Notifications: s.NotificationRepository,
		Outbox:        s.OutboxRepository,
	}
}

// Do runs fn inside a database transaction.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	logger.DatabaseCall("BEGIN", "transaction")
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		logger.DatabaseResult("ROLLBACK", 0, err)
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.DatabaseResult("COMMIT", 0, err)
		return fmt.Errorf("commit transaction: %w", err)
	}
	logger.DatabaseResult("COMMIT", 0, nil)
	return nil
}

// translateError maps driver errors onto domain error kinds.
func translateError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("%s %s not found", entity, id)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return &domain.Error{Kind: domain.KindConflict, Message: fmt.Sprintf("%s already exists", entity), Err: err}
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func pageOffset(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
