package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

const userColumns = `id, email, first_name, last_name, phone_number, role, status, rating, rating_count, report_count,
	is_blocked, blocked_until, late_return_surcharge_pending, created_at, updated_at`

type userRepository struct {
	db querier
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u            domain.User
		phone        sql.NullString
		blockedUntil sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &phone, &u.Role, &u.Status, &u.Rating, &u.RatingCount,
		&u.ReportCount, &u.IsBlocked, &blockedUntil, &u.LateReturnSurchargePending, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.PhoneNumber = phone.String
	if blockedUntil.Valid {
		t := blockedUntil.Time
		u.BlockedUntil = &t
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	logger.DatabaseCall("SELECT", "users", "userID", id)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "user", id)
	}
	return u, nil
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	logger.DatabaseCall("SELECT FOR UPDATE", "users", "userID", id)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "user", id)
	}
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	var blockedUntil sql.NullTime
	if u.BlockedUntil != nil {
		blockedUntil = sql.NullTime{Time: *u.BlockedUntil, Valid: true}
	}
	query := `UPDATE users SET status=$1, rating=$2, rating_count=$3, report_count=$4, is_blocked=$5, blocked_until=$6,
	          late_return_surcharge_pending=$7, updated_at=$8 WHERE id=$9`
	logger.DatabaseCall("UPDATE", "users", "userID", u.ID)
	result, err := r.db.ExecContext(ctx, query, u.Status, u.Rating, u.RatingCount, u.ReportCount, u.IsBlocked, blockedUntil,
		u.LateReturnSurchargePending, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", rows, nil, "userID", u.ID)
	if rows == 0 {
		return domain.NotFound("user %s not found", u.ID)
	}
	return nil
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func (r *userRepository) ListWithExpiredBlock(ctx context.Context, now time.Time) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
	          WHERE is_blocked = TRUE AND (blocked_until IS NULL OR blocked_until <= $1)`
	logger.DatabaseCall("SELECT", "users", "expiredBefore", now)
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]domain.User, error) {
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
