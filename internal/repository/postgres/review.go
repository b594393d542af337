package postgres

import (
	"context"
	"database/sql"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

type reviewRepository struct {
	db querier
}

func NewReviewRepository(db *sql.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `INSERT INTO reviews (id, rental_id, type, vehicle_id, renter_id, owner_id, rating, comment, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	logger.DatabaseCall("INSERT", "reviews", "reviewID", rv.ID, "rentalID", rv.RentalID, "type", rv.Type)
	_, err := r.db.ExecContext(ctx, query, rv.ID, rv.RentalID, rv.Type, nullString(rv.VehicleID), rv.RenterID, rv.OwnerID,
		rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "reviewID", rv.ID)
	return translateError(err, "review", rv.ID)
}

func (r *reviewRepository) ExistsForRental(ctx context.Context, rentalID string, reviewType domain.ReviewType) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE rental_id = $1 AND type = $2)`
	err := r.db.QueryRowContext(ctx, query, rentalID, reviewType).Scan(&exists)
	return exists, err
}

func (r *reviewRepository) ListByVehicle(ctx context.Context, vehicleID string, limit, offset int) ([]domain.Review, int, error) {
	var count int
	countQuery := `SELECT count(*) FROM reviews WHERE vehicle_id = $1 AND type = $2`
	if err := r.db.QueryRowContext(ctx, countQuery, vehicleID, domain.ReviewTypeVehicle).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, rental_id, type, vehicle_id, renter_id, owner_id, rating, comment, created_at, updated_at
	          FROM reviews WHERE vehicle_id = $1 AND type = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, vehicleID, domain.ReviewTypeVehicle, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		var vehicle, comment sql.NullString
		if err := rows.Scan(&rv.ID, &rv.RentalID, &rv.Type, &vehicle, &rv.RenterID, &rv.OwnerID, &rv.Rating, &comment,
			&rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, 0, err
		}
		rv.VehicleID = vehicle.String
		rv.Comment = comment.String
		reviews = append(reviews, rv)
	}
	return reviews, count, rows.Err()
}
