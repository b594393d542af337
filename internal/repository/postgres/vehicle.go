package postgres

import (
	"context"
	"database/sql"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

const vehicleColumns = `id, owner_id, brand, model, year, license_plate, color, seats, daily_rate, description,
	status, is_available, rating, rating_count, rental_count, last_rental_end_date, created_at, updated_at`

type vehicleRepository struct {
	db querier
}

func NewVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var (
		v           domain.Vehicle
		color, desc sql.NullString
		lastEnd     sql.NullTime
	)
	err := row.Scan(&v.ID, &v.OwnerID, &v.Brand, &v.Model, &v.Year, &v.LicensePlate, &color, &v.Seats, &v.DailyRate, &desc,
		&v.Status, &v.IsAvailable, &v.Rating, &v.RatingCount, &v.RentalCount, &lastEnd, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Color = color.String
	v.Description = desc.String
	if lastEnd.Valid {
		t := lastEnd.Time
		v.LastRentalEndDate = &t
	}
	return &v, nil
}

func (r *vehicleRepository) Create(ctx context.Context, v *domain.Vehicle) error {
	query := `INSERT INTO vehicles (id, owner_id, brand, model, year, license_plate, color, seats, daily_rate, description,
	          status, is_available, rating, rating_count, rental_count, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	logger.DatabaseCall("INSERT", "vehicles", "vehicleID", v.ID, "licensePlate", v.LicensePlate)
	_, err := r.db.ExecContext(ctx, query, v.ID, v.OwnerID, v.Brand, v.Model, v.Year, v.LicensePlate, nullString(v.Color), v.Seats,
		v.DailyRate, nullString(v.Description), v.Status, v.IsAvailable, v.Rating, v.RatingCount, v.RentalCount, v.CreatedAt, v.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "vehicleID", v.ID)
	return translateError(err, "vehicle", v.ID)
}

func (r *vehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	v, err := scanVehicle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "vehicle", id)
	}
	return v, nil
}

func (r *vehicleRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1 FOR UPDATE`
	logger.DatabaseCall("SELECT FOR UPDATE", "vehicles", "vehicleID", id)
	v, err := scanVehicle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "vehicle", id)
	}
	return v, nil
}

func (r *vehicleRepository) Update(ctx context.Context, v *domain.Vehicle) error {
	var lastEnd sql.NullTime
	if v.LastRentalEndDate != nil {
		lastEnd = sql.NullTime{Time: *v.LastRentalEndDate, Valid: true}
	}
	query := `UPDATE vehicles SET daily_rate=$1, description=$2, status=$3, is_available=$4, rating=$5, rating_count=$6,
	          rental_count=$7, last_rental_end_date=$8, updated_at=$9 WHERE id=$10`
	logger.DatabaseCall("UPDATE", "vehicles", "vehicleID", v.ID)
	result, err := r.db.ExecContext(ctx, query, v.DailyRate, nullString(v.Description), v.Status, v.IsAvailable, v.Rating,
		v.RatingCount, v.RentalCount, lastEnd, v.UpdatedAt, v.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", rows, nil, "vehicleID", v.ID)
	if rows == 0 {
		return domain.NotFound("vehicle %s not found", v.ID)
	}
	return nil
}

func (r *vehicleRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}
