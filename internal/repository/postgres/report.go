package postgres

import (
	"context"
	"database/sql"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

type reportRepository struct {
	db querier
}

func NewReportRepository(db *sql.DB) repository.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, rp *domain.Report) error {
	query := `INSERT INTO reports (id, rental_id, renter_id, owner_id, reason, description, severity, status,
	          penalty_applied, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	logger.DatabaseCall("INSERT", "reports", "reportID", rp.ID, "rentalID", rp.RentalID)
	_, err := r.db.ExecContext(ctx, query, rp.ID, rp.RentalID, rp.RenterID, rp.OwnerID, rp.Reason, rp.Description,
		rp.Severity, rp.Status, rp.PenaltyApplied, rp.CreatedAt, rp.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "reportID", rp.ID)
	return translateError(err, "report", rp.ID)
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	var (
		rp                  domain.Report
		adminID, resolution sql.NullString
		processedAt         sql.NullTime
	)
	query := `SELECT id, rental_id, renter_id, owner_id, admin_id, reason, description, severity, status, resolution,
	          penalty_applied, created_at, updated_at, processed_at FROM reports WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rp.ID, &rp.RentalID, &rp.RenterID, &rp.OwnerID, &adminID, &rp.Reason,
		&rp.Description, &rp.Severity, &rp.Status, &resolution, &rp.PenaltyApplied, &rp.CreatedAt, &rp.UpdatedAt, &processedAt)
	if err != nil {
		return nil, translateError(err, "report", id)
	}
	rp.AdminID = adminID.String
	rp.Resolution = resolution.String
	if processedAt.Valid {
		t := processedAt.Time
		rp.ProcessedAt = &t
	}
	return &rp, nil
}

func (r *reportRepository) Update(ctx context.Context, rp *domain.Report) error {
	var processedAt sql.NullTime
	if rp.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *rp.ProcessedAt, Valid: true}
	}
	query := `UPDATE reports SET admin_id=$1, status=$2, resolution=$3, penalty_applied=$4, processed_at=$5, updated_at=$6
	          WHERE id=$7`
	logger.DatabaseCall("UPDATE", "reports", "reportID", rp.ID, "status", rp.Status)
	_, err := r.db.ExecContext(ctx, query, nullString(rp.AdminID), rp.Status, nullString(rp.Resolution), rp.PenaltyApplied,
		processedAt, rp.UpdatedAt, rp.ID)
	return err
}

func (r *reportRepository) ExistsForRental(ctx context.Context, rentalID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reports WHERE rental_id = $1)`
	err := r.db.QueryRowContext(ctx, query, rentalID).Scan(&exists)
	return exists, err
}
