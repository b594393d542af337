package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

const rentalColumns = `id, vehicle_id, renter_id, owner_id, start_date, end_date, original_end_date, actual_return_date,
	base_price, discount_percentage, additional_charge_percentage, final_price, status, verification_code,
	payment_verified, notes, counteroffer_amount, counteroffer_status, is_late_return, rental_duration,
	created_at, updated_at, version`

var rentalColumnList = []any{
	"id", "vehicle_id", "renter_id", "owner_id", "start_date", "end_date", "original_end_date", "actual_return_date",
	"base_price", "discount_percentage", "additional_charge_percentage", "final_price", "status", "verification_code",
	"payment_verified", "notes", "counteroffer_amount", "counteroffer_status", "is_late_return", "rental_duration",
	"created_at", "updated_at", "version",
}

type rentalRepository struct {
	db querier
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRental(row rowScanner) (*domain.Rental, error) {
	var (
		rt                 domain.Rental
		actualReturn       sql.NullTime
		counterofferAmount decimal.NullDecimal
		counterofferStatus sql.NullString
		notes              sql.NullString
	)
	err := row.Scan(&rt.ID, &rt.VehicleID, &rt.RenterID, &rt.OwnerID, &rt.StartDate, &rt.EndDate, &rt.OriginalEndDate, &actualReturn,
		&rt.BasePrice, &rt.DiscountPercentage, &rt.AdditionalChargePercentage, &rt.FinalPrice, &rt.Status, &rt.VerificationCode,
		&rt.PaymentVerified, &notes, &counterofferAmount, &counterofferStatus, &rt.IsLateReturn, &rt.RentalDuration,
		&rt.CreatedAt, &rt.UpdatedAt, &rt.Version)
	if err != nil {
		return nil, err
	}
	rt.Notes = notes.String
	if actualReturn.Valid {
		t := actualReturn.Time
		rt.ActualReturnDate = &t
	}
	if counterofferAmount.Valid {
		amount := counterofferAmount.Decimal
		rt.CounterofferAmount = &amount
	}
	if counterofferStatus.Valid {
		status := domain.CounterofferStatus(counterofferStatus.String)
		rt.CounterofferStatus = &status
	}
	return &rt, nil
}

func scanRentals(rows *sql.Rows) ([]domain.Rental, error) {
	defer rows.Close()
	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	return rentals, rows.Err()
}

func counterofferArgs(rt *domain.Rental) (decimal.NullDecimal, sql.NullString) {
	var amount decimal.NullDecimal
	var status sql.NullString
	if rt.CounterofferAmount != nil {
		amount = decimal.NewNullDecimal(*rt.CounterofferAmount)
	}
	if rt.CounterofferStatus != nil {
		status = sql.NullString{String: string(*rt.CounterofferStatus), Valid: true}
	}
	return amount, status
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	logger.EnterMethod("rentalRepository.Create", "rentalID", rt.ID, "vehicleID", rt.VehicleID)

	amount, status := counterofferArgs(rt)
	query := `INSERT INTO rentals (id, vehicle_id, renter_id, owner_id, start_date, end_date, original_end_date,
	          base_price, discount_percentage, additional_charge_percentage, final_price, status, verification_code,
	          payment_verified, notes, counteroffer_amount, counteroffer_status, is_late_return, rental_duration,
	          created_at, updated_at, version)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, 1)
	          RETURNING version`
	logger.DatabaseCall("INSERT", "rentals", "rentalID", rt.ID)
	err := r.db.QueryRowContext(ctx, query, rt.ID, rt.VehicleID, rt.RenterID, rt.OwnerID, rt.StartDate, rt.EndDate, rt.OriginalEndDate,
		rt.BasePrice, rt.DiscountPercentage, rt.AdditionalChargePercentage, rt.FinalPrice, rt.Status, rt.VerificationCode,
		rt.PaymentVerified, rt.Notes, amount, status, rt.IsLateReturn, rt.RentalDuration,
		rt.CreatedAt, rt.UpdatedAt).Scan(&rt.Version)
	logger.DatabaseResult("INSERT", 1, err, "rentalID", rt.ID)
	if err != nil {
		logger.ExitMethodWithError("rentalRepository.Create", err, "rentalID", rt.ID)
		return translateError(err, "rental", rt.ID)
	}
	logger.ExitMethod("rentalRepository.Create", "rentalID", rt.ID)
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	logger.DatabaseCall("SELECT", "rentals", "rentalID", id)
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "rental", id)
	}
	return rt, nil
}

func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental) error {
	amount, status := counterofferArgs(rt)
	var actualReturn sql.NullTime
	if rt.ActualReturnDate != nil {
		actualReturn = sql.NullTime{Time: *rt.ActualReturnDate, Valid: true}
	}

	query := `UPDATE rentals SET end_date=$1, original_end_date=$2, actual_return_date=$3, base_price=$4,
	          discount_percentage=$5, additional_charge_percentage=$6, final_price=$7, status=$8, payment_verified=$9,
	          notes=$10, counteroffer_amount=$11, counteroffer_status=$12, is_late_return=$13, rental_duration=$14,
	          updated_at=$15, version = version + 1
	          WHERE id=$16 AND version=$17`
	logger.DatabaseCall("UPDATE", "rentals", "rentalID", rt.ID, "version", rt.Version)
	result, err := r.db.ExecContext(ctx, query, rt.EndDate, rt.OriginalEndDate, actualReturn, rt.BasePrice,
		rt.DiscountPercentage, rt.AdditionalChargePercentage, rt.FinalPrice, rt.Status, rt.PaymentVerified,
		rt.Notes, amount, status, rt.IsLateReturn, rt.RentalDuration,
		rt.UpdatedAt, rt.ID, rt.Version)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "rentalID", rt.ID)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", rows, nil, "rentalID", rt.ID)
	if rows == 0 {
		logger.Warn("Rental version check failed", "rentalID", rt.ID, "version", rt.Version)
		return domain.ErrConcurrencyConflict
	}
	rt.Version++
	return nil
}

func (r *rentalRepository) ListByUser(ctx context.Context, f repository.RentalFilter) ([]domain.Rental, int, error) {
	limit, offset := pageOffset(f.Page, f.PageSize)

	where := []goqu.Expression{}
	switch f.Role {
	case repository.RentalRoleRenter:
		where = append(where, goqu.C("renter_id").Eq(f.UserID))
	case repository.RentalRoleOwner:
		where = append(where, goqu.C("owner_id").Eq(f.UserID))
	default:
		where = append(where, goqu.Or(goqu.C("renter_id").Eq(f.UserID), goqu.C("owner_id").Eq(f.UserID)))
	}
	if f.Status != "" {
		where = append(where, goqu.C("status").Eq(string(f.Status)))
	}

	base := dialect.From("rentals").Prepared(true).Where(where...)

	countSQL, countArgs, err := base.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build rental count query: %w", err)
	}
	var count int
	logger.DatabaseCall("SELECT", "rentals", "userID", f.UserID, "role", f.Role, "status", f.Status)
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&count); err != nil {
		return nil, 0, err
	}

	listSQL, listArgs, err := base.Select(rentalColumnList...).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build rental list query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	rentals, err := scanRentals(rows)
	if err != nil {
		return nil, 0, err
	}
	logger.DatabaseResult("SELECT", int64(len(rentals)), nil, "total", count)
	return rentals, count, nil
}

func (r *rentalRepository) ListBlockingByVehicle(ctx context.Context, vehicleID string) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE vehicle_id = $1 AND status IN ($2, $3) ORDER BY start_date`
	logger.DatabaseCall("SELECT", "rentals", "vehicleID", vehicleID)
	rows, err := r.db.QueryContext(ctx, query, vehicleID, domain.RentalStatusPending, domain.RentalStatusActive)
	if err != nil {
		return nil, err
	}
	return scanRentals(rows)
}

func (r *rentalRepository) ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE status = $1 AND end_date >= $2 AND end_date < $3 ORDER BY end_date`
	logger.DatabaseCall("SELECT", "rentals", "from", from, "to", to)
	rows, err := r.db.QueryContext(ctx, query, domain.RentalStatusActive, from, to)
	if err != nil {
		return nil, err
	}
	return scanRentals(rows)
}

func (r *rentalRepository) HasActiveByVehicle(ctx context.Context, vehicleID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM rentals WHERE vehicle_id = $1 AND status = $2)`
	err := r.db.QueryRowContext(ctx, query, vehicleID, domain.RentalStatusActive).Scan(&exists)
	return exists, err
}
