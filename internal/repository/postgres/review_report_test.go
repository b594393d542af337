package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/repository/postgres"
)

var reportCols = []string{
	"id", "rental_id", "renter_id", "owner_id", "admin_id", "reason", "description", "severity", "status", "resolution",
	"penalty_applied", "created_at", "updated_at", "processed_at",
}

func TestReviewRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewReviewRepository(db)
	ctx := context.Background()

	review := &domain.Review{
		ID: "rev-1", RentalID: "rent-1", Type: domain.ReviewTypeRenter, RenterID: "renter-1", OwnerID: "owner-1",
		Rating: 4, Comment: "on time", CreatedAt: now, UpdatedAt: now,
	}

	t.Run("Renter review stores NULL vehicle", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO reviews").
			WithArgs("rev-1", "rent-1", domain.ReviewTypeRenter, nil, "renter-1", "owner-1", 4, "on time", now, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, review))
	})

	t.Run("Duplicate review", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO reviews").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "reviews_rental_id_type_key"})

		err := repo.Create(ctx, review)
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListByVehicle(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewReviewRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM reviews`).
		WithArgs("veh-1", domain.ReviewTypeVehicle).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT id, rental_id, type, vehicle_id").
		WithArgs("veh-1", domain.ReviewTypeVehicle, 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "rental_id", "type", "vehicle_id", "renter_id", "owner_id", "rating", "comment", "created_at", "updated_at"}).
			AddRow("rev-3", "rent-3", "VEHICLE", "veh-1", "renter-1", "owner-1", 5, nil, now, now))

	reviews, total, err := repo.ListByVehicle(context.Background(), "veh-1", 2, 2)

	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, reviews, 1)
	assert.Equal(t, "veh-1", reviews[0].VehicleID)
	assert.Empty(t, reviews[0].Comment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewReportRepository(db)
	ctx := context.Background()

	t.Run("Pending report", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, rental_id, renter_id, owner_id, admin_id").
			WithArgs("rep-1").
			WillReturnRows(sqlmock.NewRows(reportCols).
				AddRow("rep-1", "rent-1", "renter-1", "owner-1", nil, "damage", "scratched door", "HIGH", "PENDING", nil,
					false, now, now, nil))

		report, err := repo.GetByID(ctx, "rep-1")

		require.NoError(t, err)
		assert.Equal(t, domain.ReportSeverityHigh, report.Severity)
		assert.True(t, report.IsOpen())
		assert.Empty(t, report.AdminID)
		assert.Nil(t, report.ProcessedAt)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, rental_id, renter_id, owner_id, admin_id").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(reportCols))

		_, err := repo.GetByID(ctx, "missing")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_Update(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewReportRepository(db)

	report := &domain.Report{ID: "rep-1", Status: domain.ReportStatusPending}
	require.NoError(t, report.Resolve("admin-1", "confirmed", true, now))

	mock.ExpectExec("UPDATE reports SET").
		WithArgs("admin-1", domain.ReportStatusResolved, "confirmed", true, now, now, "rep-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Update(context.Background(), report))
	assert.NoError(t, mock.ExpectationsWereMet())
}
