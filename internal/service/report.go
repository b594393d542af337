package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

type reportService struct {
	uow         repository.UnitOfWork
	notifier    Notifier
	clock       domain.Clock
	penaltyDays int
}

// NewReportService returns a ReportService that blocks penalized renters for
// penaltyDays days.
func NewReportService(uow repository.UnitOfWork, notifier Notifier, clock domain.Clock, penaltyDays int) ReportService {
	return &reportService{uow: uow, notifier: notifier, clock: clock, penaltyDays: penaltyDays}
}

func (s *reportService) CreateReport(ctx context.Context, ownerID, rentalID, reason, description string, severity domain.ReportSeverity) (*domain.Report, error) {
	logger.EnterMethod("reportService.CreateReport", "ownerID", ownerID, "rentalID", rentalID, "severity", severity)
	now := s.clock.Now()

	if strings.TrimSpace(reason) == "" {
		return nil, domain.InvalidArgument("report reason is required")
	}
	if severity == "" {
		severity = domain.ReportSeverityMedium
	}

	var report *domain.Report
	var notices []notice
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rental, err := repos.Rentals.GetByID(ctx, rentalID)
		if err != nil {
			return err
		}
		if rental.OwnerID != ownerID {
			return domain.Forbidden("only the vehicle owner can report rental %s", rentalID)
		}
		exists, err := repos.Reports.ExistsForRental(ctx, rentalID)
		if err != nil {
			return err
		}
		if exists {
			return domain.Conflict("rental %s was already reported", rentalID)
		}

		report = &domain.Report{
			ID:          uuid.New().String(),
			RentalID:    rental.ID,
			RenterID:    rental.RenterID,
			OwnerID:     rental.OwnerID,
			Reason:      reason,
			Description: description,
			Severity:    severity,
			Status:      domain.ReportStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repos.Reports.Create(ctx, report); err != nil {
			return err
		}

		renter, err := repos.Users.GetByIDForUpdate(ctx, rental.RenterID)
		if err != nil {
			return err
		}
		renter.IncreaseReportCount(now)
		if err := repos.Users.Update(ctx, renter); err != nil {
			return err
		}

		admins, err := repos.Users.ListByRole(ctx, domain.UserRoleAdmin)
		if err != nil {
			return err
		}
		notices = append(notices, notice{renter.ID, "You have been reported",
			fmt.Sprintf("The owner reported your rental %s: %s", rental.ID, reason), "REPORT_FILED"})
		for _, admin := range admins {
			notices = append(notices, notice{admin.ID, "New report to review",
				fmt.Sprintf("Report %s (%s) was filed for rental %s.", report.ID, severity, rental.ID), "REPORT_FILED"})
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("reportService.CreateReport", err, "rentalID", rentalID)
		return nil, err
	}

	s.dispatch(ctx, report, notices)
	logger.ExitMethod("reportService.CreateReport", "reportID", report.ID)
	return report, nil
}

// ProcessReport resolves or dismisses an open report. A resolved report with
// applyPenalty blocks the renter.
func (s *reportService) ProcessReport(ctx context.Context, adminID, reportID, resolution string, resolve, applyPenalty bool) (*domain.Report, error) {
	logger.EnterMethod("reportService.ProcessReport", "adminID", adminID, "reportID", reportID, "resolve", resolve, "penalty", applyPenalty)
	now := s.clock.Now()

	var report *domain.Report
	var notices []notice
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		admin, err := repos.Users.GetByID(ctx, adminID)
		if err != nil {
			return err
		}
		if !admin.IsAdmin() {
			return domain.Forbidden("only admins can process reports")
		}
		report, err = repos.Reports.GetByID(ctx, reportID)
		if err != nil {
			return err
		}

		outcome := "dismissed"
		if resolve {
			if err := report.Resolve(adminID, resolution, applyPenalty, now); err != nil {
				return err
			}
			outcome = "resolved"
		} else if err := report.Dismiss(adminID, resolution, now); err != nil {
			return err
		}
		if err := repos.Reports.Update(ctx, report); err != nil {
			return err
		}

		renterMessage := fmt.Sprintf("The report on rental %s was %s.", report.RentalID, outcome)
		if report.PenaltyApplied {
			renter, err := repos.Users.GetByIDForUpdate(ctx, report.RenterID)
			if err != nil {
				return err
			}
			renter.Block(s.penaltyDays, now)
			if err := repos.Users.Update(ctx, renter); err != nil {
				return err
			}
			renterMessage = fmt.Sprintf("The report on rental %s was upheld. Your account is blocked for %d days.", report.RentalID, s.penaltyDays)
		}

		notices = append(notices,
			notice{report.RenterID, "Report processed", renterMessage, "REPORT_PROCESSED"},
			notice{report.OwnerID, "Report processed",
				fmt.Sprintf("Your report on rental %s was %s.", report.RentalID, outcome), "REPORT_PROCESSED"},
		)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("reportService.ProcessReport", err, "reportID", reportID)
		return nil, err
	}

	s.dispatch(ctx, report, notices)
	logger.ExitMethod("reportService.ProcessReport", "reportID", reportID, "status", report.Status)
	return report, nil
}

func (s *reportService) dispatch(ctx context.Context, report *domain.Report, notices []notice) {
	ctx = context.WithoutCancel(ctx)
	for _, n := range notices {
		attrs := map[string]string{notificationTypeAttribute: n.kind, rentalIDAttribute: report.RentalID, "report_id": report.ID}
		if err := s.notifier.Notify(ctx, n.userID, n.title, n.message, attrs); err != nil {
			logger.ErrorContext(ctx, "Failed to send report notification", "reportID", report.ID, "userID", n.userID, "error", err)
		}
	}
}
