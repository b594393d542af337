package domain

import "time"

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "PENDING"
	ReportStatusInReview  ReportStatus = "IN_REVIEW"
	ReportStatusResolved  ReportStatus = "RESOLVED"
	ReportStatusDismissed ReportStatus = "DISMISSED"
)

type ReportSeverity string

const (
	ReportSeverityLow    ReportSeverity = "LOW"
	ReportSeverityMedium ReportSeverity = "MEDIUM"
	ReportSeverityHigh   ReportSeverity = "HIGH"
)

// Report is filed by a vehicle owner against the renter of one of their rentals.
type Report struct {
	ID             string         `json:"id"`
	RentalID       string         `json:"rental_id"`
	RenterID       string         `json:"renter_id"`
	OwnerID        string         `json:"owner_id"`
	AdminID        string         `json:"admin_id,omitempty"`
	Reason         string         `json:"reason"`
	Description    string         `json:"description"`
	Severity       ReportSeverity `json:"severity"`
	Status         ReportStatus   `json:"status"`
	Resolution     string         `json:"resolution,omitempty"`
	PenaltyApplied bool           `json:"penalty_applied"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ProcessedAt    *time.Time     `json:"processed_at,omitempty"`
}

func ParseReportSeverity(s string) (ReportSeverity, error) {
	switch ReportSeverity(s) {
	case ReportSeverityLow, ReportSeverityMedium, ReportSeverityHigh:
		return ReportSeverity(s), nil
	case "":
		return ReportSeverityMedium, nil
	}
	return "", InvalidArgument("invalid report severity %q", s)
}

func (r *Report) IsOpen() bool {
	return r.Status == ReportStatusPending || r.Status == ReportStatusInReview
}

func (r *Report) MarkAsInReview(adminID string, now time.Time) error {
	if r.Status != ReportStatusPending {
		return InvalidState("report is %s", r.Status)
	}
	r.Status = ReportStatusInReview
	r.AdminID = adminID
	r.UpdatedAt = now
	return nil
}

func (r *Report) Resolve(adminID, resolution string, applyPenalty bool, now time.Time) error {
	if !r.IsOpen() {
		return InvalidState("report was already processed")
	}
	r.Status = ReportStatusResolved
	r.AdminID = adminID
	r.Resolution = resolution
	r.PenaltyApplied = applyPenalty
	r.ProcessedAt = &now
	r.UpdatedAt = now
	return nil
}

func (r *Report) Dismiss(adminID, resolution string, now time.Time) error {
	if !r.IsOpen() {
		return InvalidState("report was already processed")
	}
	r.Status = ReportStatusDismissed
	r.AdminID = adminID
	r.Resolution = resolution
	r.PenaltyApplied = false
	r.ProcessedAt = &now
	r.UpdatedAt = now
	return nil
}
