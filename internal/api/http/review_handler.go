package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/service"
)

type ReviewHandler struct {
	reviews service.ReviewService
	reports service.ReportService
}

func NewReviewHandler(reviews service.ReviewService, reports service.ReportService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, reports: reports}
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type createReportRequest struct {
	Reason      string `json:"reason"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type processReportRequest struct {
	Resolution   string `json:"resolution"`
	Resolve      bool   `json:"resolve"`
	ApplyPenalty bool   `json:"apply_penalty"`
}

func (h *ReviewHandler) CreateVehicleReview(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	var req reviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	review, err := h.reviews.CreateVehicleReview(r.Context(), caller.UserID, mux.Vars(r)["id"], req.Rating, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) CreateRenterReview(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	var req reviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	review, err := h.reviews.CreateRenterReview(r.Context(), caller.UserID, mux.Vars(r)["id"], req.Rating, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) ListVehicleReviews(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := parsePaging(r, 20)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reviews, total, err := h.reviews.ListVehicleReviews(r.Context(), mux.Vars(r)["id"], page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews, "total": total, "page": page})
}

func (h *ReviewHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	var req createReportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	severity, err := domain.ParseReportSeverity(req.Severity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.reports.CreateReport(r.Context(), caller.UserID, mux.Vars(r)["id"], req.Reason, req.Description, severity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *ReviewHandler) ProcessReport(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	var req processReportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.reports.ProcessReport(r.Context(), caller.UserID, mux.Vars(r)["id"], req.Resolution, req.Resolve, req.ApplyPenalty)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
