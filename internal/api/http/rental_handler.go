package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/repository"
	"rentacar-backend/internal/service"
	"rentacar-backend/internal/utils"
)

type RentalHandler struct {
	rentals service.RentalService
}

func NewRentalHandler(rentals service.RentalService) *RentalHandler {
	return &RentalHandler{rentals: rentals}
}

type createRentalRequest struct {
	VehicleID          string           `json:"vehicle_id"`
	StartDate          string           `json:"start_date"`
	EndDate            string           `json:"end_date"`
	Notes              string           `json:"notes"`
	CounterofferAmount *decimal.Decimal `json:"counteroffer_amount,omitempty"`
}

type counterofferRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type verifyPaymentRequest struct {
	Code string `json:"code"`
}

type extendRentalRequest struct {
	NewEndDate string `json:"new_end_date"`
}

type completeRentalRequest struct {
	ReturnDate string `json:"return_date,omitempty"`
}

type rentalListResponse struct {
	Rentals  []domain.Rental `json:"rentals"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())

	var req createRentalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	start, err := utils.ParseDateTime(req.StartDate)
	if err != nil {
		badRequest(w, r, "start_date: %v", err)
		return
	}
	end, err := utils.ParseDateTime(req.EndDate)
	if err != nil {
		badRequest(w, r, "end_date: %v", err)
		return
	}

	rental, err := h.rentals.CreateRental(r.Context(), service.CreateRentalInput{
		RenterID:           caller.UserID,
		VehicleID:          req.VehicleID,
		StartDate:          start,
		EndDate:            end,
		Notes:              req.Notes,
		CounterofferAmount: req.CounterofferAmount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rental)
}

func (h *RentalHandler) ListMyRentals(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	q := r.URL.Query()
	page, pageSize, err := parsePaging(r, 20)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter := repository.RentalFilter{
		UserID:   caller.UserID,
		Role:     repository.RentalRole(q.Get("role")),
		Status:   domain.RentalStatus(q.Get("status")),
		Page:     page,
		PageSize: pageSize,
	}
	rentals, total, err := h.rentals.ListUserRentals(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rentals == nil {
		rentals = []domain.Rental{}
	}
	writeJSON(w, http.StatusOK, rentalListResponse{Rentals: rentals, Total: total, Page: page, PageSize: pageSize})
}

func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	rental, err := h.rentals.GetRental(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !caller.IsAdmin() && !rental.IsParty(caller.UserID) {
		writeError(w, r, domain.Forbidden("not a party to this rental"))
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *RentalHandler) SubmitCounteroffer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, partyRenter)
	if !ok {
		return
	}
	var req counterofferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := h.rentals.SubmitCounteroffer(r.Context(), id, req.Amount)
	h.respond(w, r, rental, err)
}

func (h *RentalHandler) AcceptCounteroffer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, partyOwner)
	if !ok {
		return
	}
	rental, err := h.rentals.AcceptCounteroffer(r.Context(), id)
	h.respond(w, r, rental, err)
}

func (h *RentalHandler) RejectCounteroffer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, partyOwner)
	if !ok {
		return
	}
	rental, err := h.rentals.RejectCounteroffer(r.Context(), id)
	h.respond(w, r, rental, err)
}

func (h *RentalHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, partyOwner)
	if !ok {
		return
	}
	var req verifyPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	verified, err := h.rentals.VerifyPayment(r.Context(), id, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": verified})
}

func (h *RentalHandler) ExtendRental(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, partyRenter)
	if !ok {
		return
	}
	var req extendRentalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	newEnd, err := utils.ParseDateTime(req.NewEndDate)
	if err != nil {
		badRequest(w, r, "new_end_date: %v", err)
		return
	}
	rental, err := h.rentals.ExtendRental(r.Context(), id, newEnd)
	h.respond(w, r, rental, err)
}

func (h *RentalHandler) CompleteRental(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, partyOwner)
	if !ok {
		return
	}
	var returnDate *time.Time
	if r.ContentLength != 0 {
		var req completeRentalRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.ReturnDate != "" {
			t, err := utils.ParseDateTime(req.ReturnDate)
			if err != nil {
				badRequest(w, r, "return_date: %v", err)
				return
			}
			returnDate = &t
		}
	}
	rental, err := h.rentals.CompleteRental(r.Context(), id, returnDate)
	h.respond(w, r, rental, err)
}

func (h *RentalHandler) CancelRental(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, partyEither)
	if !ok {
		return
	}
	rental, err := h.rentals.CancelRental(r.Context(), id)
	h.respond(w, r, rental, err)
}

type party int

const (
	partyEither party = iota
	partyRenter
	partyOwner
)

// authorize loads the rental named in the path and checks the caller plays
// the required part in it. Admins pass every check.
func (h *RentalHandler) authorize(w http.ResponseWriter, r *http.Request, required party) (string, bool) {
	caller, _ := CallerFromContext(r.Context())
	id := mux.Vars(r)["id"]
	rental, err := h.rentals.GetRental(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return "", false
	}
	if caller.IsAdmin() {
		return id, true
	}

	var allowed bool
	switch required {
	case partyRenter:
		allowed = rental.RenterID == caller.UserID
	case partyOwner:
		allowed = rental.OwnerID == caller.UserID
	default:
		allowed = rental.IsParty(caller.UserID)
	}
	if !allowed {
		writeError(w, r, domain.Forbidden("caller may not perform this action on rental %s", id))
		return "", false
	}
	return id, true
}

func (h *RentalHandler) respond(w http.ResponseWriter, r *http.Request, rental *domain.Rental, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

// parsePaging reads page and page_size query parameters. Page numbering starts at 1
// and page_size is capped at service.MaxPageSize, so the returned size is the one applied.
func parsePaging(r *http.Request, defaultSize int) (int, int, error) {
	q := r.URL.Query()
	page, pageSize := 1, defaultSize
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, domain.InvalidArgument("page must be a positive integer")
		}
		page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, domain.InvalidArgument("page_size must be a positive integer")
		}
		pageSize = min(n, service.MaxPageSize)
	}
	return page, pageSize, nil
}
