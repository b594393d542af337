package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/service"
	"rentacar-backend/internal/utils"
)

type VehicleHandler struct {
	vehicles     service.VehicleService
	availability service.AvailabilityChecker
}

func NewVehicleHandler(vehicles service.VehicleService, availability service.AvailabilityChecker) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, availability: availability}
}

type registerVehicleRequest struct {
	Brand        string          `json:"brand"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	LicensePlate string          `json:"license_plate"`
	Color        string          `json:"color"`
	Seats        int             `json:"seats"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	Description  string          `json:"description"`
}

type availabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

func (h *VehicleHandler) RegisterVehicle(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	var req registerVehicleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	vehicle, err := h.vehicles.RegisterVehicle(r.Context(), caller.UserID, domain.VehicleParams{
		Brand:        req.Brand,
		Model:        req.Model,
		Year:         req.Year,
		LicensePlate: req.LicensePlate,
		Color:        req.Color,
		Seats:        req.Seats,
		DailyRate:    req.DailyRate,
		Description:  req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

func (h *VehicleHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.vehicles.GetVehicle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (h *VehicleHandler) ListMyVehicles(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	vehicles, err := h.vehicles.ListOwnerVehicles(r.Context(), caller.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if vehicles == nil {
		vehicles = []domain.Vehicle{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"vehicles": vehicles})
}

// CheckAvailability answers GET /vehicles/{id}/availability?start=..&end=..
func (h *VehicleHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := utils.ParseDateTime(q.Get("start"))
	if err != nil {
		badRequest(w, r, "start: %v", err)
		return
	}
	end, err := utils.ParseDateTime(q.Get("end"))
	if err != nil {
		badRequest(w, r, "end: %v", err)
		return
	}
	result, err := h.availability.Check(r.Context(), mux.Vars(r)["id"], start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if result.Conflicts == nil {
		result.Conflicts = []domain.DateRange{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *VehicleHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	var req availabilityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	vehicle, err := h.vehicles.SetAvailability(r.Context(), caller.UserID, mux.Vars(r)["id"], req.IsAvailable)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (h *VehicleHandler) VerifyVehicle(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	vehicle, err := h.vehicles.VerifyVehicle(r.Context(), caller.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}
