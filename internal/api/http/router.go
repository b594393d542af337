package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rentacar-backend/internal/security"
)

// Handlers groups every HTTP handler served by the API.
type Handlers struct {
	Rentals       *RentalHandler
	Vehicles      *VehicleHandler
	Reviews       *ReviewHandler
	Notifications *NotificationHandler
}

// NewRouter registers all routes under /api/v1. Route names key the
// security levels in config.EndpointSecurityConfig.
func NewRouter(h Handlers, tm security.TokenManager) *mux.Router {
	r := mux.NewRouter()
	r.Use(recoveryMiddleware, loggingMiddleware)

	r.HandleFunc("/health", health).Methods(http.MethodGet).Name("Health")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(NewAuthMiddleware(tm).Handler)

	api.HandleFunc("/vehicles", h.Vehicles.RegisterVehicle).Methods(http.MethodPost).Name("RegisterVehicle")
	api.HandleFunc("/vehicles/mine", h.Vehicles.ListMyVehicles).Methods(http.MethodGet).Name("ListMyVehicles")
	api.HandleFunc("/vehicles/{id}", h.Vehicles.GetVehicle).Methods(http.MethodGet).Name("GetVehicle")
	api.HandleFunc("/vehicles/{id}/availability", h.Vehicles.CheckAvailability).Methods(http.MethodGet).Name("CheckAvailability")
	api.HandleFunc("/vehicles/{id}/availability", h.Vehicles.SetAvailability).Methods(http.MethodPut).Name("SetVehicleAvailability")
	api.HandleFunc("/vehicles/{id}/verify", h.Vehicles.VerifyVehicle).Methods(http.MethodPost).Name("VerifyVehicle")
	api.HandleFunc("/vehicles/{id}/reviews", h.Reviews.ListVehicleReviews).Methods(http.MethodGet).Name("ListVehicleReviews")

	api.HandleFunc("/rentals", h.Rentals.CreateRental).Methods(http.MethodPost).Name("CreateRental")
	api.HandleFunc("/rentals", h.Rentals.ListMyRentals).Methods(http.MethodGet).Name("ListMyRentals")
	api.HandleFunc("/rentals/{id}", h.Rentals.GetRental).Methods(http.MethodGet).Name("GetRental")
	api.HandleFunc("/rentals/{id}/counteroffer", h.Rentals.SubmitCounteroffer).Methods(http.MethodPost).Name("SubmitCounteroffer")
	api.HandleFunc("/rentals/{id}/counteroffer/accept", h.Rentals.AcceptCounteroffer).Methods(http.MethodPost).Name("AcceptCounteroffer")
	api.HandleFunc("/rentals/{id}/counteroffer/reject", h.Rentals.RejectCounteroffer).Methods(http.MethodPost).Name("RejectCounteroffer")
	api.HandleFunc("/rentals/{id}/verify-payment", h.Rentals.VerifyPayment).Methods(http.MethodPost).Name("VerifyPayment")
	api.HandleFunc("/rentals/{id}/extend", h.Rentals.ExtendRental).Methods(http.MethodPost).Name("ExtendRental")
	api.HandleFunc("/rentals/{id}/complete", h.Rentals.CompleteRental).Methods(http.MethodPost).Name("CompleteRental")
	api.HandleFunc("/rentals/{id}/cancel", h.Rentals.CancelRental).Methods(http.MethodPost).Name("CancelRental")
	api.HandleFunc("/rentals/{id}/reviews/vehicle", h.Reviews.CreateVehicleReview).Methods(http.MethodPost).Name("CreateVehicleReview")
	api.HandleFunc("/rentals/{id}/reviews/renter", h.Reviews.CreateRenterReview).Methods(http.MethodPost).Name("CreateRenterReview")
	api.HandleFunc("/rentals/{id}/reports", h.Reviews.CreateReport).Methods(http.MethodPost).Name("CreateReport")

	api.HandleFunc("/reports/{id}/process", h.Reviews.ProcessReport).Methods(http.MethodPost).Name("ProcessReport")

	api.HandleFunc("/notifications", h.Notifications.ListNotifications).Methods(http.MethodGet).Name("ListNotifications")
	api.HandleFunc("/notifications/unread-count", h.Notifications.UnreadCount).Methods(http.MethodGet).Name("UnreadCount")
	api.HandleFunc("/notifications/read-all", h.Notifications.MarkAllRead).Methods(http.MethodPost).Name("MarkAllNotificationsRead")
	api.HandleFunc("/notifications/{id}/read", h.Notifications.MarkRead).Methods(http.MethodPost).Name("MarkNotificationRead")

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
