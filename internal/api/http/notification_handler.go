package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/service"
)

type NotificationHandler struct {
	notifications service.NotificationService
}

func NewNotificationHandler(notifications service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	page, pageSize, err := parsePaging(r, 20)
	if err != nil {
		writeError(w, r, err)
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"
	notes, total, err := h.notifications.GetNotifications(r.Context(), caller.UserID, unreadOnly, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notes, "total": total, "page": page})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	count, err := h.notifications.UnreadCount(r.Context(), caller.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	if err := h.notifications.MarkAsRead(r.Context(), caller.UserID, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	n, err := h.notifications.MarkAllAsRead(r.Context(), caller.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}
