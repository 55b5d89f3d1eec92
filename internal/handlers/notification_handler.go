package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/middleware"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	logger              *slog.Logger
}

func NewNotificationHandler(notificationService *services.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, logger: logger}
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	skip, okSkip := queryInt(r, "skip", 0)
	limit, okLimit := queryInt(r, "limit", models.DefaultPageLimit)
	if !okSkip || !okLimit {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("skip and limit must be non-negative integers"))
		return
	}

	list, err := h.notificationService.List(r.Context(), userID, skip, limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to list notifications")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(list))
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationService.UnreadCount(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to count notifications")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]int64{
		"unread_count": count,
	}))
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationId")

	n, err := h.notificationService.MarkRead(r.Context(), middleware.GetUserID(r.Context()), notificationID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to mark notification read")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(n))
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.notificationService.MarkAllRead(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to mark notifications read")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]int64{
		"updated": updated,
	}))
}
