package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/middleware"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/services"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
	logger            *slog.Logger
}

func NewModerationHandler(moderationService *services.ModerationService, logger *slog.Logger) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService, logger: logger}
}

func (h *ModerationHandler) ListFlagged(w http.ResponseWriter, r *http.Request) {
	items, err := h.moderationService.ListFlagged(r.Context(), middleware.GetViewer(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to list flagged content")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(items))
}

func (h *ModerationHandler) Review(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "moderationId")

	var req models.ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	result, err := h.moderationService.Decide(r.Context(), middleware.GetViewer(r.Context()), recordID, &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to review content")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(result))
}

func (h *ModerationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.moderationService.Stats(r.Context(), middleware.GetViewer(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load moderation stats")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(stats))
}

func (h *ModerationHandler) UserFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := h.moderationService.UserFlags(r.Context(), middleware.GetViewer(r.Context()), chi.URLParam(r, "userId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load user flags")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(flags))
}
