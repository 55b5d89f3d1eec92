package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/middleware"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/services"
)

type TagHandler struct {
	tagService *services.TagService
	logger     *slog.Logger
}

func NewTagHandler(tagService *services.TagService, logger *slog.Logger) *TagHandler {
	return &TagHandler{tagService: tagService, logger: logger}
}

func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagService.List(r.Context(), middleware.GetViewer(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to list tags")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(tags))
}

func (h *TagHandler) SuggestTags(w http.ResponseWriter, r *http.Request) {
	names, err := h.tagService.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to suggest tags")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(names))
}
