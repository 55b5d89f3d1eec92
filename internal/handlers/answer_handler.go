package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/middleware"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/services"
)

type AnswerHandler struct {
	answerService *services.AnswerService
	voteService   *services.VoteService
	logger        *slog.Logger
}

func NewAnswerHandler(answerService *services.AnswerService, voteService *services.VoteService, logger *slog.Logger) *AnswerHandler {
	return &AnswerHandler{
		answerService: answerService,
		voteService:   voteService,
		logger:        logger,
	}
}

// CreateAnswer serves both POST /answers and POST /questions/{questionId}/answers;
// the path parameter wins over a question_id in the body.
func (h *AnswerHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if questionID := chi.URLParam(r, "questionId"); questionID != "" {
		req.QuestionID = questionID
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	answer, err := h.answerService.Create(r.Context(), middleware.GetViewer(r.Context()), &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to create answer")
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(answer))
}

func (h *AnswerHandler) AcceptAnswer(w http.ResponseWriter, r *http.Request) {
	answerID := chi.URLParam(r, "answerId")

	answer, err := h.answerService.Accept(r.Context(), middleware.GetViewer(r.Context()), answerID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to accept answer")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(answer))
}

func (h *AnswerHandler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	answerID := chi.URLParam(r, "answerId")

	if err := h.answerService.Delete(r.Context(), middleware.GetViewer(r.Context()), answerID); err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to delete answer")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{
		"message": "Answer deleted",
	}))
}

func (h *AnswerHandler) VoteAnswer(w http.ResponseWriter, r *http.Request) {
	castVote(w, r, h.voteService, h.logger, models.SubjectAnswer, chi.URLParam(r, "answerId"))
}
