package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/middleware"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/services"
)

type QuestionHandler struct {
	questionService *services.QuestionService
	voteService     *services.VoteService
	logger          *slog.Logger
}

func NewQuestionHandler(questionService *services.QuestionService, voteService *services.VoteService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		voteService:     voteService,
		logger:          logger,
	}
}

func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	question, err := h.questionService.Create(r.Context(), middleware.GetViewer(r.Context()), &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to create question")
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(question))
}

func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := models.ListQuestionsQuery{
		Filter: models.QuestionFilter(q.Get("filter_type")),
		Search: q.Get("search"),
		Tag:    q.Get("tag"),
	}

	errors := map[string]string{}
	var ok bool
	if query.Skip, ok = queryInt(r, "skip", 0); !ok {
		errors["skip"] = "Skip must be a non-negative integer"
	}
	if query.Limit, ok = queryInt(r, "limit", models.DefaultPageLimit); !ok {
		errors["limit"] = "Limit must be a non-negative integer"
	}
	if len(errors) == 0 {
		errors = query.Validate()
	}
	if len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	questions, err := h.questionService.List(r.Context(), middleware.GetViewer(r.Context()), &query)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to list questions")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(questions))
}

func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionId")

	question, err := h.questionService.Get(r.Context(), middleware.GetViewer(r.Context()), questionID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to get question")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(question))
}

// ListAnswers returns only the ordered, visible answers of a question.
func (h *QuestionHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionId")

	question, err := h.questionService.Get(r.Context(), middleware.GetViewer(r.Context()), questionID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to list answers")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(question.Answers))
}

func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionId")

	if err := h.questionService.Delete(r.Context(), middleware.GetViewer(r.Context()), questionID); err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to delete question")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{
		"message": "Question deleted",
	}))
}

func (h *QuestionHandler) VoteQuestion(w http.ResponseWriter, r *http.Request) {
	castVote(w, r, h.voteService, h.logger, models.SubjectQuestion, chi.URLParam(r, "questionId"))
}

// castVote is shared by the question and answer vote endpoints.
func castVote(w http.ResponseWriter, r *http.Request, votes *services.VoteService, logger *slog.Logger, subject models.SubjectType, subjectID string) {
	var req models.VoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	result, err := votes.Vote(r.Context(), middleware.GetViewer(r.Context()), subject, subjectID, req.VoteType)
	if err != nil {
		writeServiceError(w, r, logger, err, "Failed to record vote")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(result))
}
