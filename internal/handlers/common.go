package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/services"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return false
	}
	return true
}

// writeServiceError maps service sentinels onto status codes. Anything else is
// logged and reported as a 500 with the fallback message.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Not found"))
	case errors.Is(err, services.ErrForbidden):
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse("You are not allowed to do that"))
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid email or password"))
	case errors.Is(err, services.ErrEmailExists):
		writeJSON(w, http.StatusConflict, models.NewErrorResponse("Email already registered"))
	case errors.Is(err, services.ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, models.NewErrorResponse("Username already taken"))
	case errors.Is(err, services.ErrAlreadyReviewed):
		writeJSON(w, http.StatusConflict, models.NewErrorResponse("Content has already been reviewed"))
	case errors.Is(err, services.ErrCaptchaFailed):
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("reCAPTCHA verification failed"))
	default:
		logger.ErrorContext(r.Context(), fallback,
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse(fallback))
	}
}

// queryInt parses a non-negative integer query parameter. Absent means def.
func queryInt(r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
