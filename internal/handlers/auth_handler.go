package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/middleware"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/services"
)

type AuthHandler struct {
	userService   *services.UserService
	jwtSecret     string
	jwtExpiration time.Duration
	logger        *slog.Logger
}

func NewAuthHandler(userService *services.UserService, jwtSecret string, jwtExpiration time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userService:   userService,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		logger:        logger,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	user, err := h.userService.Signup(r.Context(), &req, middleware.ClientIP(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to create user")
		return
	}

	token, err := h.generateToken(user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(models.AuthResponse{
		Token: token,
		User:  *user,
	}))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Login failed")
		return
	}

	token, err := h.generateToken(user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.AuthResponse{
		Token: token,
		User:  *user,
	}))
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	profile, err := h.userService.Profile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(profile))
}

func (h *AuthHandler) generateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(h.jwtExpiration).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}
