package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/metrics"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

// CaptchaVerifier checks a client captcha token. RecaptchaVerifier implements it.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string, remoteIP string) (bool, string, error)
}

type UserService struct {
	db          *gorm.DB
	adminEmails map[string]bool
	captcha     CaptchaVerifier
	logger      *slog.Logger
}

// NewUserService creates the account service. captcha may be nil to skip verification.
func NewUserService(db *gorm.DB, adminEmails []string, captcha CaptchaVerifier, logger *slog.Logger) *UserService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = true
	}
	return &UserService{
		db:          db,
		adminEmails: admins,
		captcha:     captcha,
		logger:      logger,
	}
}

// Signup expects a validated request.
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest, remoteIP string) (*models.User, error) {
	if s.captcha != nil {
		ok, reason, err := s.captcha.Verify(ctx, req.RecaptchaToken, remoteIP)
		if err != nil {
			return nil, fmt.Errorf("verify captcha: %w", err)
		}
		if !ok {
			s.logger.Info("signup captcha rejected", "ip", remoteIP, "reason", reason)
			metrics.AuthAttempts.WithLabelValues("signup", "captcha_failed").Inc()
			return nil, ErrCaptchaFailed
		}
	}

	if err := s.checkAvailable(ctx, req.Email, req.Username); err != nil {
		metrics.AuthAttempts.WithLabelValues("signup", "conflict").Inc()
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		IsAdmin:      s.adminEmails[req.Email],
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent signup; report which field collided.
			if err := s.checkAvailable(ctx, req.Email, req.Username); err != nil {
				return nil, err
			}
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("signup", "ok").Inc()
	s.logger.Info("user signed up", "user_id", user.ID, "username", user.Username, "admin", user.IsAdmin)
	return user, nil
}

func (s *UserService) checkAvailable(ctx context.Context, email, username string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailExists
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = ?", strings.ToLower(username)).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	return nil
}

func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("login", "failed").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failed").Inc()
		return nil, ErrInvalidCredentials
	}

	metrics.AuthAttempts.WithLabelValues("login", "ok").Inc()
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Profile returns the user with counts of the content they authored.
func (s *UserService) Profile(ctx context.Context, id string) (*models.ProfileResponse, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &models.ProfileResponse{User: *user}
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Question{}).Where("author_id = ?", id).Count(&out.QuestionCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Answer{}).Where("author_id = ?", id).Count(&out.AnswerCount).Error; err != nil {
		return nil, err
	}
	return out, nil
}
