package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Username     string    `json:"username" gorm:"size:30;not null;uniqueIndex"`
	Email        string    `json:"email" gorm:"size:254;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"not null"`
	IsAdmin      bool      `json:"is_admin" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// Summary is the public projection embedded in questions, answers and moderation views.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type SignupRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=30,username"`
	Email          string `json:"email" validate:"required,email,max=254"`
	Password       string `json:"password" validate:"required,min=6,max=72"`
	RecaptchaToken string `json:"recaptcha_token"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type ProfileResponse struct {
	User          User  `json:"user"`
	QuestionCount int64 `json:"question_count"`
	AnswerCount   int64 `json:"answer_count"`
}

func (r *SignupRequest) Validate() map[string]string {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validationErrors(r)
}

func (r *LoginRequest) Validate() map[string]string {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validationErrors(r)
}

// Viewer identifies the caller of an operation. The zero value is an anonymous caller.
type Viewer struct {
	ID       string
	Username string
	IsAdmin  bool
}

func (v Viewer) Authenticated() bool {
	return v.ID != ""
}

// CanSee applies the visibility rule: admins see everything, others only approved content.
func (v Viewer) CanSee(status ContentStatus) bool {
	return v.IsAdmin || status == StatusApproved
}
