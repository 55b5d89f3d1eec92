package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModerationRecord exists only for content the keyword filter flagged.
type ModerationRecord struct {
	ID           string        `json:"id" gorm:"primaryKey;size:36"`
	ContentType  SubjectType   `json:"content_type" gorm:"size:16;not null;index:idx_moderation_content,priority:1"`
	ContentID    string        `json:"content_id" gorm:"size:36;not null;index:idx_moderation_content,priority:2"`
	FlaggedTerms string        `json:"flagged_terms" gorm:"type:text;not null"`
	Decision     ContentStatus `json:"decision" gorm:"size:16;not null;index"`
	ReviewerID   *string       `json:"reviewer_id,omitempty" gorm:"size:36"`
	Notes        string        `json:"notes" gorm:"type:text"`
	CreatedAt    time.Time     `json:"created_at" gorm:"index"`
	ReviewedAt   *time.Time    `json:"reviewed_at,omitempty"`
}

func (m *ModerationRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Terms splits the stored comma-joined flagged terms.
func (m *ModerationRecord) Terms() []string {
	if m.FlaggedTerms == "" {
		return []string{}
	}
	return strings.Split(m.FlaggedTerms, ",")
}

type ReviewRequest struct {
	Decision ContentStatus `json:"decision" validate:"required,oneof=approved rejected"`
	Notes    string        `json:"notes" validate:"max=2000"`
}

func (r *ReviewRequest) Validate() map[string]string {
	r.Notes = strings.TrimSpace(r.Notes)
	return validationErrors(r)
}

// FlaggedContent is one entry of the admin review queue.
type FlaggedContent struct {
	ModerationID string      `json:"moderation_id"`
	ContentType  SubjectType `json:"content_type"`
	ContentID    string      `json:"content_id"`
	ContentTitle string      `json:"content_title"`
	ContentText  string      `json:"content_text"`
	Author       UserSummary `json:"author"`
	FlaggedWords []string    `json:"flagged_words"`
	CreatedAt    time.Time   `json:"created_at"`
}

type ModerationStats struct {
	Pending   int64 `json:"pending"`
	Approved  int64 `json:"approved"`
	Rejected  int64 `json:"rejected"`
	Total     int64 `json:"total"`
	Users     int64 `json:"users"`
	Questions int64 `json:"questions"`
	Answers   int64 `json:"answers"`
}

// ReviewResult is returned after an admin decides a record.
type ReviewResult struct {
	Record      ModerationRecord `json:"record"`
	ContentType SubjectType      `json:"content_type"`
	ContentID   string           `json:"content_id"`
	Status      ContentStatus    `json:"status"`
}
