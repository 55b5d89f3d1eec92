package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Answer struct {
	ID         string        `json:"id" gorm:"primaryKey;size:36"`
	QuestionID string        `json:"question_id" gorm:"size:36;not null;index"`
	Body       string        `json:"body" gorm:"type:text;not null"`
	AuthorID   string        `json:"author_id" gorm:"size:36;not null;index"`
	Author     User          `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	IsAccepted bool          `json:"is_accepted" gorm:"not null"`
	Status     ContentStatus `json:"status" gorm:"size:16;not null;index"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

type CreateAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Body       string `json:"body" validate:"required,min=20"`
}

func (r *CreateAnswerRequest) Validate() map[string]string {
	r.QuestionID = strings.TrimSpace(r.QuestionID)
	r.Body = strings.TrimSpace(r.Body)
	return validationErrors(r)
}

// AnswerView is the projection of an answer inside a question detail.
type AnswerView struct {
	ID         string        `json:"id"`
	QuestionID string        `json:"question_id"`
	Body       string        `json:"body"`
	Status     ContentStatus `json:"status"`
	IsAccepted bool          `json:"is_accepted"`
	Author     UserSummary   `json:"author"`
	VoteTally  int64         `json:"vote_tally"`
	UserVote   VoteDirection `json:"user_vote,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func NewAnswerView(a *Answer, tally int64, userVote VoteDirection) AnswerView {
	return AnswerView{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		Body:       a.Body,
		Status:     a.Status,
		IsAccepted: a.IsAccepted,
		Author:     a.Author.Summary(),
		VoteTally:  tally,
		UserVote:   userVote,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}
