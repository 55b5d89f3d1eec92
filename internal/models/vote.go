package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// SubjectType names the kind of content a vote or moderation record points at.
type SubjectType string

const (
	SubjectQuestion SubjectType = "question"
	SubjectAnswer   SubjectType = "answer"
)

// Vote is unique per (subject, user); the composite index also serves tally queries.
type Vote struct {
	ID          string        `json:"id" gorm:"primaryKey;size:36"`
	SubjectType SubjectType   `json:"subject_type" gorm:"size:16;not null;uniqueIndex:idx_votes_subject_user,priority:1"`
	SubjectID   string        `json:"subject_id" gorm:"size:36;not null;uniqueIndex:idx_votes_subject_user,priority:2"`
	UserID      string        `json:"user_id" gorm:"size:36;not null;uniqueIndex:idx_votes_subject_user,priority:3;index"`
	User        User          `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Direction   VoteDirection `json:"direction" gorm:"size:8;not null"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

type VoteRequest struct {
	VoteType VoteDirection `json:"vote_type" validate:"required,oneof=up down"`
}

func (r *VoteRequest) Validate() map[string]string {
	return validationErrors(r)
}

// VoteResult reports the subject's tally after a vote and the caller's resulting vote.
type VoteResult struct {
	SubjectID string        `json:"subject_id"`
	Tally     int64         `json:"tally"`
	UserVote  VoteDirection `json:"user_vote,omitempty"`
}
