package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationKind string

const (
	NotifyAnswer     NotificationKind = "answer"
	NotifyMention    NotificationKind = "mention"
	NotifyModeration NotificationKind = "moderation"
	NotifyAccepted   NotificationKind = "accepted"
	NotifyReview     NotificationKind = "review"
)

type Notification struct {
	ID         string           `json:"id" gorm:"primaryKey;size:36"`
	UserID     string           `json:"user_id" gorm:"size:36;not null;index:idx_notifications_user_read,priority:1"`
	User       User             `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Kind       NotificationKind `json:"type" gorm:"size:16;not null"`
	Title      string           `json:"title" gorm:"size:200;not null"`
	Message    string           `json:"message" gorm:"type:text;not null"`
	IsRead     bool             `json:"is_read" gorm:"not null;index:idx_notifications_user_read,priority:2"`
	QuestionID *string          `json:"question_id,omitempty" gorm:"size:36;index"`
	AnswerID   *string          `json:"answer_id,omitempty" gorm:"size:36;index"`
	CreatedAt  time.Time        `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unread_count"`
}
