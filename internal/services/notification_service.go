package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// List returns the user's notifications, newest first, with the unread total.
func (s *NotificationService) List(ctx context.Context, userID string, skip, limit int) (*models.NotificationList, error) {
	if limit <= 0 || limit > models.MaxPageLimit {
		limit = models.DefaultPageLimit
	}
	if skip < 0 {
		skip = 0
	}

	out := &models.NotificationList{Notifications: []models.Notification{}}
	db := s.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Offset(skip).Limit(limit).
		Find(&out.Notifications).Error; err != nil {
		return nil, err
	}

	count, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	out.UnreadCount = count
	return out, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one of the user's notifications read. Other users' notifications are not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (*models.Notification, error) {
	var n models.Notification
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !n.IsRead {
		if err := s.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", n.ID).Update("is_read", true).Error; err != nil {
			return nil, err
		}
		n.IsRead = true
	}
	return &n, nil
}

// MarkAllRead returns how many notifications changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// notify inserts one notification inside the caller's transaction. The
// counter is recorded once that transaction commits.
func notify(tx *gorm.DB, n *models.Notification) error {
	if err := tx.Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	txMetricsOf(tx).notification(n.Kind)
	return nil
}

// notifyAdmins sends a copy of n to every admin and returns how many were sent.
func notifyAdmins(tx *gorm.DB, n models.Notification) (int, error) {
	var adminIDs []string
	if err := tx.Model(&models.User{}).Where("is_admin = ?", true).Order("created_at").Pluck("id", &adminIDs).Error; err != nil {
		return 0, err
	}
	for _, id := range adminIDs {
		admin := n
		admin.ID = ""
		admin.UserID = id
		if err := notify(tx, &admin); err != nil {
			return 0, err
		}
	}
	return len(adminIDs), nil
}

// notifyMentions notifies every existing user mentioned in text once. authorID
// and the ids in skip are never notified.
func notifyMentions(tx *gorm.DB, text, authorID, authorName, where string, skip map[string]bool, questionID, answerID *string) error {
	names := extractMentions(text)
	if len(names) == 0 {
		return nil
	}

	var users []models.User
	if err := tx.Where("LOWER(username) IN ?", names).Find(&users).Error; err != nil {
		return err
	}
	for _, u := range users {
		if u.ID == authorID || skip[u.ID] {
			continue
		}
		if err := notify(tx, &models.Notification{
			UserID:     u.ID,
			Kind:       models.NotifyMention,
			Title:      "You were mentioned",
			Message:    fmt.Sprintf("%s mentioned you in %s", authorName, where),
			QuestionID: questionID,
			AnswerID:   answerID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// announceQuestion runs the fan-out for a question that just became visible.
func announceQuestion(tx *gorm.DB, q *models.Question) error {
	where := fmt.Sprintf("a question: %s", q.Title)
	return notifyMentions(tx, q.Title+" "+q.Body, q.AuthorID, q.Author.Username, where, nil, &q.ID, nil)
}

// announceAnswer runs the fan-out for an answer that just became visible: the
// question owner hears about it, then anyone mentioned who is not the owner.
// Answers under a question still held for review stay silent until
// announceQuestionAnswers runs on its approval.
func announceAnswer(tx *gorm.DB, a *models.Answer, q *models.Question) error {
	if q.Status != models.StatusApproved {
		return nil
	}
	skip := map[string]bool{}
	if q.AuthorID != a.AuthorID {
		if err := notify(tx, &models.Notification{
			UserID:     q.AuthorID,
			Kind:       models.NotifyAnswer,
			Title:      "New Answer",
			Message:    fmt.Sprintf("%s answered your question: %s", a.Author.Username, q.Title),
			QuestionID: &q.ID,
			AnswerID:   &a.ID,
		}); err != nil {
			return err
		}
		skip[q.AuthorID] = true
	}
	where := fmt.Sprintf("an answer to: %s", q.Title)
	return notifyMentions(tx, a.Body, a.AuthorID, a.Author.Username, where, skip, &q.ID, &a.ID)
}

// announceQuestionAnswers announces the approved answers posted while q was
// held for review, oldest first.
func announceQuestionAnswers(tx *gorm.DB, q *models.Question) error {
	var answers []models.Answer
	if err := tx.Preload("Author").
		Where("question_id = ? AND status = ?", q.ID, models.StatusApproved).
		Order("created_at").Order("id").
		Find(&answers).Error; err != nil {
		return err
	}
	for i := range answers {
		if err := announceAnswer(tx, &answers[i], q); err != nil {
			return err
		}
	}
	return nil
}
