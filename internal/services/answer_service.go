package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

type AnswerService struct {
	db         *gorm.DB
	moderation *ModerationService
	logger     *slog.Logger
}

func NewAnswerService(db *gorm.DB, moderation *ModerationService, logger *slog.Logger) *AnswerService {
	return &AnswerService{db: db, moderation: moderation, logger: logger}
}

// Create posts a validated answer under a visible question. The question owner
// and mentioned users are notified once both the answer and its question are
// approved.
func (s *AnswerService) Create(ctx context.Context, viewer models.Viewer, req *models.CreateAnswerRequest) (*models.AnswerView, error) {
	terms := s.moderation.Screen(req.Body)
	status := models.StatusApproved
	if len(terms) > 0 {
		status = models.StatusPending
	}

	var a models.Answer
	var flagged *models.FlaggedContent

	txCtx, counters := withTxMetrics(ctx)
	err := s.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		q, err := loadVisibleQuestion(tx, viewer, req.QuestionID, false)
		if err != nil {
			return err
		}
		author, err := loadUser(tx, viewer.ID)
		if err != nil {
			return err
		}

		a = models.Answer{
			QuestionID: q.ID,
			Body:       req.Body,
			AuthorID:   author.ID,
			Status:     status,
		}
		if err := tx.Create(&a).Error; err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		a.Author = *author

		if status == models.StatusPending {
			flagged, err = s.moderation.flag(tx, flaggedItem{
				contentType: models.SubjectAnswer,
				contentID:   a.ID,
				questionID:  q.ID,
				title:       "Answer to: " + q.Title,
				text:        a.Body,
				author:      *author,
				terms:       terms,
			})
			return err
		}
		return announceAnswer(tx, &a, q)
	})
	if err != nil {
		return nil, err
	}

	counters.flush()
	s.moderation.alert(ctx, flagged)
	s.logger.Info("answer created", "answer_id", a.ID, "question_id", a.QuestionID, "status", a.Status)

	view := models.NewAnswerView(&a, 0, "")
	return &view, nil
}

// Accept marks the answer as the accepted one for its question. Only the
// question's author may accept; siblings are unaccepted in the same transaction,
// with the question row locked so concurrent accepts serialize.
func (s *AnswerService) Accept(ctx context.Context, viewer models.Viewer, answerID string) (*models.AnswerView, error) {
	var view models.AnswerView

	txCtx, counters := withTxMetrics(ctx)
	err := s.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		a, _, err := loadVisibleAnswer(tx, viewer, answerID)
		if err != nil {
			return err
		}
		q, err := loadVisibleQuestion(tx, viewer, a.QuestionID, true)
		if err != nil {
			return err
		}
		if q.AuthorID != viewer.ID {
			return ErrForbidden
		}

		if err := tx.Model(&models.Answer{}).
			Where("question_id = ? AND id <> ? AND is_accepted = ?", q.ID, a.ID, true).
			Update("is_accepted", false).Error; err != nil {
			return err
		}
		wasAccepted := a.IsAccepted
		if !wasAccepted {
			if err := tx.Model(&models.Answer{}).Where("id = ?", a.ID).Update("is_accepted", true).Error; err != nil {
				return err
			}
			a.IsAccepted = true
		}
		if !q.IsAnswered {
			if err := tx.Model(&models.Question{}).Where("id = ?", q.ID).Update("is_answered", true).Error; err != nil {
				return err
			}
		}

		if !wasAccepted && a.AuthorID != viewer.ID {
			if err := notify(tx, &models.Notification{
				UserID:     a.AuthorID,
				Kind:       models.NotifyAccepted,
				Title:      "Answer Accepted",
				Message:    fmt.Sprintf("Your answer to \"%s\" was accepted", q.Title),
				QuestionID: &q.ID,
				AnswerID:   &a.ID,
			}); err != nil {
				return err
			}
		}

		author, err := loadUser(tx, a.AuthorID)
		if err != nil {
			return err
		}
		a.Author = *author
		tally, err := voteTally(tx, models.SubjectAnswer, a.ID)
		if err != nil {
			return err
		}
		mine, err := userVotes(tx, viewer.ID, models.SubjectAnswer, []string{a.ID})
		if err != nil {
			return err
		}
		view = models.NewAnswerView(a, tally, mine[a.ID])
		return nil
	})
	if err != nil {
		return nil, err
	}

	counters.flush()
	s.logger.Info("answer accepted", "answer_id", answerID, "question_id", view.QuestionID, "by", viewer.ID)
	return &view, nil
}

// Delete removes an answer with its votes, review records and notifications.
// Removing the accepted answer leaves the question unanswered.
func (s *AnswerService) Delete(ctx context.Context, viewer models.Viewer, answerID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.Answer
		err := tx.Where("id = ?", answerID).First(&a).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if a.AuthorID != viewer.ID && !viewer.IsAdmin {
			if !viewer.CanSee(a.Status) {
				return ErrNotFound
			}
			return ErrForbidden
		}

		if err := deleteAnswerRefs(tx, []string{a.ID}); err != nil {
			return err
		}
		if err := tx.Delete(&models.Answer{}, "id = ?", a.ID).Error; err != nil {
			return err
		}
		if a.IsAccepted {
			return tx.Model(&models.Question{}).Where("id = ?", a.QuestionID).Update("is_answered", false).Error
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("answer deleted", "answer_id", answerID, "by", viewer.ID)
	return nil
}

// sortAnswers orders accepted first, then by tally descending, then oldest first.
func sortAnswers(views []models.AnswerView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.IsAccepted != b.IsAccepted {
			return a.IsAccepted
		}
		if a.VoteTally != b.VoteTally {
			return a.VoteTally > b.VoteTally
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
