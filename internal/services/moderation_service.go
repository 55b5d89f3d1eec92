package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/metrics"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

// ModerationService screens new content, keeps the review queue and applies
// admin decisions. Rejection is terminal: decided records cannot be decided again.
type ModerationService struct {
	db      *gorm.DB
	filter  *ContentFilter
	actions *ModerationActions
	alerter Alerter
	logger  *slog.Logger
}

// NewModerationService wires the review workflow. actions and alerter may be nil.
func NewModerationService(db *gorm.DB, filter *ContentFilter, actions *ModerationActions, alerter Alerter, logger *slog.Logger) *ModerationService {
	return &ModerationService{
		db:      db,
		filter:  filter,
		actions: actions,
		alerter: alerter,
		logger:  logger,
	}
}

// Screen returns the banned terms found in text; none means the content is approved.
func (s *ModerationService) Screen(text string) []string {
	return s.filter.Scan(text)
}

type flaggedItem struct {
	contentType models.SubjectType
	contentID   string
	questionID  string
	title       string
	text        string
	author      models.User
	terms       []string
}

// flag opens a review record for item and tells every admin, inside tx.
func (s *ModerationService) flag(tx *gorm.DB, item flaggedItem) (*models.FlaggedContent, error) {
	rec := models.ModerationRecord{
		ContentType:  item.contentType,
		ContentID:    item.contentID,
		FlaggedTerms: strings.Join(item.terms, ","),
		Decision:     models.StatusPending,
	}
	if err := tx.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create moderation record: %w", err)
	}

	n := models.Notification{
		Kind:  models.NotifyModeration,
		Title: "Content Flagged for Review",
		Message: fmt.Sprintf("%s by %s was flagged for: %s",
			contentLabel(item.contentType), item.author.Username, strings.Join(item.terms, ", ")),
		QuestionID: &item.questionID,
	}
	if item.contentType == models.SubjectAnswer {
		n.AnswerID = &item.contentID
	}
	admins, err := notifyAdmins(tx, n)
	if err != nil {
		return nil, err
	}

	txMetricsOf(tx).flag(item.contentType)
	s.logger.Info("content flagged",
		"content_type", item.contentType,
		"content_id", item.contentID,
		"terms", item.terms,
		"admins_notified", admins,
	)

	return &models.FlaggedContent{
		ModerationID: rec.ID,
		ContentType:  rec.ContentType,
		ContentID:    rec.ContentID,
		ContentTitle: item.title,
		ContentText:  item.text,
		Author:       item.author.Summary(),
		FlaggedWords: item.terms,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

// alert emails admins about a flagged item after its transaction committed.
func (s *ModerationService) alert(ctx context.Context, item *models.FlaggedContent) {
	if s.alerter == nil || item == nil {
		return
	}

	var emails []string
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("is_admin = ?", true).Pluck("email", &emails).Error; err != nil {
		s.logger.Error("load admin emails", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.alerter.SendFlaggedContentAlert(ctx, emails, *item); err != nil {
		s.logger.Error("flagged content alert failed", "moderation_id", item.ModerationID, "error", err)
	}
}

// ListFlagged returns pending review items, newest first.
func (s *ModerationService) ListFlagged(ctx context.Context, viewer models.Viewer) ([]models.FlaggedContent, error) {
	if !viewer.IsAdmin {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	var recs []models.ModerationRecord
	if err := db.Where("decision = ?", models.StatusPending).
		Order("created_at DESC").Order("id DESC").
		Find(&recs).Error; err != nil {
		return nil, err
	}

	var questionIDs, answerIDs []string
	for _, r := range recs {
		if r.ContentType == models.SubjectQuestion {
			questionIDs = append(questionIDs, r.ContentID)
		} else {
			answerIDs = append(answerIDs, r.ContentID)
		}
	}

	answers := map[string]models.Answer{}
	if len(answerIDs) > 0 {
		var rows []models.Answer
		if err := db.Preload("Author").Where("id IN ?", answerIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, a := range rows {
			answers[a.ID] = a
			questionIDs = append(questionIDs, a.QuestionID)
		}
	}

	questions := map[string]models.Question{}
	if len(questionIDs) > 0 {
		var rows []models.Question
		if err := db.Preload("Author").Where("id IN ?", questionIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, q := range rows {
			questions[q.ID] = q
		}
	}

	out := make([]models.FlaggedContent, 0, len(recs))
	for _, r := range recs {
		item := models.FlaggedContent{
			ModerationID: r.ID,
			ContentType:  r.ContentType,
			ContentID:    r.ContentID,
			FlaggedWords: r.Terms(),
			CreatedAt:    r.CreatedAt,
		}
		switch r.ContentType {
		case models.SubjectQuestion:
			q, ok := questions[r.ContentID]
			if !ok {
				continue
			}
			item.ContentTitle = q.Title
			item.ContentText = q.Body
			item.Author = q.Author.Summary()
		case models.SubjectAnswer:
			a, ok := answers[r.ContentID]
			if !ok {
				continue
			}
			item.ContentTitle = "Answer to: " + questions[a.QuestionID].Title
			item.ContentText = a.Body
			item.Author = a.Author.Summary()
		}
		out = append(out, item)
	}
	return out, nil
}

// Decide applies an admin decision to a pending record and mirrors it onto the content.
func (s *ModerationService) Decide(ctx context.Context, viewer models.Viewer, recordID string, req *models.ReviewRequest) (*models.ReviewResult, error) {
	if !viewer.IsAdmin {
		return nil, ErrForbidden
	}

	var result models.ReviewResult
	var rejected *RejectedContent

	txCtx, counters := withTxMetrics(ctx)
	err := s.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		var rec models.ModerationRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", recordID).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if rec.Decision != models.StatusPending {
			return ErrAlreadyReviewed
		}

		c, err := loadReviewedContent(tx, rec)
		if err != nil {
			return err
		}
		if err := tx.Model(c.model).Where("id = ?", rec.ContentID).Update("status", req.Decision).Error; err != nil {
			return err
		}
		if c.answer == nil {
			c.question.Status = req.Decision
		}

		now := time.Now().UTC()
		rec.Decision = req.Decision
		rec.ReviewerID = &viewer.ID
		rec.Notes = req.Notes
		rec.ReviewedAt = &now
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}

		if req.Decision == models.StatusApproved {
			if err := c.announce(tx); err != nil {
				return err
			}
		} else {
			rejected = &RejectedContent{
				RecordID:     rec.ID,
				ContentType:  rec.ContentType,
				ContentID:    rec.ContentID,
				QuestionID:   c.question.ID,
				AuthorID:     c.authorID,
				Title:        c.title,
				Body:         c.body,
				FlaggedTerms: rec.Terms(),
				ReviewerID:   viewer.ID,
				Notes:        rec.Notes,
				RejectedAt:   now,
			}
		}

		if c.authorID != viewer.ID {
			if err := notify(tx, reviewNotification(rec, c)); err != nil {
				return err
			}
		}

		result = models.ReviewResult{
			Record:      rec,
			ContentType: rec.ContentType,
			ContentID:   rec.ContentID,
			Status:      req.Decision,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	counters.flush()
	metrics.ModerationDecisions.WithLabelValues(string(req.Decision)).Inc()
	s.logger.Info("moderation decision",
		"record_id", recordID,
		"decision", req.Decision,
		"reviewer_id", viewer.ID,
	)

	if rejected != nil {
		s.actions.StrikeAndArchive(ctx, *rejected)
	}
	return &result, nil
}

// reviewedContent is the question or answer behind a moderation record.
type reviewedContent struct {
	model    interface{} // empty model used to address the content's table
	question *models.Question
	answer   *models.Answer
	authorID string
	title    string
	body     string
}

func loadReviewedContent(tx *gorm.DB, rec models.ModerationRecord) (*reviewedContent, error) {
	switch rec.ContentType {
	case models.SubjectQuestion:
		var q models.Question
		if err := tx.Preload("Author").Where("id = ?", rec.ContentID).First(&q).Error; err != nil {
			return nil, notFound(err)
		}
		return &reviewedContent{model: &models.Question{}, question: &q, authorID: q.AuthorID, title: q.Title, body: q.Body}, nil
	case models.SubjectAnswer:
		var a models.Answer
		if err := tx.Preload("Author").Where("id = ?", rec.ContentID).First(&a).Error; err != nil {
			return nil, notFound(err)
		}
		var q models.Question
		if err := tx.Preload("Author").Where("id = ?", a.QuestionID).First(&q).Error; err != nil {
			return nil, notFound(err)
		}
		return &reviewedContent{model: &models.Answer{}, question: &q, answer: &a, authorID: a.AuthorID, title: "Answer to: " + q.Title, body: a.Body}, nil
	}
	return nil, ErrNotFound
}

// announce runs the notifications deferred while the content was pending. An
// approved question also announces the answers it collected while held.
func (c *reviewedContent) announce(tx *gorm.DB) error {
	if c.answer != nil {
		return announceAnswer(tx, c.answer, c.question)
	}
	if err := announceQuestion(tx, c.question); err != nil {
		return err
	}
	return announceQuestionAnswers(tx, c.question)
}

func reviewNotification(rec models.ModerationRecord, c *reviewedContent) *models.Notification {
	verb := "approved and is now visible"
	title := "Content Approved"
	if rec.Decision == models.StatusRejected {
		verb = "rejected by a moderator"
		title = "Content Rejected"
	}
	msg := fmt.Sprintf("Your %s \"%s\" was %s.", rec.ContentType, truncate(c.title, 80), verb)
	if rec.Notes != "" {
		msg += " Notes: " + rec.Notes
	}

	n := &models.Notification{
		UserID:     c.authorID,
		Kind:       models.NotifyReview,
		Title:      title,
		Message:    msg,
		QuestionID: &c.question.ID,
	}
	if c.answer != nil {
		n.AnswerID = &c.answer.ID
	}
	return n
}

// Stats counts records by decision plus site totals for the admin dashboard.
func (s *ModerationService) Stats(ctx context.Context, viewer models.Viewer) (*models.ModerationStats, error) {
	if !viewer.IsAdmin {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	var rows []struct {
		Decision models.ContentStatus
		N        int64
	}
	if err := db.Model(&models.ModerationRecord{}).
		Select("decision, COUNT(*) AS n").
		Group("decision").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	var out models.ModerationStats
	for _, r := range rows {
		switch r.Decision {
		case models.StatusPending:
			out.Pending = r.N
		case models.StatusApproved:
			out.Approved = r.N
		case models.StatusRejected:
			out.Rejected = r.N
		}
		out.Total += r.N
	}

	if err := db.Model(&models.User{}).Count(&out.Users).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Question{}).Count(&out.Questions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Answer{}).Count(&out.Answers).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// UserFlags returns the strike record for userID; users without strikes report zero.
func (s *ModerationService) UserFlags(ctx context.Context, viewer models.Viewer, userID string) (*models.UserFlag, error) {
	if !viewer.IsAdmin {
		return nil, ErrForbidden
	}

	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	if s.actions == nil || s.actions.Flags == nil {
		return &models.UserFlag{UserID: userID}, nil
	}
	flag, err := s.actions.Flags.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &models.UserFlag{UserID: userID}, nil
	}
	return flag, err
}

func contentLabel(t models.SubjectType) string {
	if t == models.SubjectAnswer {
		return "Answer"
	}
	return "Question"
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
