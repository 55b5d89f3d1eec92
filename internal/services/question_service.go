package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

type QuestionService struct {
	db         *gorm.DB
	moderation *ModerationService
	logger     *slog.Logger
}

func NewQuestionService(db *gorm.DB, moderation *ModerationService, logger *slog.Logger) *QuestionService {
	return &QuestionService{db: db, moderation: moderation, logger: logger}
}

// Create stores a validated question. Text containing banned terms is held as
// pending for review; everything else is approved immediately.
func (s *QuestionService) Create(ctx context.Context, viewer models.Viewer, req *models.CreateQuestionRequest) (*models.QuestionSummary, error) {
	terms := s.moderation.Screen(req.Title + " " + req.Body)
	status := models.StatusApproved
	if len(terms) > 0 {
		status = models.StatusPending
	}

	var q models.Question
	var flagged *models.FlaggedContent

	txCtx, counters := withTxMetrics(ctx)
	err := s.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		author, err := loadUser(tx, viewer.ID)
		if err != nil {
			return err
		}

		tags, err := ensureTags(tx, req.Tags)
		if err != nil {
			return err
		}

		q = models.Question{
			Title:    req.Title,
			Body:     req.Body,
			AuthorID: author.ID,
			Status:   status,
			Tags:     tags,
		}
		if err := tx.Omit("Tags.*").Create(&q).Error; err != nil {
			return fmt.Errorf("create question: %w", err)
		}
		q.Author = *author

		if status == models.StatusPending {
			flagged, err = s.moderation.flag(tx, flaggedItem{
				contentType: models.SubjectQuestion,
				contentID:   q.ID,
				questionID:  q.ID,
				title:       q.Title,
				text:        q.Body,
				author:      *author,
				terms:       terms,
			})
			return err
		}
		return announceQuestion(tx, &q)
	})
	if err != nil {
		return nil, err
	}

	counters.flush()
	s.moderation.alert(ctx, flagged)
	s.logger.Info("question created", "question_id", q.ID, "author_id", q.AuthorID, "status", q.Status)

	summary := models.NewQuestionSummary(&q, 0, 0)
	return &summary, nil
}

// ensureTags returns the tag rows for names, creating missing ones.
func ensureTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	fresh := make([]models.Tag, 0, len(names))
	for _, n := range names {
		fresh = append(fresh, models.Tag{Name: n})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("create tags: %w", err)
	}

	var tags []models.Tag
	if err := tx.Where("name IN ?", names).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func loadUser(tx *gorm.DB, id string) (*models.User, error) {
	var u models.User
	err := tx.Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type questionStat struct {
	ID          string
	VoteTally   int64
	AnswerCount int64
}

// List applies the listing filters of query, which must already be validated.
func (s *QuestionService) List(ctx context.Context, viewer models.Viewer, query *models.ListQuestionsQuery) ([]models.QuestionSummary, error) {
	db := s.db.WithContext(ctx)

	tallySub := db.Model(&models.Vote{}).
		Select(tallyExpr).
		Where("votes.subject_type = ? AND votes.subject_id = questions.id", models.SubjectQuestion)
	answerSub := db.Model(&models.Answer{}).
		Select("COUNT(*)").
		Where("answers.question_id = questions.id")
	if !viewer.IsAdmin {
		answerSub = answerSub.Where("answers.status = ?", models.StatusApproved)
	}

	stmt := db.Model(&models.Question{}).
		Select("questions.id AS id, (?) AS vote_tally, (?) AS answer_count", tallySub, answerSub)

	if !viewer.IsAdmin {
		stmt = stmt.Where("questions.status = ?", models.StatusApproved)
	}
	if query.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(query.Search)) + "%"
		stmt = stmt.Where(`(LOWER(questions.title) LIKE ? ESCAPE '\' OR LOWER(questions.body) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if query.Tag != "" {
		stmt = stmt.Where(`EXISTS (SELECT 1 FROM question_tags JOIN tags ON tags.id = question_tags.tag_id
			WHERE question_tags.question_id = questions.id AND tags.name = ?)`, query.Tag)
	}

	switch query.Filter {
	case models.FilterUnanswered:
		stmt = stmt.Where("questions.is_answered = ?", false)
	case models.FilterAnswered:
		stmt = stmt.Where("questions.is_answered = ?", true)
	case models.FilterMostVoted:
		stmt = stmt.Order("vote_tally DESC")
	}
	stmt = stmt.Order("questions.created_at DESC").Order("questions.id DESC")

	limit := query.Limit
	if limit <= 0 || limit > models.MaxPageLimit {
		limit = models.DefaultPageLimit
	}

	var stats []questionStat
	if err := stmt.Offset(query.Skip).Limit(limit).Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(stats) == 0 {
		return []models.QuestionSummary{}, nil
	}

	ids := make([]string, 0, len(stats))
	for _, st := range stats {
		ids = append(ids, st.ID)
	}
	var rows []models.Question
	if err := db.Preload("Author").Preload("Tags").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Question, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	out := make([]models.QuestionSummary, 0, len(stats))
	for _, st := range stats {
		if q, ok := byID[st.ID]; ok {
			out = append(out, models.NewQuestionSummary(q, st.VoteTally, st.AnswerCount))
		}
	}
	return out, nil
}

// Get returns the question with its visible answers ordered accepted first,
// then by tally, then oldest first.
func (s *QuestionService) Get(ctx context.Context, viewer models.Viewer, id string) (*models.QuestionDetail, error) {
	db := s.db.WithContext(ctx)

	var q models.Question
	err := db.Preload("Author").Preload("Tags").Where("id = ?", id).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !viewer.CanSee(q.Status) {
		return nil, ErrNotFound
	}

	answerQuery := db.Preload("Author").Where("question_id = ?", q.ID)
	if !viewer.IsAdmin {
		answerQuery = answerQuery.Where("status = ?", models.StatusApproved)
	}
	var answers []models.Answer
	if err := answerQuery.Find(&answers).Error; err != nil {
		return nil, err
	}

	answerIDs := make([]string, 0, len(answers))
	for _, a := range answers {
		answerIDs = append(answerIDs, a.ID)
	}
	tallies, err := voteTallies(db, models.SubjectAnswer, answerIDs)
	if err != nil {
		return nil, err
	}
	myVotes, err := userVotes(db, viewer.ID, models.SubjectAnswer, answerIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.AnswerView, 0, len(answers))
	for i := range answers {
		views = append(views, models.NewAnswerView(&answers[i], tallies[answers[i].ID], myVotes[answers[i].ID]))
	}
	sortAnswers(views)

	tally, err := voteTally(db, models.SubjectQuestion, q.ID)
	if err != nil {
		return nil, err
	}
	myQuestionVote, err := userVotes(db, viewer.ID, models.SubjectQuestion, []string{q.ID})
	if err != nil {
		return nil, err
	}

	return &models.QuestionDetail{
		QuestionSummary: models.NewQuestionSummary(&q, tally, int64(len(views))),
		UserVote:        myQuestionVote[q.ID],
		Answers:         views,
	}, nil
}

// Delete removes a question with its answers, votes, tag links, review records
// and notifications. Only the author or an admin may delete.
func (s *QuestionService) Delete(ctx context.Context, viewer models.Viewer, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Question
		err := tx.Where("id = ?", id).First(&q).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if q.AuthorID != viewer.ID && !viewer.IsAdmin {
			if !viewer.CanSee(q.Status) {
				return ErrNotFound
			}
			return ErrForbidden
		}

		var answerIDs []string
		if err := tx.Model(&models.Answer{}).Where("question_id = ?", q.ID).Pluck("id", &answerIDs).Error; err != nil {
			return err
		}
		if err := deleteAnswerRefs(tx, answerIDs); err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", q.ID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}

		if err := tx.Where("subject_type = ? AND subject_id = ?", models.SubjectQuestion, q.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_type = ? AND content_id = ?", models.SubjectQuestion, q.ID).Delete(&models.ModerationRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", q.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&q).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Question{}, "id = ?", q.ID).Error
	})
	if err != nil {
		return err
	}

	s.logger.Info("question deleted", "question_id", id, "by", viewer.ID)
	return nil
}

// deleteAnswerRefs removes votes, review records and notifications that point at answers.
func deleteAnswerRefs(tx *gorm.DB, answerIDs []string) error {
	if len(answerIDs) == 0 {
		return nil
	}
	if err := tx.Where("subject_type = ? AND subject_id IN ?", models.SubjectAnswer, answerIDs).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	if err := tx.Where("content_type = ? AND content_id IN ?", models.SubjectAnswer, answerIDs).Delete(&models.ModerationRecord{}).Error; err != nil {
		return err
	}
	return tx.Where("answer_id IN ?", answerIDs).Delete(&models.Notification{}).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
