package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

// tallyExpr is the signed vote sum: +1 per up vote, -1 per down vote.
const tallyExpr = "CAST(COALESCE(SUM(CASE WHEN direction = 'up' THEN 1 ELSE -1 END), 0) AS BIGINT)"

func voteTally(tx *gorm.DB, subjectType models.SubjectType, subjectID string) (int64, error) {
	var tally int64
	err := tx.Model(&models.Vote{}).
		Select(tallyExpr).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Scan(&tally).Error
	return tally, err
}

// voteTallies returns the tally per subject id; subjects without votes are absent.
func voteTallies(tx *gorm.DB, subjectType models.SubjectType, ids []string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []struct {
		SubjectID string
		Tally     int64
	}
	if err := tx.Model(&models.Vote{}).
		Select("subject_id, "+tallyExpr+" AS tally").
		Where("subject_type = ? AND subject_id IN ?", subjectType, ids).
		Group("subject_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.SubjectID] = r.Tally
	}
	return out, nil
}

// userVotes returns the viewer's vote direction per subject id.
func userVotes(tx *gorm.DB, userID string, subjectType models.SubjectType, ids []string) (map[string]models.VoteDirection, error) {
	out := make(map[string]models.VoteDirection, len(ids))
	if userID == "" || len(ids) == 0 {
		return out, nil
	}

	var votes []models.Vote
	if err := tx.Where("user_id = ? AND subject_type = ? AND subject_id IN ?", userID, subjectType, ids).
		Find(&votes).Error; err != nil {
		return nil, err
	}
	for _, v := range votes {
		out[v.SubjectID] = v.Direction
	}
	return out, nil
}

// loadVisibleQuestion returns ErrNotFound for missing questions and for ones the viewer may not see.
// With lock set the row is held until the transaction ends on dialects that support row locks.
func loadVisibleQuestion(tx *gorm.DB, viewer models.Viewer, id string, lock bool) (*models.Question, error) {
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var question models.Question
	err := q.Where("id = ?", id).First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !viewer.CanSee(question.Status) {
		return nil, ErrNotFound
	}
	return &question, nil
}

// loadVisibleAnswer also requires the parent question to be visible.
func loadVisibleAnswer(tx *gorm.DB, viewer models.Viewer, id string) (*models.Answer, *models.Question, error) {
	var answer models.Answer
	err := tx.Where("id = ?", id).First(&answer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if !viewer.CanSee(answer.Status) {
		return nil, nil, ErrNotFound
	}

	question, err := loadVisibleQuestion(tx, viewer, answer.QuestionID, false)
	if err != nil {
		return nil, nil, err
	}
	return &answer, question, nil
}
