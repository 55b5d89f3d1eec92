package services

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/metrics"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

type VoteService struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewVoteService(db *gorm.DB, logger *slog.Logger) *VoteService {
	return &VoteService{db: db, logger: logger}
}

// Vote toggles the viewer's vote on a subject: a first vote is recorded, the same
// direction again removes it, the opposite direction flips it. The result carries
// the recomputed tally.
func (s *VoteService) Vote(ctx context.Context, viewer models.Viewer, subjectType models.SubjectType, subjectID string, direction models.VoteDirection) (*models.VoteResult, error) {
	res, outcome, err := s.castVote(ctx, viewer, subjectType, subjectID, direction)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent first vote by the same user won the insert; apply ours on top of it.
		res, outcome, err = s.castVote(ctx, viewer, subjectType, subjectID, direction)
	}
	if err != nil {
		return nil, err
	}

	metrics.VotesCast.WithLabelValues(string(subjectType), outcome).Inc()
	s.logger.Debug("vote cast",
		"subject_type", subjectType,
		"subject_id", subjectID,
		"user_id", viewer.ID,
		"outcome", outcome,
		"tally", res.Tally,
	)
	return res, nil
}

func (s *VoteService) castVote(ctx context.Context, viewer models.Viewer, subjectType models.SubjectType, subjectID string, direction models.VoteDirection) (*models.VoteResult, string, error) {
	var res models.VoteResult
	var outcome string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureVisibleSubject(tx, viewer, subjectType, subjectID); err != nil {
			return err
		}

		var existing []models.Vote
		if err := tx.Where("subject_type = ? AND subject_id = ? AND user_id = ?", subjectType, subjectID, viewer.ID).
			Limit(1).Find(&existing).Error; err != nil {
			return err
		}

		res.SubjectID = subjectID
		switch {
		case len(existing) == 0:
			vote := models.Vote{
				SubjectType: subjectType,
				SubjectID:   subjectID,
				UserID:      viewer.ID,
				Direction:   direction,
			}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			outcome = "added"
			res.UserVote = direction
		case existing[0].Direction == direction:
			if err := tx.Delete(&models.Vote{}, "id = ?", existing[0].ID).Error; err != nil {
				return err
			}
			outcome = "removed"
		default:
			if err := tx.Model(&models.Vote{}).Where("id = ?", existing[0].ID).Update("direction", direction).Error; err != nil {
				return err
			}
			outcome = "switched"
			res.UserVote = direction
		}

		tally, err := voteTally(tx, subjectType, subjectID)
		if err != nil {
			return err
		}
		res.Tally = tally
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return &res, outcome, nil
}

func ensureVisibleSubject(tx *gorm.DB, viewer models.Viewer, subjectType models.SubjectType, id string) error {
	switch subjectType {
	case models.SubjectQuestion:
		_, err := loadVisibleQuestion(tx, viewer, id, false)
		return err
	case models.SubjectAnswer:
		_, _, err := loadVisibleAnswer(tx, viewer, id)
		return err
	}
	return ErrNotFound
}
