package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

// UserFlagStore records moderation strikes per user.
type UserFlagStore interface {
	AddStrike(ctx context.Context, userID, reason string) (*models.UserFlag, error)
	// Get returns ErrNotFound when the user has no strikes.
	Get(ctx context.Context, userID string) (*models.UserFlag, error)
}

// SQLUserFlagStore keeps strikes in the relational database.
type SQLUserFlagStore struct {
	db *gorm.DB
}

func NewSQLUserFlagStore(db *gorm.DB) *SQLUserFlagStore {
	return &SQLUserFlagStore{db: db}
}

func (s *SQLUserFlagStore) AddStrike(ctx context.Context, userID, reason string) (*models.UserFlag, error) {
	now := time.Now().UTC()
	flag := models.UserFlag{
		UserID:       userID,
		Strikes:      1,
		LastReason:   reason,
		LastStrikeAt: now,
		UpdatedAt:    now,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "strikes"}, Value: gorm.Expr("user_flags.strikes + 1")},
			{Column: clause.Column{Name: "last_reason"}, Value: reason},
			{Column: clause.Column{Name: "last_strike_at"}, Value: now},
			{Column: clause.Column{Name: "updated_at"}, Value: now},
		},
	}).Create(&flag).Error
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *SQLUserFlagStore) Get(ctx context.Context, userID string) (*models.UserFlag, error) {
	var flag models.UserFlag
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&flag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &flag, nil
}
