package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

const maxTagSuggestions = 20

type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// List returns every tag with the number of questions the viewer can see under it.
func (s *TagService) List(ctx context.Context, viewer models.Viewer) ([]models.TagCount, error) {
	join := "LEFT JOIN questions ON questions.id = question_tags.question_id"
	args := []interface{}{}
	if !viewer.IsAdmin {
		join += " AND questions.status = ?"
		args = append(args, models.StatusApproved)
	}

	out := []models.TagCount{}
	err := s.db.WithContext(ctx).Model(&models.Tag{}).
		Select("tags.name AS name, COUNT(questions.id) AS question_count").
		Joins("LEFT JOIN question_tags ON question_tags.tag_id = tags.id").
		Joins(join, args...).
		Group("tags.id, tags.name").
		Order("tags.name").
		Scan(&out).Error
	return out, err
}

// Suggest returns up to 20 tag names starting with prefix.
func (s *TagService) Suggest(ctx context.Context, prefix string) ([]string, error) {
	q := s.db.WithContext(ctx).Model(&models.Tag{}).Order("name").Limit(maxTagSuggestions)
	if prefix = models.NormalizeTag(prefix); prefix != "" {
		q = q.Where(`name LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	}

	names := []string{}
	if err := q.Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}
