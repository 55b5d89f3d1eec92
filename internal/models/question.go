package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentStatus is the moderation state of a question or answer. Records use
// the same values for their decision.
type ContentStatus string

const (
	StatusPending  ContentStatus = "pending"
	StatusApproved ContentStatus = "approved"
	StatusRejected ContentStatus = "rejected"
)

type Question struct {
	ID         string        `json:"id" gorm:"primaryKey;size:36"`
	Title      string        `json:"title" gorm:"size:200;not null"`
	Body       string        `json:"body" gorm:"type:text;not null"`
	AuthorID   string        `json:"author_id" gorm:"size:36;not null;index"`
	Author     User          `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Status     ContentStatus `json:"status" gorm:"size:16;not null;index"`
	IsAnswered bool          `json:"is_answered" gorm:"not null"`
	Tags       []Tag         `json:"-" gorm:"many2many:question_tags;constraint:OnDelete:CASCADE"`
	Answers    []Answer      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time     `json:"created_at" gorm:"index"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return nil
}

// TagNames returns the question's tag names sorted alphabetically.
func (q *Question) TagNames() []string {
	names := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

type Tag struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:30;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

type TagCount struct {
	Name          string `json:"name"`
	QuestionCount int64  `json:"question_count"`
}

// QuestionFilter selects and orders the question listing.
type QuestionFilter string

const (
	FilterNewest     QuestionFilter = "newest"
	FilterUnanswered QuestionFilter = "unanswered"
	FilterAnswered   QuestionFilter = "answered"
	FilterMostVoted  QuestionFilter = "most_voted"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type ListQuestionsQuery struct {
	Filter QuestionFilter `json:"filter_type" validate:"omitempty,oneof=newest unanswered answered most_voted"`
	Search string         `json:"search" validate:"max=200"`
	Tag    string         `json:"tag" validate:"max=30"`
	Skip   int            `json:"skip" validate:"min=0"`
	Limit  int            `json:"limit" validate:"min=0,max=100"`
}

func (q *ListQuestionsQuery) Validate() map[string]string {
	q.Search = strings.TrimSpace(q.Search)
	q.Tag = NormalizeTag(q.Tag)
	errs := validationErrors(q)
	if len(errs) == 0 {
		if q.Filter == "" {
			q.Filter = FilterNewest
		}
		if q.Limit == 0 {
			q.Limit = DefaultPageLimit
		}
	}
	return errs
}

type CreateQuestionRequest struct {
	Title string   `json:"title" validate:"required,min=10,max=200"`
	Body  string   `json:"body" validate:"required,min=20"`
	Tags  []string `json:"tags" validate:"max=5,dive,required,max=30"`
}

func (r *CreateQuestionRequest) Validate() map[string]string {
	r.Title = strings.TrimSpace(r.Title)
	r.Body = strings.TrimSpace(r.Body)
	r.Tags = NormalizeTags(r.Tags)
	return validationErrors(r)
}

// NormalizeTag lowercases and trims a tag name.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeTags normalizes, drops empties and dedupes while keeping first-seen order.
func NormalizeTags(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = NormalizeTag(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// QuestionSummary is the listing projection of a question.
type QuestionSummary struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Body        string        `json:"body"`
	Status      ContentStatus `json:"status"`
	IsAnswered  bool          `json:"is_answered"`
	Author      UserSummary   `json:"author"`
	Tags        []string      `json:"tags"`
	VoteTally   int64         `json:"vote_tally"`
	AnswerCount int64         `json:"answer_count"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func NewQuestionSummary(q *Question, tally, answerCount int64) QuestionSummary {
	return QuestionSummary{
		ID:          q.ID,
		Title:       q.Title,
		Body:        q.Body,
		Status:      q.Status,
		IsAnswered:  q.IsAnswered,
		Author:      q.Author.Summary(),
		Tags:        q.TagNames(),
		VoteTally:   tally,
		AnswerCount: answerCount,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

// QuestionDetail is the single-question projection with its visible answers.
type QuestionDetail struct {
	QuestionSummary
	UserVote VoteDirection `json:"user_vote,omitempty"`
	Answers  []AnswerView  `json:"answers"`
}
