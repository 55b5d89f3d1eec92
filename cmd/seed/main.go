package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/config"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/services"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/storage"
)

type seedUser struct {
	username string
	email    string
}

type seedQuestion struct {
	author  int
	title   string
	body    string
	tags    []string
	answers []seedAnswer
}

type seedAnswer struct {
	author int
	body   string
	accept bool
}

var demoUsers = []seedUser{
	{username: "alice", email: "alice@stackit.local"},
	{username: "bob", email: "bob@stackit.local"},
	{username: "carol", email: "carol@stackit.local"},
}

var demoQuestions = []seedQuestion{
	{
		author: 0,
		title:  "How do I cancel a long running HTTP request in Go?",
		body:   "I have a handler that calls a slow upstream service. What is the right way to stop the work when the client disconnects?",
		tags:   []string{"go", "http", "context"},
		answers: []seedAnswer{
			{author: 1, body: "Pass r.Context() down to the upstream call. It is cancelled when the client goes away.", accept: true},
			{author: 2, body: "You can also wrap it with context.WithTimeout to put an upper bound on the call @alice."},
		},
	},
	{
		author: 1,
		title:  "Which SQL driver should I use with gorm for tests?",
		body:   "I want tests that run without cgo and without a database server. Is there a pure Go SQLite driver for gorm?",
		tags:   []string{"go", "gorm", "sqlite", "testing"},
		answers: []seedAnswer{
			{author: 0, body: "github.com/glebarez/sqlite works without cgo and plugs straight into gorm.Open."},
		},
	},
	{
		author: 2,
		title:  "Best way to structure chi routes with auth groups?",
		body:   "Some of my routes are public and some need a logged in user. How do people usually organize that with chi?",
		tags:   []string{"go", "chi"},
	},
}

func main() {
	password := flag.String("password", "password123", "password for every demo account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()

	if err := seed(context.Background(), cfg, logger, *password); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed complete")
}

func seed(ctx context.Context, cfg *config.Config, logger *slog.Logger, password string) error {
	db, err := storage.Open(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer storage.Close(db)

	moderation := services.NewModerationService(db, services.NewContentFilter(cfg.ModerationTerms), nil, nil, logger)
	users := services.NewUserService(db, cfg.AdminEmails, nil, logger)
	questions := services.NewQuestionService(db, moderation, logger)
	answers := services.NewAnswerService(db, moderation, logger)

	viewers := make([]models.Viewer, 0, len(demoUsers))
	for _, su := range demoUsers {
		u, err := ensureUser(ctx, users, su, password)
		if err != nil {
			return err
		}
		viewers = append(viewers, models.Viewer{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin})
	}

	existing, err := questions.List(ctx, models.Viewer{IsAdmin: true}, &models.ListQuestionsQuery{Limit: models.MaxPageLimit})
	if err != nil {
		return err
	}
	titles := make(map[string]bool, len(existing))
	for _, q := range existing {
		titles[q.Title] = true
	}

	for _, sq := range demoQuestions {
		if titles[sq.title] {
			continue
		}
		req := &models.CreateQuestionRequest{Title: sq.title, Body: sq.body, Tags: sq.tags}
		if errs := req.Validate(); len(errs) > 0 {
			return fmt.Errorf("seed question %q: %v", sq.title, errs)
		}
		q, err := questions.Create(ctx, viewers[sq.author], req)
		if err != nil {
			return err
		}

		for _, sa := range sq.answers {
			areq := &models.CreateAnswerRequest{QuestionID: q.ID, Body: sa.body}
			if errs := areq.Validate(); len(errs) > 0 {
				return fmt.Errorf("seed answer: %v", errs)
			}
			a, err := answers.Create(ctx, viewers[sa.author], areq)
			if err != nil {
				return err
			}
			if sa.accept {
				if _, err := answers.Accept(ctx, viewers[sq.author], a.ID); err != nil {
					return err
				}
			}
		}
		logger.Info("seeded question", "question_id", q.ID, "title", q.Title)
	}
	return nil
}

func ensureUser(ctx context.Context, users *services.UserService, su seedUser, password string) (*models.User, error) {
	req := &models.SignupRequest{Username: su.username, Email: su.email, Password: password}
	if errs := req.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("seed user %s: %v", su.username, errs)
	}

	u, err := users.Signup(ctx, req, "")
	if errors.Is(err, services.ErrEmailExists) || errors.Is(err, services.ErrUsernameTaken) {
		return users.Login(ctx, &models.LoginRequest{Email: strings.ToLower(su.email), Password: password})
	}
	return u, err
}
