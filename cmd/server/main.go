package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/config"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/middleware"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/router"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/services"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer storage.Close(db)

	// Strikes go to Mongo when configured, otherwise to the main database.
	var flags services.UserFlagStore = services.NewSQLUserFlagStore(db)
	if cfg.MongoURI != "" {
		mongoFlags, err := services.NewMongoUserFlagService(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		defer mongoFlags.Close(context.Background())
		flags = mongoFlags
		logger.Info("user flags stored in mongo", "database", cfg.MongoDatabase)
	}

	actions := &services.ModerationActions{Flags: flags, Logger: logger}
	if cfg.ArchiveBucket != "" {
		archiver, err := services.NewGCSArchiver(ctx, cfg.ArchiveBucket, cfg.GCPCredentialsJSON)
		if err != nil {
			return err
		}
		defer archiver.Close()
		actions.Archive = archiver
		logger.Info("rejected content archived to gcs", "bucket", cfg.ArchiveBucket)
	}

	var alerter services.Alerter
	if cfg.SendGridAPIKey != "" {
		alerter = services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.AlertFromEmail)
	}

	var captcha services.CaptchaVerifier
	if cfg.RecaptchaSecret != "" {
		captcha = services.NewRecaptchaVerifier(cfg.RecaptchaSecret)
	}

	moderation := services.NewModerationService(db, services.NewContentFilter(cfg.ModerationTerms), actions, alerter, logger)
	votes := services.NewVoteService(db, logger)

	handler := router.New(router.Deps{
		DB:             db,
		Logger:         logger,
		JWTSecret:      cfg.JWTSecret,
		JWTExpiration:  cfg.JWTExpiration,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AuthLimiter:    middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst),
		TrustProxy:     cfg.TrustProxy,
		Users:          services.NewUserService(db, cfg.AdminEmails, captcha, logger),
		Questions:      services.NewQuestionService(db, moderation, logger),
		Answers:        services.NewAnswerService(db, moderation, logger),
		Votes:          votes,
		Tags:           services.NewTagService(db),
		Notifications:  services.NewNotificationService(db),
		Moderation:     moderation,
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("StackIt API server starting", "addr", cfg.ServerAddress, "driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
