package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/handlers"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/metrics"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/middleware"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/services"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/storage"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	DB     *gorm.DB
	Logger *slog.Logger

	JWTSecret     string
	JWTExpiration time.Duration

	AllowedOrigins []string
	AuthLimiter    *middleware.IPRateLimiter
	// TrustProxy mounts chi's RealIP so limits key on the forwarded client address.
	TrustProxy     bool

	Users         *services.UserService
	Questions     *services.QuestionService
	Answers       *services.AnswerService
	Votes         *services.VoteService
	Tags          *services.TagService
	Notifications *services.NotificationService
	Moderation    *services.ModerationService
}

func New(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.Users, d.JWTSecret, d.JWTExpiration, d.Logger)
	questionHandler := handlers.NewQuestionHandler(d.Questions, d.Votes, d.Logger)
	answerHandler := handlers.NewAnswerHandler(d.Answers, d.Votes, d.Logger)
	tagHandler := handlers.NewTagHandler(d.Tags, d.Logger)
	notificationHandler := handlers.NewNotificationHandler(d.Notifications, d.Logger)
	moderationHandler := handlers.NewModerationHandler(d.Moderation, d.Logger)

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := storage.Ping(ctx, d.DB); err != nil {
			d.Logger.Error("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(d.JWTSecret, d.Users))

		r.Route("/auth", func(r chi.Router) {
			if d.AuthLimiter != nil {
				r.Use(d.AuthLimiter.Handler)
			}
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
		})

		// Public reads; a valid token widens visibility for admins.
		r.Get("/questions", questionHandler.ListQuestions)
		r.Get("/questions/{questionId}", questionHandler.GetQuestion)
		r.Get("/questions/{questionId}/answers", questionHandler.ListAnswers)
		r.Get("/tags", tagHandler.ListTags)
		r.Get("/tags/suggestions", tagHandler.SuggestTags)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Get("/users/profile", authHandler.GetProfile)

			r.Post("/questions", questionHandler.CreateQuestion)
			r.Delete("/questions/{questionId}", questionHandler.DeleteQuestion)
			r.Post("/questions/{questionId}/vote", questionHandler.VoteQuestion)
			r.Post("/questions/{questionId}/answers", answerHandler.CreateAnswer)

			r.Post("/answers", answerHandler.CreateAnswer)
			r.Post("/answers/{answerId}/vote", answerHandler.VoteAnswer)
			r.Post("/answers/{answerId}/accept", answerHandler.AcceptAnswer)
			r.Delete("/answers/{answerId}", answerHandler.DeleteAnswer)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.ListNotifications)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Post("/read-all", notificationHandler.MarkAllRead)
				r.Post("/{notificationId}/read", notificationHandler.MarkRead)
			})
		})

		r.Route("/moderation", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/flagged-content", moderationHandler.ListFlagged)
			r.Post("/review/{moderationId}", moderationHandler.Review)
			r.Get("/stats", moderationHandler.Stats)
			r.Get("/users/{userId}/flags", moderationHandler.UserFlags)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w)
	})

	return r
}

func writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(models.NewErrorResponse("Route not found"))
}
