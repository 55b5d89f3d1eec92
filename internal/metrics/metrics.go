package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts served requests by chi route pattern.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stackit_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// VotesCast counts vote operations by subject and outcome (added, removed, switched).
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_votes_cast_total",
		Help: "Vote operations by subject type and outcome",
	}, []string{"subject", "outcome"})

	ContentFlagged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_moderation_flagged_total",
		Help: "Content held for review by the keyword filter",
	}, []string{"content_type"})

	ModerationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_moderation_decisions_total",
		Help: "Admin moderation decisions",
	}, []string{"decision"})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_notifications_created_total",
		Help: "Notifications created by kind",
	}, []string{"kind"})

	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_auth_attempts_total",
		Help: "Signup and login attempts by outcome",
	}, []string{"action", "outcome"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
