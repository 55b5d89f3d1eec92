package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/metrics"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

// txMetrics holds counter increments made inside a transaction until it commits.
// A rolled back transaction never reaches flush, so its increments are dropped.
type txMetrics struct {
	notifications map[models.NotificationKind]int
	flagged       map[models.SubjectType]int
}

type txMetricsKey struct{}

// withTxMetrics returns a context that collects the counters of transactions
// started from it.
func withTxMetrics(ctx context.Context) (context.Context, *txMetrics) {
	m := &txMetrics{
		notifications: map[models.NotificationKind]int{},
		flagged:       map[models.SubjectType]int{},
	}
	return context.WithValue(ctx, txMetricsKey{}, m), m
}

// txMetricsOf returns the collector carried by tx's context, or nil.
func txMetricsOf(tx *gorm.DB) *txMetrics {
	if tx == nil || tx.Statement == nil || tx.Statement.Context == nil {
		return nil
	}
	m, _ := tx.Statement.Context.Value(txMetricsKey{}).(*txMetrics)
	return m
}

func (m *txMetrics) notification(kind models.NotificationKind) {
	if m != nil {
		m.notifications[kind]++
	}
}

func (m *txMetrics) flag(contentType models.SubjectType) {
	if m != nil {
		m.flagged[contentType]++
	}
}

// flush records the collected increments. Call it only after commit.
func (m *txMetrics) flush() {
	if m == nil {
		return
	}
	for kind, n := range m.notifications {
		metrics.NotificationsCreated.WithLabelValues(string(kind)).Add(float64(n))
	}
	for contentType, n := range m.flagged {
		metrics.ContentFlagged.WithLabelValues(string(contentType)).Add(float64(n))
	}
}
