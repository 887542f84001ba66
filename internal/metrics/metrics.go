// Package metrics exposes the bot's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"banana-bot/internal/session"
)

const namespace = "bananabot"

// Metrics holds Prometheus metrics for the bot
type Metrics struct {
	SessionsOpened   *prometheus.CounterVec
	SessionsClosed   *prometheus.CounterVec
	SessionsActive   *prometheus.GaugeVec
	CommandsHandled  *prometheus.CounterVec
	PendingAppeals   prometheus.Gauge
	LedgerUsers      prometheus.Gauge
	BananasGranted   *prometheus.CounterVec
	SnapshotFailures prometheus.Counter
}

// New registers the bot metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		SessionsOpened: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_opened_total",
				Help:      "Game sessions opened",
			},
			[]string{"kind"},
		),
		SessionsClosed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_closed_total",
				Help:      "Game sessions closed",
			},
			[]string{"kind", "reason"}, // reason is destroyed or expired
		),
		SessionsActive: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Game sessions currently live",
			},
			[]string{"kind"},
		),
		CommandsHandled: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Commands and callbacks handled",
			},
			[]string{"command", "outcome"},
		),
		PendingAppeals: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "law_appeals_pending",
				Help:      "Law appeals waiting for an admin",
			},
		),
		LedgerUsers: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ledger_users",
				Help:      "Users known to the ledger",
			},
		),
		BananasGranted: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bananas_granted_total",
				Help:      "Bananas paid out by source",
			},
			[]string{"source"},
		),
		SnapshotFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_failures_total",
				Help:      "Ledger snapshot saves that failed",
			},
		),
	}
}

// SessionOpened implements session.Observer.
func (m *Metrics) SessionOpened(kind session.Kind) {
	m.SessionsOpened.WithLabelValues(string(kind)).Inc()
	m.SessionsActive.WithLabelValues(string(kind)).Inc()
}

// SessionClosed implements session.Observer.
func (m *Metrics) SessionClosed(kind session.Kind, reason session.CloseReason) {
	m.SessionsClosed.WithLabelValues(string(kind), string(reason)).Inc()
	m.SessionsActive.WithLabelValues(string(kind)).Dec()
}

// Command counts one handled command with its outcome.
func (m *Metrics) Command(name, outcome string) {
	m.CommandsHandled.WithLabelValues(name, outcome).Inc()
}

// Granted counts amount bananas paid from source.
func (m *Metrics) Granted(source string, amount int64) {
	if amount > 0 {
		m.BananasGranted.WithLabelValues(source).Add(float64(amount))
	}
}

var _ session.Observer = (*Metrics)(nil)
