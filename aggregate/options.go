package aggregate

import (
	"log/slog"
	"time"

	"github.com/sig-0/fxcompare/resilience"
	"github.com/sig-0/fxcompare/storage"
	"github.com/sig-0/fxcompare/telemetry"
)

type Option func(a *Aggregator)

// WithLogger specifies the logger for the aggregator
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = l
	}
}

// WithPolicy specifies the resilience policy applied to every provider
func WithPolicy(p resilience.Policy) Option {
	return func(a *Aggregator) {
		a.policy = p
	}
}

// WithMetrics specifies the metrics sink for finished rounds
func WithMetrics(m *telemetry.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// WithStorage specifies the audit trail for finished rounds.
// Saving is best-effort, and never fails a round
func WithStorage(s storage.Storage) Option {
	return func(a *Aggregator) {
		a.storage = s
	}
}

// WithSaveTimeout specifies the timeout for saving a round.
// Defaults to 5s
func WithSaveTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		a.saveTimeout = d
	}
}
