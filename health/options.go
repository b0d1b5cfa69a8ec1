package health

import (
	"log/slog"
	"time"

	"github.com/sig-0/fxcompare/telemetry"
)

type Option func(p *Prober)

// WithLogger specifies the logger for the prober
func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		p.logger = l
	}
}

// WithTimeout specifies the timeout of a single probe.
// Defaults to 5s
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		p.timeout = d
	}
}

// WithMetrics specifies the metrics sink for probe results
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Prober) {
		p.metrics = m
	}
}

type MonitorOption func(m *Monitor)

// WithMonitorLogger specifies the logger for the monitor
func WithMonitorLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		m.logger = l
	}
}

// WithProbeInterval specifies how often each provider is probed.
// Defaults to 30s
func WithProbeInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.probeInterval = d
	}
}

// WithQueryInterval specifies how often the monitor checks for due probes.
// Defaults to 1s
func WithQueryInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.queryInterval = d
	}
}
