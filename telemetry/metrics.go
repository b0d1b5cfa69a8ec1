package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sig-0/fxcompare/quote"
)

const namespace = "fxcompare"

const (
	roundSucceeded = "succeeded"
	roundFailed    = "failed"
	outcomeSuccess = "success"
)

// Metrics are the Prometheus metrics of the aggregation engine.
// A nil *Metrics is valid, and records nothing
type Metrics struct {
	registry *prometheus.Registry

	rounds         *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	bestOffers     *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	probes         *prometheus.CounterVec
	roundsDuration prometheus.Histogram
}

// NewMetrics creates the engine metrics on a dedicated registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		rounds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rounds_total",
				Help:      "Number of aggregation rounds, by result",
			},
			[]string{"result"},
		),

		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_outcomes_total",
				Help:      "Number of provider outcomes, by provider and kind",
			},
			[]string{"provider", "kind"},
		),

		bestOffers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "best_offers_total",
				Help:      "Number of rounds won, by provider",
			},
			[]string{"provider"},
		),

		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_call_duration_seconds",
				Help:      "Provider call duration in seconds, retries included",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms, 20ms, 40ms...
			},
			[]string{"provider"},
		),

		probes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_probes_total",
				Help:      "Number of provider health probes, by provider and result",
			},
			[]string{"provider", "healthy"},
		),

		roundsDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "round_duration_seconds",
				Help:      "Aggregation round duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
	}
}

// ObserveRound records a finished aggregation round
func (m *Metrics) ObserveRound(outcomes []quote.Outcome, winner string, elapsedSeconds float64) {
	if m == nil {
		return
	}

	result := roundFailed

	for _, o := range outcomes {
		kind := outcomeSuccess
		if !o.Success {
			kind = o.Kind.String()
		} else {
			result = roundSucceeded
		}

		m.outcomes.WithLabelValues(o.Provider, kind).Inc()
		m.latency.WithLabelValues(o.Provider).Observe(o.Elapsed.Seconds())
	}

	m.rounds.WithLabelValues(result).Inc()
	m.roundsDuration.Observe(elapsedSeconds)

	if winner != "" {
		m.bestOffers.WithLabelValues(winner).Inc()
	}
}

// ObserveProbe records a health probe result
func (m *Metrics) ObserveProbe(provider string, healthy bool) {
	if m == nil {
		return
	}

	label := "false"
	if healthy {
		label = "true"
	}

	m.probes.WithLabelValues(provider, label).Inc()
}

// Handler returns the HTTP handler exposing the metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}

	return promhttp.InstrumentMetricHandler(
		m.registry,
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}),
	)
}
