package health

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sig-0/fxcompare/provider"
	"github.com/sig-0/fxcompare/telemetry"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Prober checks the reachability of every registered provider
type Prober struct {
	registry *provider.Registry
	metrics  *telemetry.Metrics
	logger   *slog.Logger

	timeout time.Duration
}

// NewProber creates a new prober over the given registry
func NewProber(registry *provider.Registry, opts ...Option) *Prober {
	p := &Prober{
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:  time.Second * 5,
	}

	// Apply the options
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ProbeAll probes every registered provider concurrently, enabled or not.
// It never fails: an unreachable provider is reported as unhealthy
func (p *Prober) ProbeAll(ctx context.Context) map[string]bool {
	var (
		entries = p.registry.Entries()
		results = make(map[string]bool, len(entries))
		mu      sync.Mutex
		g       errgroup.Group
	)

	for _, e := range entries {
		g.Go(func() error {
			healthy := p.Probe(ctx, e.Provider)

			mu.Lock()
			results[e.Name()] = healthy
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // probes never error

	return results
}

// Probe probes a single provider, bounded by the probe timeout
func (p *Prober) Probe(ctx context.Context, prov provider.Provider) bool {
	probeCtx, cancelFn := context.WithTimeout(ctx, p.timeout)
	defer cancelFn()

	resCh := make(chan bool, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error(
					"provider probe panicked",
					"provider", prov.Name(),
					"panic", r,
				)

				resCh <- false
			}
		}()

		resCh <- prov.Probe(probeCtx)
	}()

	var healthy bool

	select {
	case healthy = <-resCh:
	case <-probeCtx.Done():
	}

	p.metrics.ObserveProbe(prov.Name(), healthy)

	return healthy
}

// Report is the aggregate view of a probe sweep
type Report struct {
	Providers        map[string]bool `json:"providers"`
	Status           string          `json:"status"`
	Healthy          int             `json:"healthy"`
	Total            int             `json:"total"`
	HealthPercentage float64         `json:"health_percentage"`
}

// Summarize aggregates probe results: healthy when every provider is up,
// unhealthy when none is, degraded otherwise
func Summarize(results map[string]bool) Report {
	r := Report{
		Providers: results,
		Total:     len(results),
	}

	for _, healthy := range results {
		if healthy {
			r.Healthy++
		}
	}

	if r.Total > 0 {
		r.HealthPercentage = float64(r.Healthy) / float64(r.Total) * 100
	}

	switch {
	case r.Total > 0 && r.Healthy == r.Total:
		r.Status = StatusHealthy
	case r.Healthy > 0:
		r.Status = StatusDegraded
	default:
		r.Status = StatusUnhealthy
	}

	return r
}
