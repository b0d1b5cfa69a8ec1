// Package setup wires the quote service components from the configuration
package setup

import (
	"fmt"
	"log/slog"

	"github.com/sig-0/fxcompare/aggregate"
	"github.com/sig-0/fxcompare/config"
	"github.com/sig-0/fxcompare/health"
	"github.com/sig-0/fxcompare/provider"
	"github.com/sig-0/fxcompare/provider/board"
	"github.com/sig-0/fxcompare/provider/jsonapi"
	"github.com/sig-0/fxcompare/provider/nestedapi"
	"github.com/sig-0/fxcompare/provider/xmlapi"
	"github.com/sig-0/fxcompare/stats"
	"github.com/sig-0/fxcompare/storage"
	"github.com/sig-0/fxcompare/telemetry"
)

// Service bundles the wired quote service components
type Service struct {
	Registry   *provider.Registry
	Stats      *stats.Store
	Metrics    *telemetry.Metrics
	Aggregator *aggregate.Aggregator
	Prober     *health.Prober
	Monitor    *health.Monitor
}

// NewProvider creates the adapter matching the provider format
func NewProvider(p config.Provider) (provider.Provider, error) {
	cfg, err := p.ProviderConfig()
	if err != nil {
		return nil, err
	}

	switch p.Format {
	case config.FormatJSON:
		return jsonapi.New(cfg), nil
	case config.FormatXML:
		return xmlapi.New(cfg), nil
	case config.FormatNested:
		return nestedapi.New(cfg), nil
	case config.FormatHTML:
		return board.New(cfg, p.MaxAge()), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidFormat, p.Format)
	}
}

// NewRegistry creates the provider registry, in configuration order
func NewRegistry(cfg *config.Config) (*provider.Registry, error) {
	entries := make([]provider.Entry, 0, len(cfg.Providers))

	for _, p := range cfg.Providers {
		adapter, err := NewProvider(p)
		if err != nil {
			return nil, fmt.Errorf("unable to create provider %s: %w", p.Name, err)
		}

		entries = append(entries, provider.Entry{
			Provider: adapter,
			URL:      p.URL,
			Timeout:  p.Timeout(),
			Enabled:  p.IsEnabled(),
		})
	}

	return provider.NewRegistry(entries...)
}

// NewService wires the quote service. The round audit trail is optional
func NewService(
	cfg *config.Config,
	logger *slog.Logger,
	store storage.Storage,
) (*Service, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}

	registry, err := NewRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create provider registry: %w", err)
	}

	var (
		statsStore = stats.NewStore()
		metrics    = telemetry.NewMetrics()
	)

	aggOpts := []aggregate.Option{
		aggregate.WithLogger(logger),
		aggregate.WithPolicy(cfg.Resilience.Policy()),
		aggregate.WithMetrics(metrics),
	}

	if store != nil {
		aggOpts = append(aggOpts, aggregate.WithStorage(store))
	}

	prober := health.NewProber(
		registry,
		health.WithLogger(logger),
		health.WithTimeout(cfg.Monitor.ProbeTimeout()),
		health.WithMetrics(metrics),
	)

	monitor := health.NewMonitor(
		prober,
		health.WithMonitorLogger(logger),
		health.WithProbeInterval(cfg.Monitor.ProbeInterval()),
	)

	for _, e := range registry.Entries() {
		if err := monitor.Register(e.Provider); err != nil {
			return nil, fmt.Errorf("unable to monitor provider %s: %w", e.Name(), err)
		}
	}

	return &Service{
		Registry:   registry,
		Stats:      statsStore,
		Metrics:    metrics,
		Aggregator: aggregate.New(registry, statsStore, aggOpts...),
		Prober:     prober,
		Monitor:    monitor,
	}, nil
}
