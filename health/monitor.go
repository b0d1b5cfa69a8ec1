package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"

	"github.com/sig-0/fxcompare/provider"
)

var (
	errInvalidProvider = errors.New("invalid provider")
	errInvalidInterval = errors.New("invalid interval")
)

// Status is the latest known health of a provider
type Status struct {
	CheckedAt time.Time     `json:"checked_at"`
	Elapsed   time.Duration `json:"elapsed"`
	Healthy   bool          `json:"healthy"`
}

// Monitor periodically probes the registered providers in the background,
// and keeps their latest known health
type Monitor struct {
	prober *Prober
	logger *slog.Logger

	registeredProviders sync.Map // xid.ID -> provider.Provider
	latest              sync.Map // name -> Status

	q             iq.Queue[scheduledProbe]
	queryInterval time.Duration
	probeInterval time.Duration
	qMux          sync.Mutex
}

// NewMonitor creates a new Monitor instance
func NewMonitor(prober *Prober, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		prober:        prober,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		q:             iq.NewQueue[scheduledProbe](),
		queryInterval: time.Second,      // every second
		probeInterval: time.Second * 30, // every 30s per provider
	}

	// Apply the options
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Register registers a new provider with the monitor.
// The provider is immediately queued up for probing
func (m *Monitor) Register(p provider.Provider) error {
	if p == nil || p.Name() == "" {
		return errInvalidProvider
	}

	if m.probeInterval <= 0 {
		return errInvalidInterval
	}

	id := xid.New()
	m.registeredProviders.Store(id, p)

	m.logger.Info(
		"registered provider for monitoring",
		"name", p.Name(),
	)

	m.scheduleProbe(
		time.Now().UTC(),
		id,
		p,
	)

	return nil
}

// Latest returns the latest known health of the given provider, if probed yet
func (m *Monitor) Latest(name string) (Status, bool) {
	raw, ok := m.latest.Load(strings.ToUpper(name))
	if !ok {
		return Status{}, false
	}

	status, _ := raw.(Status)

	return status, true
}

// Start starts the monitoring service loop [BLOCKING]
func (m *Monitor) Start(ctx context.Context) error {
	collectorCh := make(chan *workerResponse, 100)

	ticker := time.NewTicker(m.queryInterval)
	defer ticker.Stop()

	// handleProbes spawns all probe jobs that are due
	handleProbes := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				next := m.nextProbe()
				if next == nil {
					return // nothing due anymore
				}

				info := &workerInfo{
					prober:     m.prober,
					provider:   next.provider,
					providerID: next.providerID,
					resCh:      collectorCh,
				}

				go handleJob(ctx, info)
			}
		}
	}

	// Probe everything on boot
	handleProbes()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("health monitor shut down")

			return nil
		case <-ticker.C:
			handleProbes()
		case response := <-collectorCh:
			rpRaw, ok := m.registeredProviders.Load(response.providerID)
			if !ok {
				m.logger.Error(
					"unable to load registered provider",
					"id", response.providerID.String(),
				)

				continue
			}

			rp, _ := rpRaw.(provider.Provider)

			m.record(rp.Name(), response)

			// Schedule the next probe for this provider
			m.scheduleProbe(
				response.checkedAt.Add(m.probeInterval),
				response.providerID,
				rp,
			)
		}
	}
}

// record stores the probe result, logging health transitions
func (m *Monitor) record(name string, response *workerResponse) {
	status := Status{
		CheckedAt: response.checkedAt,
		Elapsed:   response.elapsed,
		Healthy:   response.healthy,
	}

	prevRaw, loaded := m.latest.Swap(strings.ToUpper(name), status)

	prev, _ := prevRaw.(Status)
	if loaded && prev.Healthy == status.Healthy {
		return
	}

	if status.Healthy {
		m.logger.Info(
			"provider is healthy",
			"name", name,
			"elapsed", status.Elapsed.String(),
		)

		return
	}

	m.logger.Warn(
		"provider is unhealthy",
		"name", name,
	)
}

// scheduleProbe schedules a new provider probe
func (m *Monitor) scheduleProbe(
	at time.Time,
	providerID xid.ID,
	p provider.Provider,
) {
	m.qMux.Lock()
	defer m.qMux.Unlock()

	m.q.Push(scheduledProbe{
		at:         at,
		providerID: providerID,
		provider:   p,
	})
}

// nextProbe fetches the next due probe job, as of the moment of calling
func (m *Monitor) nextProbe() *scheduledProbe {
	m.qMux.Lock()
	defer m.qMux.Unlock()

	now := time.Now().UTC()

	if m.q.Len() == 0 {
		return nil // nothing to schedule, all jobs are running
	}

	if m.q.Index(0).at.After(now) {
		return nil // the earliest job is in the future
	}

	return m.q.PopFront()
}
