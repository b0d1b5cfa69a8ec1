package stats

import (
	"sync"
	"time"

	"github.com/sig-0/fxcompare/quote"
)

// Store keeps the process-local service statistics.
// It is safe for concurrent use
type Store struct {
	now func() time.Time

	providers map[string]*ProviderStats
	service   ServiceStats
	startedAt time.Time

	mu sync.Mutex
}

// NewStore creates a new, empty statistics store
func NewStore() *Store {
	return newStore(time.Now)
}

func newStore(now func() time.Time) *Store {
	startedAt := now().UTC()

	return &Store{
		now:       now,
		startedAt: startedAt,
		providers: make(map[string]*ProviderStats),
		service: ServiceStats{
			StartedAt: startedAt,
			LastReset: startedAt,
		},
	}
}

// observation is a single outcome, prepared for application under the lock
type observation struct {
	at        time.Time
	provider  string
	message   string
	kind      quote.Kind
	elapsedMs float64
	success   bool
}

// RecordRound folds the outcomes of a finished round into the statistics,
// as a single atomic update. The winner is the provider of the best offer,
// empty when every provider failed
func (s *Store) RecordRound(
	outcomes []quote.Outcome,
	totalElapsed time.Duration,
	winner string,
) {
	var (
		now          = s.now().UTC()
		observations = make([]observation, 0, len(outcomes))
		anySuccess   bool
		roundMs      = float64(totalElapsed) / float64(time.Millisecond)
	)

	for _, o := range outcomes {
		message := o.Message
		if message == "" && !o.Success {
			message = o.Kind.String()
		}

		observations = append(observations, observation{
			at:        now,
			provider:  o.Provider,
			message:   message,
			kind:      o.Kind,
			elapsedMs: o.ElapsedMillis(),
			success:   o.Success,
		})

		anySuccess = anySuccess || o.Success
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.service.TotalRequests++

	if anySuccess {
		s.service.SuccessfulRequests++
	} else {
		s.service.FailedRequests++
	}

	s.service.AverageResponseTimeMs = incrementalMean(
		s.service.AverageResponseTimeMs,
		roundMs,
		s.service.TotalRequests,
	)

	for _, obs := range observations {
		ps := s.providerLocked(obs.provider)

		ps.TotalRequests++
		ps.AverageResponseTimeMs = incrementalMean(ps.AverageResponseTimeMs, obs.elapsedMs, ps.TotalRequests)

		if obs.success {
			at := obs.at

			ps.SuccessfulRequests++
			ps.LastSuccessAt = &at

			continue
		}

		at := obs.at

		ps.FailedRequests++
		ps.LastError = obs.message
		ps.LastErrorKind = obs.kind
		ps.LastErrorAt = &at
	}

	if winner != "" {
		s.providerLocked(winner).BestOfferCount++
	}
}

// Snapshot returns a consistent deep copy of the statistics
func (s *Store) Snapshot() ServiceStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.service
	out.Uptime = s.now().UTC().Sub(s.startedAt)
	out.Providers = make(map[string]ProviderStats, len(s.providers))

	for name, ps := range s.providers {
		cp := *ps

		if ps.LastSuccessAt != nil {
			t := *ps.LastSuccessAt
			cp.LastSuccessAt = &t
		}

		if ps.LastErrorAt != nil {
			t := *ps.LastErrorAt
			cp.LastErrorAt = &t
		}

		out.Providers[name] = cp
	}

	return out
}

// Reset zeroes all counters, and stamps the reset time.
// The process start time is kept
func (s *Store) Reset() {
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.providers = make(map[string]*ProviderStats)
	s.service = ServiceStats{
		StartedAt: s.startedAt,
		LastReset: now,
	}
}

// providerLocked fetches or creates the provider entry. The lock must be held
func (s *Store) providerLocked(name string) *ProviderStats {
	ps, ok := s.providers[name]
	if !ok {
		ps = &ProviderStats{Name: name}
		s.providers[name] = ps
	}

	return ps
}

// incrementalMean folds x into the running mean of n-1 values
func incrementalMean(mean, x float64, n uint64) float64 {
	return mean + (x-mean)/float64(n)
}
