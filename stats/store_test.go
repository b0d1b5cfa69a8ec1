package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxcompare/quote"
)

func success(provider string, elapsed time.Duration) quote.Outcome {
	return quote.Succeeded(provider, decimal.RequireFromString("0.85"), decimal.NewFromInt(85), elapsed)
}

func failure(provider string, kind quote.Kind, elapsed time.Duration) quote.Outcome {
	return quote.Failed(provider, kind, "", elapsed)
}

func TestStore_RecordRound(t *testing.T) {
	t.Parallel()

	t.Run("round and provider counters", func(t *testing.T) {
		t.Parallel()

		s := NewStore()

		s.RecordRound(
			[]quote.Outcome{
				success("API1", 10*time.Millisecond),
				failure("API2", quote.KindTimeout, 30*time.Millisecond),
			},
			40*time.Millisecond,
			"API1",
		)

		snap := s.Snapshot()

		assert.Equal(t, uint64(1), snap.TotalRequests)
		assert.Equal(t, uint64(1), snap.SuccessfulRequests)
		assert.Equal(t, uint64(0), snap.FailedRequests)
		assert.InDelta(t, 40.0, snap.AverageResponseTimeMs, 0.0001)

		api1 := snap.Providers["API1"]
		assert.Equal(t, uint64(1), api1.TotalRequests)
		assert.Equal(t, uint64(1), api1.SuccessfulRequests)
		assert.Equal(t, uint64(1), api1.BestOfferCount)
		assert.NotNil(t, api1.LastSuccessAt)
		assert.Nil(t, api1.LastErrorAt)

		api2 := snap.Providers["API2"]
		assert.Equal(t, uint64(1), api2.FailedRequests)
		assert.Equal(t, quote.KindTimeout, api2.LastErrorKind)
		assert.Equal(t, "Timeout", api2.LastError)
		assert.Equal(t, uint64(0), api2.BestOfferCount)
		assert.NotNil(t, api2.LastErrorAt)
	})

	t.Run("failed round only when all providers failed", func(t *testing.T) {
		t.Parallel()

		s := NewStore()

		s.RecordRound(
			[]quote.Outcome{
				failure("API1", quote.KindTransportError, time.Millisecond),
				failure("API2", quote.KindRateLimited, time.Millisecond),
			},
			time.Millisecond,
			"",
		)

		snap := s.Snapshot()

		assert.Equal(t, uint64(1), snap.TotalRequests)
		assert.Equal(t, uint64(0), snap.SuccessfulRequests)
		assert.Equal(t, uint64(1), snap.FailedRequests)
		assert.Equal(t, uint64(2), snap.Providers["API1"].TotalRequests+snap.Providers["API2"].TotalRequests)
	})

	t.Run("incremental mean", func(t *testing.T) {
		t.Parallel()

		var (
			s         = NewStore()
			durations = []float64{12, 7, 30, 3, 18}
			expected  float64
		)

		for i, ms := range durations {
			d := time.Duration(ms * float64(time.Millisecond))

			s.RecordRound([]quote.Outcome{success("API1", d)}, d, "API1")

			expected += (ms - expected) / float64(i+1)
		}

		snap := s.Snapshot()

		assert.InDelta(t, expected, snap.AverageResponseTimeMs, 1e-9)
		assert.InDelta(t, 14.0, snap.AverageResponseTimeMs, 1e-9)
		assert.InDelta(t, 14.0, snap.Providers["API1"].AverageResponseTimeMs, 1e-9)
		assert.Equal(t, uint64(5), snap.Providers["API1"].BestOfferCount)
	})

	t.Run("concurrent rounds", func(t *testing.T) {
		t.Parallel()

		var (
			s  = NewStore()
			wg sync.WaitGroup
		)

		const rounds = 100

		for i := 0; i < rounds; i++ {
			wg.Add(2)

			go func() {
				defer wg.Done()

				s.RecordRound(
					[]quote.Outcome{
						success("API1", time.Millisecond),
						failure("API2", quote.KindTimeout, time.Millisecond),
					},
					time.Millisecond,
					"API1",
				)
			}()

			go func() {
				defer wg.Done()

				snap := s.Snapshot()

				// a snapshot never observes a partially applied round
				assert.Equal(t, snap.TotalRequests, snap.Providers["API1"].TotalRequests)
				assert.Equal(t, snap.TotalRequests, snap.Providers["API2"].TotalRequests)
			}()
		}

		wg.Wait()

		snap := s.Snapshot()

		assert.Equal(t, uint64(rounds), snap.TotalRequests)
		assert.Equal(t, uint64(rounds), snap.Providers["API1"].BestOfferCount)
		assert.Equal(t, uint64(rounds), snap.Providers["API2"].FailedRequests)
	})
}

func TestStore_Snapshot(t *testing.T) {
	t.Parallel()

	var (
		start = time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)
		now   = start
	)

	s := newStore(func() time.Time {
		return now
	})

	s.RecordRound([]quote.Outcome{success("API1", time.Millisecond)}, time.Millisecond, "API1")

	now = start.Add(time.Minute)

	snap := s.Snapshot()
	assert.Equal(t, time.Minute, snap.Uptime)

	// mutating the copy leaves the store intact
	api1 := snap.Providers["API1"]
	api1.TotalRequests = 42
	snap.Providers["API1"] = api1
	*snap.Providers["API1"].LastSuccessAt = time.Time{}

	again := s.Snapshot()
	assert.Equal(t, uint64(1), again.Providers["API1"].TotalRequests)
	require.NotNil(t, again.Providers["API1"].LastSuccessAt)
	assert.Equal(t, start, *again.Providers["API1"].LastSuccessAt)
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()

	var (
		start = time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)
		now   = start
	)

	s := newStore(func() time.Time {
		return now
	})

	s.RecordRound([]quote.Outcome{success("API1", time.Millisecond)}, time.Millisecond, "API1")

	now = start.Add(time.Hour)
	s.Reset()

	snap := s.Snapshot()

	assert.Equal(t, uint64(0), snap.TotalRequests)
	assert.Equal(t, uint64(0), snap.SuccessfulRequests)
	assert.Zero(t, snap.AverageResponseTimeMs)
	assert.Empty(t, snap.Providers)
	assert.Equal(t, start.Add(time.Hour), snap.LastReset)
	assert.Equal(t, start, snap.StartedAt)
	assert.Equal(t, time.Hour, snap.Uptime)
}
