package aggregate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxcompare/provider"
	"github.com/sig-0/fxcompare/quote"
	"github.com/sig-0/fxcompare/resilience"
	"github.com/sig-0/fxcompare/stats"
	"github.com/sig-0/fxcompare/storage/mock"
	"github.com/sig-0/fxcompare/storage/types"
)

func testPolicy() resilience.Policy {
	return resilience.Policy{
		MaxRetries:       0,
		BackoffBase:      time.Millisecond,
		FailureThreshold: 3,
		Cooldown:         time.Minute,
		HalfOpenRequests: 1,
	}
}

func newRequest(t *testing.T) quote.Request {
	t.Helper()

	req, err := quote.NewRequest("USD", "EUR", decimal.NewFromInt(100))
	require.NoError(t, err)

	return req
}

// quoting returns a provider that converts at the given rate
func quoting(name, rate string) *mockProvider {
	return &mockProvider{
		name: name,
		fetchFn: func(_ context.Context, req quote.Request, _ quote.Credentials) quote.Outcome {
			r := decimal.RequireFromString(rate)

			return quote.Succeeded(name, r, r.Mul(req.Amount()), time.Millisecond)
		},
	}
}

func failing(name string, kind quote.Kind) *mockProvider {
	return &mockProvider{
		name: name,
		fetchFn: func(_ context.Context, _ quote.Request, _ quote.Credentials) quote.Outcome {
			return quote.Failed(name, kind, "failed", time.Millisecond)
		},
	}
}

func newAggregator(t *testing.T, providers []*mockProvider, opts ...Option) (*Aggregator, *provider.Registry, *stats.Store) {
	t.Helper()

	entries := make([]provider.Entry, 0, len(providers))
	for _, p := range providers {
		entries = append(entries, provider.Entry{
			Provider: p,
			Enabled:  true,
			Timeout:  time.Second,
		})
	}

	registry, err := provider.NewRegistry(entries...)
	require.NoError(t, err)

	store := stats.NewStore()

	opts = append([]Option{WithPolicy(testPolicy())}, opts...)

	return New(registry, store, opts...), registry, store
}

func TestAggregator_Quote(t *testing.T) {
	t.Parallel()

	t.Run("best offer wins", func(t *testing.T) {
		t.Parallel()

		a, _, store := newAggregator(t, []*mockProvider{
			quoting("API1", "0.84"),
			quoting("API2", "0.86"),
			quoting("API3", "0.85"),
		})

		res, err := a.Quote(context.Background(), newRequest(t), nil)
		require.NoError(t, err)

		assert.Equal(t, "API2", res.Best.Provider)
		assert.True(t, decimal.NewFromInt(86).Equal(res.Best.ConvertedAmount))
		assert.NotEmpty(t, res.RoundID)

		// outcomes keep registration order
		require.Len(t, res.Outcomes, 3)
		assert.Equal(t, "API1", res.Outcomes[0].Provider)
		assert.Equal(t, "API2", res.Outcomes[1].Provider)
		assert.Equal(t, "API3", res.Outcomes[2].Provider)

		snap := store.Snapshot()
		assert.Equal(t, uint64(1), snap.TotalRequests)
		assert.Equal(t, uint64(1), snap.SuccessfulRequests)
		assert.Equal(t, uint64(1), snap.Providers["API2"].BestOfferCount)
		assert.Equal(t, uint64(0), snap.Providers["API1"].BestOfferCount)
	})

	t.Run("ties go to the first registered", func(t *testing.T) {
		t.Parallel()

		a, _, _ := newAggregator(t, []*mockProvider{
			quoting("API3", "0.85"),
			quoting("API1", "0.85"),
		})

		res, err := a.Quote(context.Background(), newRequest(t), nil)
		require.NoError(t, err)

		assert.Equal(t, "API3", res.Best.Provider)
	})

	t.Run("partial failure", func(t *testing.T) {
		t.Parallel()

		a, _, store := newAggregator(t, []*mockProvider{
			failing("API1", quote.KindTransportError),
			quoting("API2", "0.86"),
			failing("API3", quote.KindAuthenticationFailure),
		})

		res, err := a.Quote(context.Background(), newRequest(t), nil)
		require.NoError(t, err)

		assert.Equal(t, "API2", res.Best.Provider)
		assert.Equal(t, 1, res.SuccessfulCount())
		assert.Equal(t, 3, res.TotalCount())
		assert.Equal(t, quote.KindAuthenticationFailure, res.Outcomes[2].Kind)

		snap := store.Snapshot()
		assert.Equal(t, uint64(1), snap.SuccessfulRequests)
		assert.Equal(t, uint64(1), snap.Providers["API1"].FailedRequests)
	})

	t.Run("all providers failed", func(t *testing.T) {
		t.Parallel()

		a, _, store := newAggregator(t, []*mockProvider{
			failing("API1", quote.KindTimeout),
			failing("API2", quote.KindRateLimited),
			failing("API3", quote.KindAuthenticationFailure),
		})

		res, err := a.Quote(context.Background(), newRequest(t), nil)
		require.Nil(t, res)
		require.ErrorIs(t, err, quote.ErrAllProvidersFailed)

		var qErr *quote.Error
		require.True(t, errors.As(err, &qErr))
		require.Len(t, qErr.Failures, 3)

		expected := map[string]quote.Kind{
			"API1": quote.KindTimeout,
			"API2": quote.KindRateLimited,
			"API3": quote.KindAuthenticationFailure,
		}

		for i, name := range []string{"API1", "API2", "API3"} {
			assert.Equal(t, name, qErr.Failures[i].Provider)
			assert.Equal(t, expected[name], qErr.Failures[i].Kind)
			assert.Contains(t, err.Error(), name)
		}

		snap := store.Snapshot()
		assert.Equal(t, uint64(1), snap.TotalRequests)
		assert.Equal(t, uint64(1), snap.FailedRequests)
	})

	t.Run("no providers enabled", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		p := &mockProvider{
			name: "API1",
			fetchFn: func(_ context.Context, _ quote.Request, _ quote.Credentials) quote.Outcome {
				calls.Add(1)

				return quote.Outcome{}
			},
		}

		a, registry, store := newAggregator(t, []*mockProvider{p})
		require.NoError(t, registry.Toggle("API1", false))

		_, err := a.Quote(context.Background(), newRequest(t), nil)

		assert.ErrorIs(t, err, quote.ErrNoProvidersEnabled)
		assert.Equal(t, int32(0), calls.Load())
		assert.Equal(t, uint64(0), store.Snapshot().TotalRequests)
	})

	t.Run("disabled providers are skipped", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		disabled := quoting("API2", "0.99")
		disabled.fetchFn = func(_ context.Context, _ quote.Request, _ quote.Credentials) quote.Outcome {
			calls.Add(1)

			return quote.Outcome{}
		}

		a, registry, _ := newAggregator(t, []*mockProvider{
			quoting("API1", "0.84"),
			disabled,
		})
		require.NoError(t, registry.Toggle("api2", false))

		res, err := a.Quote(context.Background(), newRequest(t), nil)
		require.NoError(t, err)

		assert.Equal(t, 1, res.TotalCount())
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("unvalidated request", func(t *testing.T) {
		t.Parallel()

		a, _, store := newAggregator(t, []*mockProvider{quoting("API1", "0.84")})

		_, err := a.Quote(context.Background(), quote.Request{}, nil)

		assert.ErrorIs(t, err, quote.ErrInvalidRequest)
		assert.Equal(t, uint64(0), store.Snapshot().TotalRequests)
	})

	t.Run("providers are queried concurrently", func(t *testing.T) {
		t.Parallel()

		slow := func(name string) *mockProvider {
			return &mockProvider{
				name: name,
				fetchFn: func(_ context.Context, req quote.Request, _ quote.Credentials) quote.Outcome {
					time.Sleep(100 * time.Millisecond)

					return quote.Succeeded(name, decimal.NewFromInt(1), req.Amount(), 100*time.Millisecond)
				},
			}
		}

		a, _, _ := newAggregator(t, []*mockProvider{slow("API1"), slow("API2"), slow("API3")})

		start := time.Now()

		_, err := a.Quote(context.Background(), newRequest(t), nil)
		require.NoError(t, err)

		assert.Less(t, time.Since(start), 250*time.Millisecond)
	})

	t.Run("caller cancellation", func(t *testing.T) {
		t.Parallel()

		blocking := func(name string) *mockProvider {
			return &mockProvider{
				name: name,
				fetchFn: func(ctx context.Context, _ quote.Request, _ quote.Credentials) quote.Outcome {
					<-ctx.Done()

					return quote.Failed(name, quote.KindTransportError, ctx.Err().Error(), 0)
				},
			}
		}

		a, _, store := newAggregator(t, []*mockProvider{blocking("API1"), blocking("API2")})

		ctx, cancelFn := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancelFn()

		_, err := a.Quote(ctx, newRequest(t), nil)

		var qErr *quote.Error
		require.True(t, errors.As(err, &qErr))
		assert.Equal(t, quote.KindAllProvidersFailed, qErr.Kind)

		for _, f := range qErr.Failures {
			assert.Equal(t, quote.KindCancelled, f.Kind)
		}

		assert.Equal(t, uint64(1), store.Snapshot().FailedRequests)
	})

	t.Run("credentials are forwarded", func(t *testing.T) {
		t.Parallel()

		p := &mockProvider{
			name: "API1",
			fetchFn: func(_ context.Context, req quote.Request, creds quote.Credentials) quote.Outcome {
				cred, ok := creds.For("API1")
				if !ok {
					return quote.Failed("API1", quote.KindMissingCredential, "", 0)
				}

				assert.Equal(t, "secret", cred.APIKey)

				return quote.Succeeded("API1", decimal.NewFromInt(1), req.Amount(), 0)
			},
		}

		a, _, _ := newAggregator(t, []*mockProvider{p})

		creds := quote.Credentials{}
		creds.Set("API1", quote.Credential{APIKey: "secret"})

		_, err := a.Quote(context.Background(), newRequest(t), creds)
		assert.NoError(t, err)
	})
}

func TestAggregator_Audit(t *testing.T) {
	t.Parallel()

	t.Run("rounds are saved", func(t *testing.T) {
		t.Parallel()

		var (
			mu    sync.Mutex
			saved []*types.Round
		)

		storage := &mock.Storage{
			SaveRoundFn: func(_ context.Context, round *types.Round) error {
				mu.Lock()
				defer mu.Unlock()

				saved = append(saved, round)

				return nil
			},
		}

		a, _, _ := newAggregator(
			t,
			[]*mockProvider{quoting("API1", "0.84"), failing("API2", quote.KindTimeout)},
			WithStorage(storage),
		)

		res, err := a.Quote(context.Background(), newRequest(t), nil)
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()

		require.Len(t, saved, 1)
		assert.Equal(t, res.RoundID, saved[0].ID)
		assert.Equal(t, "API1", saved[0].Winner)
		assert.True(t, saved[0].Succeeded)
		require.Len(t, saved[0].Outcomes, 2)
		assert.Equal(t, "Timeout", saved[0].Outcomes[1].ErrorKind)
	})

	t.Run("storage failure does not fail the round", func(t *testing.T) {
		t.Parallel()

		storage := &mock.Storage{
			SaveRoundFn: func(_ context.Context, _ *types.Round) error {
				return errors.New("boom")
			},
		}

		a, _, _ := newAggregator(t, []*mockProvider{quoting("API1", "0.84")}, WithStorage(storage))

		_, err := a.Quote(context.Background(), newRequest(t), nil)
		assert.NoError(t, err)
	})
}

func TestAggregator_CircuitState(t *testing.T) {
	t.Parallel()

	a, _, _ := newAggregator(t, []*mockProvider{failing("API1", quote.KindTransportError)})

	assert.Equal(t, "closed", a.CircuitState("api1"))

	for i := 0; i < 3; i++ {
		_, _ = a.Quote(context.Background(), newRequest(t), nil)
	}

	assert.Equal(t, "open", a.CircuitState("API1"))
	assert.Empty(t, a.CircuitState("API9"))
}
