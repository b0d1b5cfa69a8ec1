package aggregate

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/fxcompare/provider"
	"github.com/sig-0/fxcompare/quote"
	"github.com/sig-0/fxcompare/resilience"
	"github.com/sig-0/fxcompare/stats"
	"github.com/sig-0/fxcompare/storage"
	"github.com/sig-0/fxcompare/storage/types"
	"github.com/sig-0/fxcompare/telemetry"
)

// Aggregator fans a quote request out to every enabled provider,
// and selects the best offer among the successful replies
type Aggregator struct {
	registry *provider.Registry
	stats    *stats.Store
	wrappers map[string]*resilience.Wrapper

	storage storage.Storage
	metrics *telemetry.Metrics
	logger  *slog.Logger

	policy      resilience.Policy
	saveTimeout time.Duration
}

// New creates a new aggregator over the given registry.
// Every registered provider gets its own resilience wrapper
func New(registry *provider.Registry, store *stats.Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry:    registry,
		stats:       store,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy:      resilience.DefaultPolicy(),
		saveTimeout: time.Second * 5,
	}

	// Apply the options
	for _, opt := range opts {
		opt(a)
	}

	entries := registry.Entries()
	a.wrappers = make(map[string]*resilience.Wrapper, len(entries))

	for _, e := range entries {
		a.wrappers[e.Name()] = resilience.New(
			e.Provider,
			e.Timeout,
			resilience.WithPolicy(a.policy),
			resilience.WithLogger(a.logger),
		)
	}

	return a
}

// Quote runs a single aggregation round.
// Exactly one statistics update is applied per round that reaches the providers
func (a *Aggregator) Quote(
	ctx context.Context,
	req quote.Request,
	creds quote.Credentials,
) (*quote.Result, error) {
	if req.IsZero() || !req.Amount().IsPositive() {
		return nil, &quote.Error{
			Kind:    quote.KindInvalidRequest,
			Message: "request was not validated",
		}
	}

	entries := a.registry.EnabledEntries()
	if len(entries) == 0 {
		return nil, &quote.Error{Kind: quote.KindNoProvidersEnabled}
	}

	var (
		start    = time.Now()
		outcomes = make([]quote.Outcome, len(entries))
		g        errgroup.Group
	)

	for i, e := range entries {
		w := a.wrappers[e.Name()]

		g.Go(func() error {
			// each call writes only its own slot
			outcomes[i] = w.Call(ctx, req, creds)

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // calls never error

	var (
		totalElapsed = time.Since(start)
		best, found  = selectBest(outcomes)
		winner       string
	)

	if found {
		winner = best.Provider
	}

	a.stats.RecordRound(outcomes, totalElapsed, winner)
	a.metrics.ObserveRound(outcomes, winner, totalElapsed.Seconds())

	result := &quote.Result{
		ProducedAt:   time.Now().UTC(),
		RoundID:      xid.New().String(),
		Request:      req,
		Best:         best,
		Outcomes:     outcomes,
		TotalElapsed: totalElapsed,
	}

	a.saveRound(ctx, result, found)

	if !found {
		failures := make([]quote.Failure, 0, len(outcomes))
		for _, o := range outcomes {
			failures = append(failures, o.Failure())
		}

		a.logger.Warn(
			"all providers failed",
			"request", req.String(),
			"providers", len(outcomes),
		)

		return nil, &quote.Error{
			Kind:     quote.KindAllProvidersFailed,
			Failures: failures,
		}
	}

	a.logger.Info(
		"quote round completed",
		"request", req.String(),
		"winner", winner,
		"converted_amount", best.ConvertedAmount.String(),
		"successful", result.SuccessfulCount(),
		"total", result.TotalCount(),
		"elapsed", totalElapsed.String(),
	)

	return result, nil
}

// CircuitState returns the circuit state of the given provider,
// or an empty string for unknown providers
func (a *Aggregator) CircuitState(name string) string {
	entry, ok := a.registry.Lookup(name)
	if !ok {
		return ""
	}

	return a.wrappers[entry.Name()].State()
}

// selectBest picks the successful outcome with the largest converted amount.
// Ties go to the earliest outcome, which is the earliest registered provider
func selectBest(outcomes []quote.Outcome) (quote.Outcome, bool) {
	var (
		best  quote.Outcome
		found bool
	)

	for _, o := range outcomes {
		if !o.Success {
			continue
		}

		if !found || o.ConvertedAmount.GreaterThan(best.ConvertedAmount) {
			best = o
			found = true
		}
	}

	return best, found
}

// saveRound records the round in the audit trail, if any
func (a *Aggregator) saveRound(ctx context.Context, result *quote.Result, succeeded bool) {
	if a.storage == nil {
		return
	}

	round := &types.Round{
		ProducedAt:     result.ProducedAt,
		Amount:         result.Request.Amount(),
		ID:             result.RoundID,
		Source:         result.Request.Source(),
		Target:         result.Request.Target(),
		Outcomes:       make([]types.OutcomeRecord, 0, len(result.Outcomes)),
		TotalElapsedMs: float64(result.TotalElapsed) / float64(time.Millisecond),
		Succeeded:      succeeded,
	}

	if succeeded {
		round.Winner = result.Best.Provider
		round.BestRate = result.Best.Rate
		round.BestConvertedAmount = result.Best.ConvertedAmount
	}

	for _, o := range result.Outcomes {
		round.Outcomes = append(round.Outcomes, types.OutcomeRecord{
			Rate:            o.Rate,
			ConvertedAmount: o.ConvertedAmount,
			Provider:        o.Provider,
			ErrorKind:       o.Kind.String(),
			ErrorMessage:    o.Message,
			ElapsedMs:       o.ElapsedMillis(),
			Success:         o.Success,
		})
	}

	// the round is saved even if the caller went away
	saveCtx, cancelFn := context.WithTimeout(context.WithoutCancel(ctx), a.saveTimeout)
	defer cancelFn()

	if err := a.storage.SaveRound(saveCtx, round); err != nil {
		a.logger.Error(
			"unable to save quote round",
			"id", round.ID,
			"err", err,
		)
	}
}
