package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker/v2"

	"github.com/sig-0/fxcompare/provider"
	"github.com/sig-0/fxcompare/quote"
)

var (
	errTransientFailure = errors.New("transient provider failure")
	errPermanentFailure = errors.New("permanent provider failure")
)

// Wrapper guards a single provider with a per-attempt timeout,
// retries of transient failures and a circuit breaker.
// The retry loop runs outside the breaker, so every attempt is
// accounted for by the breaker, and an open circuit stops the retries
type Wrapper struct {
	provider provider.Provider
	breaker  *gobreaker.CircuitBreaker[quote.Outcome]
	logger   *slog.Logger

	policy  Policy
	timeout time.Duration
}

// New wraps the given provider. A non-positive timeout falls back to DefaultTimeout
func New(p provider.Provider, timeout time.Duration, opts ...Option) *Wrapper {
	w := &Wrapper{
		provider: p,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy:   DefaultPolicy(),
		timeout:  timeout,
	}

	// Apply the options
	for _, opt := range opts {
		opt(w)
	}

	if w.timeout <= 0 {
		w.timeout = DefaultTimeout
	}

	w.policy = withDefaults(w.policy)

	threshold := w.policy.FailureThreshold

	w.breaker = gobreaker.NewCircuitBreaker[quote.Outcome](gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: w.policy.HalfOpenRequests,
		Timeout:     w.policy.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// only transient failures count against the circuit
			return !errors.Is(err, errTransientFailure)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			w.logger.Warn(
				"circuit state changed",
				"provider", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return w
}

// Name returns the name of the wrapped provider
func (w *Wrapper) Name() string {
	return w.provider.Name()
}

// State returns the circuit state: closed, half-open or open
func (w *Wrapper) State() string {
	return w.breaker.State().String()
}

// Call fetches a quote from the wrapped provider, applying the policy.
// It always resolves to exactly one Outcome. The elapsed time of the
// outcome covers all attempts and backoff delays
func (w *Wrapper) Call(
	ctx context.Context,
	req quote.Request,
	creds quote.Credentials,
) quote.Outcome {
	var (
		start   = time.Now()
		outcome quote.Outcome
		tried   bool

		backoff = retry.WithMaxRetries(
			w.policy.MaxRetries,
			retry.NewExponential(w.policy.BackoffBase),
		)
	)

	//nolint:errcheck // the outcome carries the failure
	_ = retry.Do(ctx, backoff, func(ctx context.Context) error {
		outcome = w.attempt(ctx, req, creds)
		tried = true

		switch {
		case outcome.Success:
			return nil
		case outcome.Kind.Transient():
			w.logger.Debug(
				"transient provider failure",
				"provider", w.Name(),
				"kind", outcome.Kind.String(),
				"err", outcome.Message,
			)

			return retry.RetryableError(errTransientFailure)
		default:
			return errPermanentFailure
		}
	})

	if (!tried || !outcome.Success) && ctx.Err() != nil {
		return quote.Failed(
			w.Name(),
			quote.KindCancelled,
			ctx.Err().Error(),
			time.Since(start),
		)
	}

	return outcome.WithElapsed(time.Since(start))
}

// attempt runs a single fetch through the circuit breaker
func (w *Wrapper) attempt(
	ctx context.Context,
	req quote.Request,
	creds quote.Credentials,
) quote.Outcome {
	start := time.Now()

	outcome, err := w.breaker.Execute(func() (quote.Outcome, error) {
		out := w.fetch(ctx, req, creds)
		if !out.Success && out.Kind.Transient() {
			return out, errTransientFailure
		}

		return out, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return quote.Failed(
			w.Name(),
			quote.KindCircuitOpen,
			err.Error(),
			time.Since(start),
		)
	}

	return outcome
}

// fetch runs a single provider call bounded by the attempt timeout.
// A provider that does not honor its context is abandoned on timeout
func (w *Wrapper) fetch(
	ctx context.Context,
	req quote.Request,
	creds quote.Credentials,
) quote.Outcome {
	start := time.Now()

	attemptCtx, cancelFn := context.WithTimeout(ctx, w.timeout)
	defer cancelFn()

	resCh := make(chan quote.Outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error(
					"provider panicked",
					"provider", w.Name(),
					"panic", r,
				)

				resCh <- quote.Failed(
					w.Name(),
					quote.KindInvalidResponse,
					fmt.Sprintf("unexpected provider failure: %v", r),
					time.Since(start),
				)
			}
		}()

		resCh <- w.provider.Fetch(attemptCtx, req, creds)
	}()

	select {
	case out := <-resCh:
		out.Provider = w.Name()

		if out.Success {
			return out
		}

		return w.classifyDone(ctx, attemptCtx, out, start)
	case <-attemptCtx.Done():
		return w.classifyDone(
			ctx,
			attemptCtx,
			quote.Failed(w.Name(), quote.KindTimeout, "", time.Since(start)),
			start,
		)
	}
}

// classifyDone attributes a failed attempt to the caller or to the timeout,
// whenever one of the contexts is done
func (w *Wrapper) classifyDone(
	ctx, attemptCtx context.Context,
	out quote.Outcome,
	start time.Time,
) quote.Outcome {
	switch {
	case ctx.Err() != nil:
		return quote.Failed(w.Name(), quote.KindCancelled, ctx.Err().Error(), time.Since(start))
	case errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
		return quote.Failed(
			w.Name(),
			quote.KindTimeout,
			fmt.Sprintf("no reply within %s", w.timeout),
			time.Since(start),
		)
	default:
		return out
	}
}

func withDefaults(p Policy) Policy {
	def := DefaultPolicy()

	if p.BackoffBase <= 0 {
		p.BackoffBase = def.BackoffBase
	}

	if p.FailureThreshold == 0 {
		p.FailureThreshold = def.FailureThreshold
	}

	if p.Cooldown <= 0 {
		p.Cooldown = def.Cooldown
	}

	if p.HalfOpenRequests == 0 {
		p.HalfOpenRequests = def.HalfOpenRequests
	}

	return p
}
