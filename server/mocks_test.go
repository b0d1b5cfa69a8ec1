package server

import (
	"context"

	"github.com/sig-0/fxcompare/health"
	"github.com/sig-0/fxcompare/quote"
)

type (
	quoteDelegate        func(context.Context, quote.Request, quote.Credentials) (*quote.Result, error)
	circuitStateDelegate func(string) string
	probeAllDelegate     func(context.Context) map[string]bool
	latestDelegate       func(string) (health.Status, bool)
)

type mockQuoter struct {
	quoteFn        quoteDelegate
	circuitStateFn circuitStateDelegate
}

func (m *mockQuoter) Quote(
	ctx context.Context,
	req quote.Request,
	creds quote.Credentials,
) (*quote.Result, error) {
	if m.quoteFn != nil {
		return m.quoteFn(ctx, req, creds)
	}

	return nil, nil
}

func (m *mockQuoter) CircuitState(name string) string {
	if m.circuitStateFn != nil {
		return m.circuitStateFn(name)
	}

	return "closed"
}

type mockProber struct {
	probeAllFn probeAllDelegate
}

func (m *mockProber) ProbeAll(ctx context.Context) map[string]bool {
	if m.probeAllFn != nil {
		return m.probeAllFn(ctx)
	}

	return map[string]bool{}
}

type mockMonitor struct {
	latestFn latestDelegate
}

func (m *mockMonitor) Latest(name string) (health.Status, bool) {
	if m.latestFn != nil {
		return m.latestFn(name)
	}

	return health.Status{}, false
}

type mockProvider struct {
	name string
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Fetch(_ context.Context, _ quote.Request, _ quote.Credentials) quote.Outcome {
	return quote.Outcome{}
}

func (m *mockProvider) Probe(_ context.Context) bool {
	return true
}
