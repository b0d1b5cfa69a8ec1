package health

import (
	"context"

	"github.com/sig-0/fxcompare/quote"
)

type probeDelegate func(context.Context) bool

type mockProvider struct {
	probeFn probeDelegate
	name    string
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Fetch(_ context.Context, _ quote.Request, _ quote.Credentials) quote.Outcome {
	return quote.Outcome{}
}

func (m *mockProvider) Probe(ctx context.Context) bool {
	if m.probeFn != nil {
		return m.probeFn(ctx)
	}

	return false
}

func healthyProvider(name string) *mockProvider {
	return &mockProvider{
		name: name,
		probeFn: func(_ context.Context) bool {
			return true
		},
	}
}
