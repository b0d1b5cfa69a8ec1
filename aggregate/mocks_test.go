package aggregate

import (
	"context"

	"github.com/sig-0/fxcompare/quote"
)

type (
	fetchDelegate func(context.Context, quote.Request, quote.Credentials) quote.Outcome
	probeDelegate func(context.Context) bool
)

type mockProvider struct {
	fetchFn fetchDelegate
	probeFn probeDelegate
	name    string
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Fetch(ctx context.Context, req quote.Request, creds quote.Credentials) quote.Outcome {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, req, creds)
	}

	return quote.Outcome{}
}

func (m *mockProvider) Probe(ctx context.Context) bool {
	if m.probeFn != nil {
		return m.probeFn(ctx)
	}

	return false
}
