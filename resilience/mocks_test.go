package resilience

import (
	"context"

	"github.com/sig-0/fxcompare/quote"
)

type fetchDelegate func(context.Context, quote.Request, quote.Credentials) quote.Outcome

type mockProvider struct {
	fetchFn fetchDelegate
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

func (m *mockProvider) Probe(_ context.Context) bool {
	return true
}
