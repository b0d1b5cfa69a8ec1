package provider

import (
	"context"

	"github.com/sig-0/fxcompare/quote"
)

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
