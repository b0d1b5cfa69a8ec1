// Package jsonapi is the adapter for flat JSON quote providers (API1).
//
// Request:
//
//	POST {url}/exchange
//	{"from": "USD", "to": "EUR", "value": 100}
//
// Reply:
//
//	{"rate": 0.85}
//
// An optional "convertedAmount" field is checked against rate x value.
package jsonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/fxcompare/provider"
	"github.com/sig-0/fxcompare/quote"
)

type exchangeRequest struct {
	From  string      `json:"from"`
	To    string      `json:"to"`
	Value json.Number `json:"value"`
}

type exchangeResponse struct {
	Rate            decimal.NullDecimal `json:"rate"`
	ConvertedAmount decimal.NullDecimal `json:"convertedAmount"`
}

// Provider is the flat JSON provider adapter
type Provider struct {
	endpoint *provider.Endpoint
}

// New creates a new flat JSON provider adapter
func New(cfg provider.Config) *Provider {
	return &Provider{
		endpoint: provider.NewEndpoint(cfg),
	}
}

func (p *Provider) Name() string {
	return p.endpoint.Name()
}

func (p *Provider) Fetch(
	ctx context.Context,
	req quote.Request,
	creds quote.Credentials,
) quote.Outcome {
	start := time.Now()

	payload, err := json.Marshal(&exchangeRequest{
		From:  req.Source(),
		To:    req.Target(),
		Value: json.Number(req.Amount().String()),
	})
	if err != nil {
		return provider.FailedOutcome(p.Name(), fmt.Errorf("unable to encode request: %w", err), time.Since(start))
	}

	body, err := p.endpoint.Do(ctx, http.MethodPost, "/exchange", "application/json", payload, creds)
	if err != nil {
		return provider.FailedOutcome(p.Name(), err, time.Since(start))
	}

	var resp exchangeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return provider.FailedOutcome(
			p.Name(),
			provider.InvalidResponse(fmt.Errorf("unable to decode reply: %w", err)),
			time.Since(start),
		)
	}

	var rate, converted *decimal.Decimal

	if resp.Rate.Valid {
		rate = &resp.Rate.Decimal
	}

	if resp.ConvertedAmount.Valid {
		converted = &resp.ConvertedAmount.Decimal
	}

	if rate == nil {
		// the rate is the mandatory field of this format
		converted = nil
	}

	return provider.Complete(p.Name(), req, rate, converted, time.Since(start))
}

func (p *Provider) Probe(ctx context.Context) bool {
	return p.endpoint.Probe(ctx)
}
