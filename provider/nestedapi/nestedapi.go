// Package nestedapi is the adapter for envelope-style JSON quote providers (API3).
//
// Request:
//
//	POST {url}/exchange
//	{"exchange": {"sourceCurrency": "USD", "targetCurrency": "EUR", "quantity": 100}}
//
// Reply, carrying the converted amount:
//
//	{"statusCode": 200, "message": "ok", "data": {"total": 85}}
package nestedapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/fxcompare/provider"
	"github.com/sig-0/fxcompare/quote"
)

const envelopeSuccess = 200

var (
	errMissingData = errors.New("missing data.total")
	errStatusNotOK = errors.New("envelope status is not 200")
)

type exchange struct {
	SourceCurrency string      `json:"sourceCurrency"`
	TargetCurrency string      `json:"targetCurrency"`
	Quantity       json.Number `json:"quantity"`
}

type exchangeRequest struct {
	Exchange exchange `json:"exchange"`
}

type exchangeData struct {
	Total decimal.NullDecimal `json:"total"`
}

type exchangeResponse struct {
	Data       *exchangeData `json:"data"`
	Message    string        `json:"message"`
	StatusCode int           `json:"statusCode"`
}

// Provider is the envelope JSON provider adapter
type Provider struct {
	endpoint *provider.Endpoint
}

// New creates a new envelope JSON provider adapter
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
		Exchange: exchange{
			SourceCurrency: req.Source(),
			TargetCurrency: req.Target(),
			Quantity:       json.Number(req.Amount().String()),
		},
	})
	if err != nil {
		return provider.FailedOutcome(p.Name(), fmt.Errorf("unable to encode request: %w", err), time.Since(start))
	}

	body, err := p.endpoint.Do(ctx, http.MethodPost, "/exchange", "application/json", payload, creds)
	if err != nil {
		return provider.FailedOutcome(p.Name(), err, time.Since(start))
	}

	total, err := parseTotal(body)
	if err != nil {
		return provider.FailedOutcome(p.Name(), provider.InvalidResponse(err), time.Since(start))
	}

	return provider.Complete(p.Name(), req, nil, &total, time.Since(start))
}

func (p *Provider) Probe(ctx context.Context) bool {
	return p.endpoint.Probe(ctx)
}

// parseTotal extracts the converted amount from the reply envelope
func parseTotal(body []byte) (decimal.Decimal, error) {
	var resp exchangeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("unable to decode reply: %w", err)
	}

	if resp.StatusCode != envelopeSuccess {
		return decimal.Zero, fmt.Errorf("%w: %d %s", errStatusNotOK, resp.StatusCode, resp.Message)
	}

	if resp.Data == nil || !resp.Data.Total.Valid {
		return decimal.Zero, errMissingData
	}

	return resp.Data.Total.Decimal, nil
}
