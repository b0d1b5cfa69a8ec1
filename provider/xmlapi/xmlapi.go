// Package xmlapi is the adapter for XML quote providers (API2).
//
// Request:
//
//	POST {url}/exchange
//	<XML><From>USD</From><To>EUR</To><Amount>100</Amount></XML>
//
// Reply, carrying the converted amount:
//
//	<XML><Result>85</Result></XML>
package xmlapi

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/fxcompare/provider"
	"github.com/sig-0/fxcompare/quote"
)

var errMissingResult = errors.New("missing Result element")

type exchangeRequest struct {
	XMLName xml.Name `xml:"XML"`
	From    string   `xml:"From"`
	To      string   `xml:"To"`
	Amount  string   `xml:"Amount"`
}

type exchangeResponse struct {
	XMLName xml.Name `xml:"XML"`
	Result  *string  `xml:"Result"`
}

// Provider is the XML provider adapter
type Provider struct {
	endpoint *provider.Endpoint
}

// New creates a new XML provider adapter
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

	payload, err := xml.Marshal(&exchangeRequest{
		From:   req.Source(),
		To:     req.Target(),
		Amount: req.Amount().String(),
	})
	if err != nil {
		return provider.FailedOutcome(p.Name(), fmt.Errorf("unable to encode request: %w", err), time.Since(start))
	}

	body, err := p.endpoint.Do(ctx, http.MethodPost, "/exchange", "application/xml", payload, creds)
	if err != nil {
		return provider.FailedOutcome(p.Name(), err, time.Since(start))
	}

	converted, err := parseResult(body)
	if err != nil {
		return provider.FailedOutcome(p.Name(), provider.InvalidResponse(err), time.Since(start))
	}

	return provider.Complete(p.Name(), req, nil, &converted, time.Since(start))
}

func (p *Provider) Probe(ctx context.Context) bool {
	return p.endpoint.Probe(ctx)
}

// parseResult extracts the converted amount from the reply
func parseResult(body []byte) (decimal.Decimal, error) {
	var resp exchangeResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("unable to decode reply: %w", err)
	}

	if resp.Result == nil || strings.TrimSpace(*resp.Result) == "" {
		return decimal.Zero, errMissingResult
	}

	v, err := decimal.NewFromString(strings.TrimSpace(*resp.Result))
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse result %q: %w", *resp.Result, err)
	}

	return v, nil
}
