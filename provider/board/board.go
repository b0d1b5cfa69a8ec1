package board

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/sig-0/fxcompare/provider"
	"github.com/sig-0/fxcompare/quote"
)

// DefaultMaxAge is the oldest board publication accepted by default
const DefaultMaxAge = 24 * time.Hour

var (
	errInvalidRate = errors.New("invalid rate")
	errMissingPair = errors.New("pair not quoted on the board")
	errStaleBoard  = errors.New("board is stale")
)

// Provider is the HTML rate board adapter
type Provider struct {
	endpoint *provider.Endpoint
	now      func() time.Time
	maxAge   time.Duration
}

// New creates a new HTML rate board adapter
func New(cfg provider.Config, maxAge time.Duration) *Provider {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	return &Provider{
		endpoint: provider.NewEndpoint(cfg),
		now:      time.Now,
		maxAge:   maxAge,
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

	query := url.Values{}
	query.Set("from", req.Source())
	query.Set("to", req.Target())

	body, err := p.endpoint.Do(ctx, http.MethodGet, "/rates?"+query.Encode(), "", nil, creds)
	if err != nil {
		return provider.FailedOutcome(p.Name(), err, time.Since(start))
	}

	// Construct document for parsing
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return provider.FailedOutcome(
			p.Name(),
			provider.InvalidResponse(fmt.Errorf("unable to construct query doc: %w", err)),
			time.Since(start),
		)
	}

	if publishedAt := parsePublishedAt(doc); publishedAt != nil &&
		p.now().Sub(*publishedAt) > p.maxAge {
		return provider.FailedOutcome(
			p.Name(),
			provider.InvalidResponse(fmt.Errorf("%w: published %s", errStaleBoard, publishedAt.Format(time.RFC3339))),
			time.Since(start),
		)
	}

	rate, err := findRate(doc, req.Source(), req.Target())
	if err != nil {
		return provider.FailedOutcome(p.Name(), provider.InvalidResponse(err), time.Since(start))
	}

	return provider.Complete(p.Name(), req, &rate, nil, time.Since(start))
}

func (p *Provider) Probe(ctx context.Context) bool {
	return p.endpoint.Probe(ctx)
}

// findRate locates the rate cell of the given pair on the board
func findRate(doc *goquery.Document, source, target string) (decimal.Decimal, error) {
	pair := source + "-" + target

	sel := doc.Find(fmt.Sprintf(`[data-pair=%q]`, pair)).First()
	if sel.Length() == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s", errMissingPair, pair)
	}

	txt := sel.Find(".rate").First().Text()
	if strings.TrimSpace(txt) == "" {
		txt = sel.AttrOr("data-rate", "")
	}

	v, err := parseBoardNumber(txt)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse rate value for %s: %w", pair, err)
	}

	return v, nil
}

// parseBoardNumber parses a board figure, accepting both "1,234.56"
// and "1.234,56" notations
func parseBoardNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errInvalidRate
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma > lastDot:
		// decimal comma: "1.234,56" -> "1234.56"
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse rate %q: %w", s, err)
	}

	return v, nil
}

// parsePublishedAt parses the machine-readable publication time, if any
func parsePublishedAt(doc *goquery.Document) *time.Time {
	sel := doc.Find("time[datetime]").First()
	if sel.Length() == 0 {
		return nil
	}

	content, _ := sel.Attr("datetime")

	t, err := time.Parse(time.RFC3339, strings.TrimSpace(content))
	if err != nil {
		return nil
	}

	u := t.UTC()

	return &u
}
