package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/fxcompare/health"
	"github.com/sig-0/fxcompare/provider"
	"github.com/sig-0/fxcompare/provider/currencies"
	"github.com/sig-0/fxcompare/quote"
	"github.com/sig-0/fxcompare/stats"
	"github.com/sig-0/fxcompare/storage"
	"github.com/sig-0/fxcompare/storage/types"
)

// maxRequestBody caps the size of a JSON request body
const maxRequestBody = 1 << 16

// Per-request credential headers, as X-<PROVIDER>-<suffix>
const (
	keyHeaderSuffix    = "-Key"
	secretHeaderSuffix = "-Secret"
	tokenHeaderSuffix  = "-Token"
)

var (
	errUnableToFetchRounds = errors.New("unable to fetch rounds")

	errInvalidBody    = errors.New("invalid request body")
	errInvalidLimit   = errors.New("invalid limit")
	errInvalidOffset  = errors.New("invalid offset")
	errMissingEnabled = errors.New("missing enabled flag")
	errNoProviders    = errors.New("no providers to toggle")
)

func (s *Server) BestQuote(w http.ResponseWriter, r *http.Request) {
	var body QuoteRequest

	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)

		return
	}

	req, err := quote.NewRequest(body.SourceCurrency, body.TargetCurrency, body.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	result, err := s.quoter.Quote(r.Context(), req, s.credentials(r))
	if err != nil {
		s.logger.Debug(
			"unable to produce quote",
			"request", req.String(),
			"err", err,
		)

		writeError(w, quoteErrorStatus(err), err)

		return
	}

	writeJSON(w, http.StatusOK, newQuoteResponse(result))
}

func (s *Server) Statistics(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.stats.Snapshot()

	resp := &StatisticsResponse{
		StartedAt:             snapshot.StartedAt,
		LastReset:             snapshot.LastReset,
		TotalRequests:         snapshot.TotalRequests,
		SuccessfulRequests:    snapshot.SuccessfulRequests,
		FailedRequests:        snapshot.FailedRequests,
		SuccessRate:           snapshot.SuccessRate(),
		AverageResponseTimeMs: snapshot.AverageResponseTimeMs,
		UptimeSeconds:         snapshot.Uptime.Seconds(),
		Providers:             make([]ProviderStatsResponse, 0, len(s.registry.Names())),
	}

	// Every registered provider is listed, called or not
	for _, name := range s.registry.Names() {
		ps, ok := snapshot.Providers[name]
		if !ok {
			ps = stats.ProviderStats{Name: name}
		}

		resp.Providers = append(resp.Providers, ProviderStatsResponse{
			ProviderStats: ps,
			CircuitState:  s.quoter.CircuitState(name),
			SuccessRate:   ps.SuccessRate(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ResetStatistics(w http.ResponseWriter, _ *http.Request) {
	s.stats.Reset()

	snapshot := s.stats.Snapshot()

	s.logger.Info("statistics reset")

	writeJSON(w, http.StatusOK, &ResetResponse{
		ResetAt: snapshot.LastReset,
		Message: "statistics reset",
	})
}

func (s *Server) ProviderHealth(w http.ResponseWriter, r *http.Request) {
	report := health.Summarize(s.prober.ProbeAll(r.Context()))

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) Providers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.providersResponse())
}

func (s *Server) ToggleProvider(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body ToggleRequest

	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)

		return
	}

	if body.Enabled == nil {
		writeError(w, http.StatusBadRequest, errMissingEnabled)

		return
	}

	if err := s.registry.Toggle(name, *body.Enabled); err != nil {
		writeError(w, http.StatusNotFound, err)

		return
	}

	s.logger.Info(
		"provider toggled",
		"name", name,
		"enabled", *body.Enabled,
	)

	entry, _ := s.registry.Lookup(name)

	writeJSON(w, http.StatusOK, s.providerStatus(entry))
}

func (s *Server) ToggleProviders(w http.ResponseWriter, r *http.Request) {
	var body BulkToggleRequest

	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)

		return
	}

	if len(body.Providers) == 0 {
		writeError(w, http.StatusBadRequest, errNoProviders)

		return
	}

	// Validate every name before applying anything
	for name := range body.Providers {
		if _, ok := s.registry.Lookup(name); !ok {
			writeError(w, http.StatusNotFound, provider.ErrUnknownProvider)

			return
		}
	}

	for name, enabled := range body.Providers {
		_ = s.registry.Toggle(name, enabled) //nolint:errcheck // validated above

		s.logger.Info(
			"provider toggled",
			"name", name,
			"enabled", enabled,
		)
	}

	writeJSON(w, http.StatusOK, s.providersResponse())
}

func (s *Server) Rounds(w http.ResponseWriter, r *http.Request) {
	var (
		sourceParam = r.URL.Query().Get("source")
		targetParam = r.URL.Query().Get("target")
		winnerParam = r.URL.Query().Get("winner")

		limitParam  = r.URL.Query().Get("limit")
		offsetParam = r.URL.Query().Get("offset")
	)

	// Parse the currency filters (optional)
	source, err := parseOptionalCurrency(sourceParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	target, err := parseOptionalCurrency(targetParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	// Parse the pagination settings
	limit, offset, err := parseLimitOffset(limitParam, offsetParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	q := &types.RoundQuery{
		Source: source,
		Target: target,
		Limit:  limit,
		Offset: offset,
	}

	if v := strings.TrimSpace(winnerParam); v != "" {
		winner := strings.ToUpper(v)

		q.Winner = &winner
	}

	page, err := s.storage.Rounds(r.Context(), q)
	if err != nil {
		s.logger.Debug(
			"unable to fetch rounds",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchRounds,
		)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) Round(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	round, err := s.storage.RoundByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrRoundNotFound) {
			writeError(w, http.StatusNotFound, err)

			return
		}

		s.logger.Debug(
			"unable to fetch round",
			"id", id,
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchRounds,
		)

		return
	}

	writeJSON(w, http.StatusOK, round)
}

func (s *Server) Currencies(w http.ResponseWriter, _ *http.Request) {
	resp := &CurrenciesResponse{
		Results: currencies.Supported(),
	}

	writeJSON(w, http.StatusOK, resp)
}

// credentials extracts the per-request provider credentials from the headers
func (s *Server) credentials(r *http.Request) quote.Credentials {
	creds := make(quote.Credentials)

	for _, name := range s.registry.Names() {
		prefix := "X-" + name

		cred := quote.Credential{
			APIKey:      r.Header.Get(prefix + keyHeaderSuffix),
			APISecret:   r.Header.Get(prefix + secretHeaderSuffix),
			BearerToken: r.Header.Get(prefix + tokenHeaderSuffix),
		}

		if !cred.IsZero() {
			creds.Set(name, cred)
		}
	}

	return creds
}

func (s *Server) providersResponse() *ProvidersResponse {
	entries := s.registry.Entries()

	resp := &ProvidersResponse{
		Results: make([]ProviderStatusResponse, 0, len(entries)),
	}

	for _, e := range entries {
		resp.Results = append(resp.Results, s.providerStatus(e))
	}

	return resp
}

func (s *Server) providerStatus(e provider.Entry) ProviderStatusResponse {
	status := ProviderStatusResponse{
		Name:           e.Name(),
		URL:            e.URL,
		CircuitState:   s.quoter.CircuitState(e.Name()),
		TimeoutSeconds: e.Timeout.Seconds(),
		Enabled:        s.registry.Enabled(e.Name()),
	}

	if s.monitor != nil {
		if latest, ok := s.monitor.Latest(e.Name()); ok {
			status.Health = &latest
		}
	}

	return status
}

func newQuoteResponse(result *quote.Result) *QuoteResponse {
	resp := &QuoteResponse{
		ProducedAt:          result.ProducedAt,
		Amount:              result.Request.Amount(),
		AverageRate:         result.AverageRate(),
		RoundID:             result.RoundID,
		SourceCurrency:      result.Request.Source(),
		TargetCurrency:      result.Request.Target(),
		Summary:             result.Summary(),
		Best:                newOutcomeResponse(result.Best),
		Outcomes:            make([]OutcomeResponse, 0, len(result.Outcomes)),
		SuccessfulProviders: result.SuccessfulCount(),
		TotalProviders:      result.TotalCount(),
		SuccessRate:         result.SuccessRate(),
		TotalElapsedMs:      float64(result.TotalElapsed) / float64(time.Millisecond),
	}

	for _, o := range result.Outcomes {
		resp.Outcomes = append(resp.Outcomes, newOutcomeResponse(o))
	}

	return resp
}

func newOutcomeResponse(o quote.Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		Provider:  o.Provider,
		ElapsedMs: o.ElapsedMillis(),
		Success:   o.Success,
	}

	if !o.Success {
		resp.ErrorKind = o.Kind
		resp.ErrorMessage = o.Message

		return resp
	}

	rate, converted := o.Rate, o.ConvertedAmount

	resp.Rate = &rate
	resp.ConvertedAmount = &converted

	return resp
}

// quoteErrorStatus maps a failed round to its HTTP status
func quoteErrorStatus(err error) int {
	switch {
	case errors.Is(err, quote.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, quote.ErrNoProvidersEnabled),
		errors.Is(err, quote.ErrAllProvidersFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parseLimitOffset(limitRaw, offsetRaw string) (int32, int64, error) {
	var limit int32

	if v := strings.TrimSpace(limitRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return 0, 0, errInvalidLimit
		}

		limit = int32(n)
	}

	var offset int64

	if v := strings.TrimSpace(offsetRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, errInvalidOffset
		}

		offset = n
	}

	return storage.NormalizeLimit(limit), offset, nil
}

func parseOptionalCurrency(v string) (*string, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}

	code, err := quote.NormalizeCode(v)
	if err != nil {
		return nil, fmt.Errorf("invalid currency: %w", err)
	}

	return &code, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Error: err.Error(),
	}

	var qErr *quote.Error
	if errors.As(err, &qErr) {
		resp.Kind = qErr.Kind
		resp.Failures = qErr.Failures
	}

	writeJSON(w, status, resp)
}
