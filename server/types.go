package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/fxcompare/health"
	"github.com/sig-0/fxcompare/provider/currencies"
	"github.com/sig-0/fxcompare/quote"
	"github.com/sig-0/fxcompare/stats"
)

type QuoteRequest struct {
	SourceCurrency string          `json:"source_currency"`
	TargetCurrency string          `json:"target_currency"`
	Amount         decimal.Decimal `json:"amount"`
}

type OutcomeResponse struct {
	Rate            *decimal.Decimal `json:"rate,omitempty"`
	ConvertedAmount *decimal.Decimal `json:"converted_amount,omitempty"`
	Provider        string           `json:"provider"`
	ErrorKind       quote.Kind       `json:"error_kind,omitempty"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	ElapsedMs       float64          `json:"elapsed_ms"`
	Success         bool             `json:"success"`
}

type QuoteResponse struct {
	ProducedAt          time.Time         `json:"produced_at"`
	Amount              decimal.Decimal   `json:"amount"`
	AverageRate         decimal.Decimal   `json:"average_rate"`
	RoundID             string            `json:"round_id"`
	SourceCurrency      string            `json:"source_currency"`
	TargetCurrency      string            `json:"target_currency"`
	Summary             string            `json:"summary"`
	Best                OutcomeResponse   `json:"best"`
	Outcomes            []OutcomeResponse `json:"outcomes"`
	SuccessfulProviders int               `json:"successful_providers"`
	TotalProviders      int               `json:"total_providers"`
	SuccessRate         float64           `json:"success_rate"`
	TotalElapsedMs      float64           `json:"total_elapsed_ms"`
}

type ProviderStatsResponse struct {
	stats.ProviderStats

	CircuitState string  `json:"circuit_state,omitempty"`
	SuccessRate  float64 `json:"success_rate"`
}

type StatisticsResponse struct {
	StartedAt             time.Time               `json:"started_at"`
	LastReset             time.Time               `json:"last_reset"`
	Providers             []ProviderStatsResponse `json:"providers"`
	TotalRequests         uint64                  `json:"total_requests"`
	SuccessfulRequests    uint64                  `json:"successful_requests"`
	FailedRequests        uint64                  `json:"failed_requests"`
	SuccessRate           float64                 `json:"success_rate"`
	AverageResponseTimeMs float64                 `json:"average_response_time_ms"`
	UptimeSeconds         float64                 `json:"uptime_seconds"`
}

type ResetResponse struct {
	ResetAt time.Time `json:"reset_at"`
	Message string    `json:"message"`
}

type ProviderStatusResponse struct {
	Health         *health.Status `json:"health,omitempty"`
	Name           string         `json:"name"`
	URL            string         `json:"url"`
	CircuitState   string         `json:"circuit_state"`
	TimeoutSeconds float64        `json:"timeout_seconds"`
	Enabled        bool           `json:"enabled"`
}

type ProvidersResponse struct {
	Results []ProviderStatusResponse `json:"results"`
}

type ToggleRequest struct {
	Enabled *bool `json:"enabled"`
}

type BulkToggleRequest struct {
	Providers map[string]bool `json:"providers"`
}

type CurrenciesResponse struct {
	Results []currencies.Currency `json:"results"`
}

type ErrorResponse struct {
	Error    string          `json:"error"`
	Kind     quote.Kind      `json:"kind,omitempty"`
	Failures []quote.Failure `json:"failures,omitempty"`
}
