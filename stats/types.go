package stats

import (
	"time"

	"github.com/sig-0/fxcompare/quote"
)

// ProviderStats are the running counters of a single provider
type ProviderStats struct {
	LastSuccessAt         *time.Time `json:"last_success_at,omitempty"`
	LastErrorAt           *time.Time `json:"last_error_at,omitempty"`
	Name                  string     `json:"name"`
	LastError             string     `json:"last_error,omitempty"`
	LastErrorKind         quote.Kind `json:"last_error_kind,omitempty"`
	TotalRequests         uint64     `json:"total_requests"`
	SuccessfulRequests    uint64     `json:"successful_requests"`
	FailedRequests        uint64     `json:"failed_requests"`
	BestOfferCount        uint64     `json:"best_offer_count"`
	AverageResponseTimeMs float64    `json:"average_response_time_ms"`
}

// SuccessRate returns the percentage of successful calls
func (p ProviderStats) SuccessRate() float64 {
	return percentage(p.SuccessfulRequests, p.TotalRequests)
}

// ServiceStats are the service-wide running counters.
// A round is successful if at least one provider succeeded,
// and failed only if every queried provider failed
type ServiceStats struct {
	StartedAt             time.Time                `json:"started_at"`
	LastReset             time.Time                `json:"last_reset"`
	Providers             map[string]ProviderStats `json:"providers"`
	TotalRequests         uint64                   `json:"total_requests"`
	SuccessfulRequests    uint64                   `json:"successful_requests"`
	FailedRequests        uint64                   `json:"failed_requests"`
	AverageResponseTimeMs float64                  `json:"average_response_time_ms"`
	Uptime                time.Duration            `json:"uptime"`
}

// SuccessRate returns the percentage of successful rounds
func (s ServiceStats) SuccessRate() float64 {
	return percentage(s.SuccessfulRequests, s.TotalRequests)
}

func percentage(part, total uint64) float64 {
	if total == 0 {
		return 0
	}

	return float64(part) / float64(total) * 100
}
