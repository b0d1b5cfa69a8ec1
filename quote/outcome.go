package quote

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is the result of calling a single provider.
// Exactly one of the success fields or the failure fields is populated
type Outcome struct {
	ObservedAt      time.Time       `json:"observed_at"`
	Rate            decimal.Decimal `json:"rate"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	Provider        string          `json:"provider"`
	Kind            Kind            `json:"error_kind,omitempty"`
	Message         string          `json:"error_message,omitempty"`
	Elapsed         time.Duration   `json:"elapsed"`
	Success         bool            `json:"success"`
}

// Succeeded creates a successful outcome
func Succeeded(
	provider string,
	rate, converted decimal.Decimal,
	elapsed time.Duration,
) Outcome {
	return Outcome{
		ObservedAt:      time.Now().UTC(),
		Rate:            rate,
		ConvertedAmount: converted,
		Provider:        provider,
		Elapsed:         elapsed,
		Success:         true,
	}
}

// Failed creates a failed outcome
func Failed(
	provider string,
	kind Kind,
	message string,
	elapsed time.Duration,
) Outcome {
	return Outcome{
		ObservedAt: time.Now().UTC(),
		Provider:   provider,
		Kind:       kind,
		Message:    message,
		Elapsed:    elapsed,
	}
}

// Failure returns the outcome as a round failure entry
func (o Outcome) Failure() Failure {
	return Failure{
		Provider: o.Provider,
		Kind:     o.Kind,
		Message:  o.Message,
	}
}

// WithElapsed returns a copy of the outcome with the given elapsed time
func (o Outcome) WithElapsed(elapsed time.Duration) Outcome {
	o.Elapsed = elapsed

	return o
}

// ElapsedMillis returns the elapsed time in fractional milliseconds
func (o Outcome) ElapsedMillis() float64 {
	return float64(o.Elapsed) / float64(time.Millisecond)
}
