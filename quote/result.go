package quote

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Result is the output of a successful aggregation round
type Result struct {
	ProducedAt   time.Time     `json:"produced_at"`
	RoundID      string        `json:"round_id"`
	Request      Request       `json:"-"`
	Best         Outcome       `json:"best"`
	Outcomes     []Outcome     `json:"outcomes"`
	TotalElapsed time.Duration `json:"total_elapsed"`
}

// SuccessfulCount returns the number of providers that produced a quote
func (r *Result) SuccessfulCount() int {
	count := 0

	for _, o := range r.Outcomes {
		if o.Success {
			count++
		}
	}

	return count
}

// TotalCount returns the number of providers queried in the round
func (r *Result) TotalCount() int {
	return len(r.Outcomes)
}

// SuccessRate returns the percentage of queried providers that succeeded
func (r *Result) SuccessRate() float64 {
	if len(r.Outcomes) == 0 {
		return 0
	}

	return float64(r.SuccessfulCount()) / float64(len(r.Outcomes)) * 100
}

// AverageRate returns the mean rate across the successful outcomes
func (r *Result) AverageRate() decimal.Decimal {
	var (
		sum   = decimal.Zero
		count int64
	)

	for _, o := range r.Outcomes {
		if !o.Success {
			continue
		}

		sum = sum.Add(o.Rate)
		count++
	}

	if count == 0 {
		return decimal.Zero
	}

	return sum.Div(decimal.NewFromInt(count))
}

// Summary returns a one-line, human-readable description of the round
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"best rate from %s: %s %s = %s %s (%d/%d providers succeeded in %s)",
		r.Best.Provider,
		r.Request.Amount().String(),
		r.Request.Source(),
		r.Best.ConvertedAmount.StringFixed(2),
		r.Request.Target(),
		r.SuccessfulCount(),
		r.TotalCount(),
		r.TotalElapsed.Round(time.Millisecond),
	)
}
