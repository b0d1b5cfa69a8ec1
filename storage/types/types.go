package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OutcomeRecord is the audit record of a single provider outcome
type OutcomeRecord struct {
	Rate            decimal.Decimal `json:"rate"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	Provider        string          `json:"provider"`
	ErrorKind       string          `json:"error_kind,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	ElapsedMs       float64         `json:"elapsed_ms"`
	Success         bool            `json:"success"`
}

// Round is the audit record of a finished aggregation round
type Round struct {
	ProducedAt          time.Time       `json:"produced_at"`
	Amount              decimal.Decimal `json:"amount"`
	BestRate            decimal.Decimal `json:"best_rate"`
	BestConvertedAmount decimal.Decimal `json:"best_converted_amount"`
	ID                  string          `json:"id"`
	Source              string          `json:"source"`
	Target              string          `json:"target"`
	Winner              string          `json:"winner,omitempty"`
	Outcomes            []OutcomeRecord `json:"outcomes"`
	TotalElapsedMs      float64         `json:"total_elapsed_ms"`
	Succeeded           bool            `json:"succeeded"`
}

// RoundQuery filters the audited rounds.
// Nil filters match everything
type RoundQuery struct {
	Source *string `json:"source"`
	Target *string `json:"target"`
	Winner *string `json:"winner"`
	Offset int64   `json:"offset"`
	Limit  int32   `json:"limit"`
}

// Page wraps the results for pagination
type Page[T any] struct {
	Results []T   `json:"results"`
	Total   int64 `json:"total"`
}
