package provider

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/fxcompare/quote"
)

var (
	errMissingQuote      = errors.New("reply carries neither a rate nor a converted amount")
	errNonPositiveQuote  = errors.New("reply carries a non-positive quote")
	errInconsistentQuote = errors.New("rate and converted amount disagree")
)

var (
	consistencyTolerance = decimal.New(1, -4) // relative
	consistencyFloor     = decimal.New(1, -2) // cent rounding
)

// Complete builds a successful outcome from the values a provider reported.
// A missing rate or converted amount is derived from the other one.
// When both are present they must agree, within rounding, on
// converted = rate x amount
func Complete(
	name string,
	req quote.Request,
	rate, converted *decimal.Decimal,
	elapsed time.Duration,
) quote.Outcome {
	if rate == nil && converted == nil {
		return FailedOutcome(name, InvalidResponse(errMissingQuote), elapsed)
	}

	if (rate != nil && !rate.IsPositive()) || (converted != nil && !converted.IsPositive()) {
		return FailedOutcome(name, InvalidResponse(errNonPositiveQuote), elapsed)
	}

	var (
		amount = req.Amount()
		r, c   decimal.Decimal
	)

	switch {
	case rate == nil:
		c = *converted
		r = c.Div(amount)
	case converted == nil:
		r = *rate
		c = r.Mul(amount)
	default:
		r, c = *rate, *converted

		expected := r.Mul(amount)
		tolerance := decimal.Max(expected.Mul(consistencyTolerance), consistencyFloor)

		if expected.Sub(c).Abs().GreaterThan(tolerance) {
			return FailedOutcome(
				name,
				InvalidResponse(fmt.Errorf(
					"%w: %s x %s != %s",
					errInconsistentQuote,
					r.String(),
					amount.String(),
					c.String(),
				)),
				elapsed,
			)
		}
	}

	// a derived value can truncate to zero at the division precision
	if !r.IsPositive() || !c.IsPositive() {
		return FailedOutcome(name, InvalidResponse(errNonPositiveQuote), elapsed)
	}

	return quote.Succeeded(name, r, c, elapsed)
}
