package quote

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Request is a validated conversion request.
// Instances are only obtainable through NewRequest
type Request struct {
	source string
	target string
	amount decimal.Decimal
}

// NewRequest normalizes and validates the given conversion parameters.
// Currency codes are trimmed and upper-cased, and must be 3 ASCII letters
func NewRequest(source, target string, amount decimal.Decimal) (Request, error) {
	src, err := NormalizeCode(source)
	if err != nil {
		return Request{}, invalidRequest("source currency: %s", err)
	}

	dst, err := NormalizeCode(target)
	if err != nil {
		return Request{}, invalidRequest("target currency: %s", err)
	}

	if src == dst {
		return Request{}, invalidRequest("source and target currency must differ")
	}

	if !amount.IsPositive() {
		return Request{}, invalidRequest("amount must be greater than zero")
	}

	return Request{
		source: src,
		target: dst,
		amount: amount,
	}, nil
}

// Source returns the normalized source currency code
func (r Request) Source() string {
	return r.source
}

// Target returns the normalized target currency code
func (r Request) Target() string {
	return r.target
}

// Amount returns the amount of source currency to convert
func (r Request) Amount() decimal.Decimal {
	return r.amount
}

// IsZero reports whether the request was not built through NewRequest
func (r Request) IsZero() bool {
	return r.source == "" || r.target == ""
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s->%s", r.amount.String(), r.source, r.target)
}

// NormalizeCode trims and uppercases a currency code, which must be 3 letters A-Z
func NormalizeCode(v string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	if len(s) != 3 {
		return "", errCodeLength
	}

	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return "", errCodeLetters
		}
	}

	return s, nil
}

func invalidRequest(format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvalidRequest,
		Message: fmt.Sprintf(format, args...),
	}
}
