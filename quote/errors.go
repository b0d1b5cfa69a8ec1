package quote

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errCodeLength  = errors.New("must be 3 letters")
	errCodeLetters = errors.New("must be A-Z")
)

var (
	// ErrInvalidRequest matches any rejected request
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest}

	// ErrNoProvidersEnabled matches a round that had nothing to query
	ErrNoProvidersEnabled = &Error{Kind: KindNoProvidersEnabled}

	// ErrAllProvidersFailed matches a round where no provider succeeded
	ErrAllProvidersFailed = &Error{Kind: KindAllProvidersFailed}
)

// Failure is a single provider failure, as reported by a failed round
type Failure struct {
	Provider string `json:"provider"`
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
}

// Error is a call-level failure of a quote round.
// Sentinel values match any Error of the same kind through errors.Is
type Error struct {
	Kind     Kind
	Message  string
	Failures []Failure
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(describeKind(e.Kind))

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	for i, f := range e.Failures {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}

		fmt.Fprintf(&b, "%s %s", f.Provider, f.Kind)

		if f.Message != "" {
			fmt.Fprintf(&b, " (%s)", f.Message)
		}
	}

	return b.String()
}

// Is matches errors of the same kind
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

func describeKind(k Kind) string {
	switch k {
	case KindInvalidRequest:
		return "invalid request"
	case KindNoProvidersEnabled:
		return "no providers enabled"
	case KindAllProvidersFailed:
		return "all providers failed"
	default:
		return strings.ToLower(k.String())
	}
}
