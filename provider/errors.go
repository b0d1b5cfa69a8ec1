package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sig-0/fxcompare/quote"
)

// CallError is a provider failure with a known classification
type CallError struct {
	Err  error
	Kind quote.Kind
}

func (e *CallError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}

	return e.Err.Error()
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// InvalidResponse marks the error as a malformed or implausible reply
func InvalidResponse(err error) error {
	return &CallError{Kind: quote.KindInvalidResponse, Err: err}
}

// StatusError classifies a non-2xx HTTP status
func StatusError(status int) error {
	err := fmt.Errorf("unexpected status code %d", status)

	switch {
	case status == 401 || status == 403:
		return &CallError{Kind: quote.KindAuthenticationFailure, Err: err}
	case status == 429:
		return &CallError{Kind: quote.KindRateLimited, Err: err}
	case status == 408 || status >= 500:
		return &CallError{Kind: quote.KindTransportError, Err: err}
	default:
		return &CallError{Kind: quote.KindInvalidResponse, Err: err}
	}
}

// Classify maps an error returned from a provider exchange to a failure kind
func Classify(err error) quote.Kind {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Kind
	}

	if errors.Is(err, context.Canceled) {
		return quote.KindCancelled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return quote.KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return quote.KindTimeout
	}

	return quote.KindTransportError
}

// FailedOutcome turns an exchange error into a failed outcome
func FailedOutcome(name string, err error, elapsed time.Duration) quote.Outcome {
	return quote.Failed(name, Classify(err), err.Error(), elapsed)
}
