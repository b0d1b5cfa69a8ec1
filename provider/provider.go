package provider

import (
	"context"
	"time"

	"github.com/sig-0/fxcompare/quote"
)

// Provider is a single external quote source
type Provider interface {
	// Name returns the unique, upper-case name of the provider
	Name() string

	// Fetch requests a quote for the given conversion.
	// It never returns an error: every failure is reported as a failed Outcome
	Fetch(context.Context, quote.Request, quote.Credentials) quote.Outcome

	// Probe reports whether the provider's health endpoint answers with success
	Probe(context.Context) bool
}

// Config is the static configuration of a single provider
type Config struct {
	// Static credential, used when the request carries none for the provider
	Credential quote.Credential

	// Name is the unique provider name
	Name string

	// URL is the provider base URL
	URL string

	// Auth is the authentication scheme
	Auth AuthType

	// Timeout bounds a single HTTP exchange with the provider
	Timeout time.Duration
}
