package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sig-0/fxcompare/quote"
)

// AuthType is the authentication scheme a provider expects
type AuthType string

const (
	AuthAPIKey AuthType = "apikey"
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
)

// APIKeyHeader carries the key for api-key authenticated providers
const APIKeyHeader = "X-API-Key"

var (
	ErrInvalidAuthType = errors.New("invalid auth type")

	errMissingAPIKey      = errors.New("missing API key")
	errMissingBearerToken = errors.New("missing bearer token")
	errMissingBasicAuth   = errors.New("missing API key or secret for basic auth")
)

// ParseAuthType parses the auth type, case-insensitively.
// An empty value defaults to api-key authentication
func ParseAuthType(v string) (AuthType, error) {
	switch AuthType(strings.ToLower(strings.TrimSpace(v))) {
	case "", AuthAPIKey:
		return AuthAPIKey, nil
	case AuthBearer:
		return AuthBearer, nil
	case AuthBasic:
		return AuthBasic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAuthType, v)
	}
}

func (a AuthType) String() string {
	return string(a)
}

// Authorize sets the authentication headers on the request.
// A missing secret yields a MissingCredential call error
func (a AuthType) Authorize(r *http.Request, cred quote.Credential) error {
	switch a {
	case AuthBearer:
		if cred.BearerToken == "" {
			return &CallError{Kind: quote.KindMissingCredential, Err: errMissingBearerToken}
		}

		r.Header.Set("Authorization", "Bearer "+cred.BearerToken)
	case AuthBasic:
		if cred.APIKey == "" || cred.APISecret == "" {
			return &CallError{Kind: quote.KindMissingCredential, Err: errMissingBasicAuth}
		}

		r.SetBasicAuth(cred.APIKey, cred.APISecret)
	default:
		if cred.APIKey == "" {
			return &CallError{Kind: quote.KindMissingCredential, Err: errMissingAPIKey}
		}

		r.Header.Set(APIKeyHeader, cred.APIKey)
	}

	return nil
}
