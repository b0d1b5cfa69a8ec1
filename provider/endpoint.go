package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sig-0/fxcompare/quote"
)

// maxBodySize caps the size of a provider reply
const maxBodySize = 1 << 20

// Endpoint is the HTTP exchange shared by the provider adapters
type Endpoint struct {
	client *http.Client
	cfg    Config
}

// NewEndpoint creates a new provider endpoint from the given config
func NewEndpoint(cfg Config) *Endpoint {
	cfg.URL = strings.TrimRight(cfg.URL, "/")

	return &Endpoint{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg: cfg,
	}
}

// Name returns the configured provider name
func (e *Endpoint) Name() string {
	return e.cfg.Name
}

// URL returns the provider base URL
func (e *Endpoint) URL() string {
	return e.cfg.URL
}

// credential resolves the credential for this provider,
// preferring the per-request one over the static config
func (e *Endpoint) credential(creds quote.Credentials) quote.Credential {
	if cred, ok := creds.For(e.cfg.Name); ok {
		return cred
	}

	return e.cfg.Credential
}

// Do executes an authenticated request against the given path,
// and returns the reply body of a 2xx response
func (e *Endpoint) Do(
	ctx context.Context,
	method, path, contentType string,
	body []byte,
	creds quote.Credentials,
) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.cfg.URL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s request: %w", method, err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", contentType)
	}

	if err := e.cfg.Auth.Authorize(req, e.credential(creds)); err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, StatusError(resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("unable to read response body: %w", err)
	}

	return raw, nil
}

// Probe calls the provider's health endpoint
func (e *Endpoint) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.URL+"/health", http.NoBody)
	if err != nil {
		return false
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize)) //nolint:errcheck // Fine to ignore

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
