package quote

import "strings"

// Credential is a set of secrets for a single provider.
// Which fields are used depends on the provider's auth scheme
type Credential struct {
	APIKey      string `json:"api_key,omitempty"`
	APISecret   string `json:"api_secret,omitempty"`
	BearerToken string `json:"bearer_token,omitempty"`
}

// IsZero reports whether no secret is set
func (c Credential) IsZero() bool {
	return c.APIKey == "" && c.APISecret == "" && c.BearerToken == ""
}

// Credentials are per-request provider secrets, keyed by provider name
type Credentials map[string]Credential

// For returns the credential for the given provider, if any.
// Lookup is case-insensitive
func (c Credentials) For(provider string) (Credential, bool) {
	if c == nil {
		return Credential{}, false
	}

	cred, ok := c[strings.ToUpper(provider)]
	if !ok || cred.IsZero() {
		return Credential{}, false
	}

	return cred, true
}

// Set stores the credential for the given provider
func (c Credentials) Set(provider string, cred Credential) {
	c[strings.ToUpper(provider)] = cred
}
