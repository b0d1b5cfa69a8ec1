package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/sig-0/fxcompare/provider"
	"github.com/sig-0/fxcompare/quote"
	"github.com/sig-0/fxcompare/resilience"
)

const DefaultListenAddress = "0.0.0.0:8545"

const (
	defaultProviderTimeout = 10    // seconds
	defaultBoardMaxAge     = 86400 // seconds
	defaultProbeInterval   = 30    // seconds
	defaultProbeTimeout    = 5     // seconds
)

// Provider reply formats, one per adapter
const (
	FormatJSON   = "json"
	FormatXML    = "xml"
	FormatNested = "nested"
	FormatHTML   = "html"
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidProviderName  = errors.New("invalid provider name")
	ErrDuplicateProvider    = errors.New("duplicate provider name")
	ErrInvalidProviderURL   = errors.New("invalid provider URL")
	ErrInvalidFormat        = errors.New("invalid provider format")
	ErrInvalidTimeout       = errors.New("invalid provider timeout")
	ErrInvalidResilience    = errors.New("invalid resilience policy")
	ErrInvalidMonitor       = errors.New("invalid monitor interval")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level service configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`

	// The ordered list of quote providers.
	// Registration order breaks best-offer ties
	Providers []Provider `toml:"providers"`

	// The retry and circuit breaking policy, shared by all providers
	Resilience Resilience `toml:"resilience"`

	// The background health monitoring settings
	Monitor Monitor `toml:"monitor"`
}

// CORS defines the server CORS configuration
type CORS struct {
	AllowedOrigins []string `toml:"allowed_origins"`
	AllowedMethods []string `toml:"allowed_methods"`
	AllowedHeaders []string `toml:"allowed_headers"`
}

// Provider defines a single quote provider
type Provider struct {
	// Enabled is the initial enablement, true if omitted
	Enabled *bool `toml:"enabled"`

	Name        string `toml:"name"`
	URL         string `toml:"url"`
	Format      string `toml:"format"`
	AuthType    string `toml:"auth_type"`
	APIKey      string `toml:"api_key"`
	APISecret   string `toml:"api_secret"`
	BearerToken string `toml:"bearer_token"`

	// TimeoutSeconds bounds a single provider attempt
	TimeoutSeconds int64 `toml:"timeout_seconds"`

	// MaxAgeSeconds rejects stale board quotes (html format only).
	// Zero falls back to the adapter default
	MaxAgeSeconds int64 `toml:"max_age_seconds"`
}

// Resilience defines the retry and circuit breaking policy
type Resilience struct {
	MaxRetries       uint64 `toml:"max_retries"`
	BackoffBaseMs    int64  `toml:"backoff_base_ms"`
	FailureThreshold uint32 `toml:"failure_threshold"`
	CooldownSeconds  int64  `toml:"cooldown_seconds"`
	HalfOpenRequests uint32 `toml:"half_open_requests"`
}

// Monitor defines the background health monitoring settings
type Monitor struct {
	ProbeIntervalSeconds int64 `toml:"probe_interval_seconds"`
	ProbeTimeoutSeconds  int64 `toml:"probe_timeout_seconds"`
}

// DefaultCORSConfig returns the default, permissive CORS configuration
func DefaultCORSConfig() *CORS {
	return &CORS{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}
}

// DefaultProviders returns the reference provider deployment
func DefaultProviders() []Provider {
	return []Provider{
		{
			Name:           "API1",
			URL:            "http://localhost:8081",
			Format:         FormatJSON,
			AuthType:       provider.AuthAPIKey.String(),
			TimeoutSeconds: defaultProviderTimeout,
		},
		{
			Name:           "API2",
			URL:            "http://localhost:8082",
			Format:         FormatXML,
			AuthType:       provider.AuthAPIKey.String(),
			TimeoutSeconds: defaultProviderTimeout,
		},
		{
			Name:           "API3",
			URL:            "http://localhost:8083",
			Format:         FormatNested,
			AuthType:       provider.AuthAPIKey.String(),
			TimeoutSeconds: defaultProviderTimeout,
		},
		{
			Enabled:        disabled(),
			Name:           "API4",
			URL:            "http://localhost:8084",
			Format:         FormatHTML,
			AuthType:       provider.AuthAPIKey.String(),
			TimeoutSeconds: defaultProviderTimeout,
			MaxAgeSeconds:  defaultBoardMaxAge,
		},
	}
}

// DefaultResilience returns the default resilience policy
func DefaultResilience() Resilience {
	return Resilience{
		MaxRetries:       resilience.DefaultMaxRetries,
		BackoffBaseMs:    resilience.DefaultBackoffBase.Milliseconds(),
		FailureThreshold: resilience.DefaultFailureThreshold,
		CooldownSeconds:  int64(resilience.DefaultCooldown / time.Second),
		HalfOpenRequests: resilience.DefaultHalfOpenRequests,
	}
}

// DefaultConfig returns the default service configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		CORSConfig:    DefaultCORSConfig(),
		Providers:     DefaultProviders(),
		Resilience:    DefaultResilience(),
		Monitor: Monitor{
			ProbeIntervalSeconds: defaultProbeInterval,
			ProbeTimeoutSeconds:  defaultProbeTimeout,
		},
	}
}

// ValidateConfig validates the service configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	// Validate the providers
	seen := make(map[string]struct{}, len(config.Providers))

	for i, p := range config.Providers {
		name := strings.ToUpper(strings.TrimSpace(p.Name))
		if name == "" {
			return fmt.Errorf("%w: provider #%d", ErrInvalidProviderName, i)
		}

		if _, exists := seen[name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateProvider, name)
		}

		seen[name] = struct{}{}

		if err := validateProvider(p); err != nil {
			return fmt.Errorf("invalid provider %s: %w", name, err)
		}
	}

	// Validate the resilience policy
	r := config.Resilience
	if r.BackoffBaseMs <= 0 || r.FailureThreshold == 0 ||
		r.CooldownSeconds <= 0 || r.HalfOpenRequests == 0 {
		return ErrInvalidResilience
	}

	// Validate the monitor
	if config.Monitor.ProbeIntervalSeconds <= 0 || config.Monitor.ProbeTimeoutSeconds <= 0 {
		return ErrInvalidMonitor
	}

	return nil
}

func validateProvider(p Provider) error {
	u, err := url.Parse(p.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidProviderURL
	}

	switch p.Format {
	case FormatJSON, FormatXML, FormatNested, FormatHTML:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, p.Format)
	}

	if _, err := provider.ParseAuthType(p.AuthType); err != nil {
		return err
	}

	if p.TimeoutSeconds <= 0 || p.MaxAgeSeconds < 0 {
		return ErrInvalidTimeout
	}

	return nil
}

// Read reads the configuration from the given path.
// Omitted sections fall back to their defaults
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults fills in the omitted configuration values
func applyDefaults(cfg *Config) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if len(cfg.Providers) == 0 {
		cfg.Providers = DefaultProviders()
	}

	for i := range cfg.Providers {
		if cfg.Providers[i].TimeoutSeconds == 0 {
			cfg.Providers[i].TimeoutSeconds = defaultProviderTimeout
		}
	}

	if cfg.Resilience == (Resilience{}) {
		cfg.Resilience = DefaultResilience()
	}

	if cfg.Monitor.ProbeIntervalSeconds == 0 {
		cfg.Monitor.ProbeIntervalSeconds = defaultProbeInterval
	}

	if cfg.Monitor.ProbeTimeoutSeconds == 0 {
		cfg.Monitor.ProbeTimeoutSeconds = defaultProbeTimeout
	}
}

// IsEnabled returns the initial enablement of the provider
func (p Provider) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// Timeout returns the per-attempt timeout of the provider
func (p Provider) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// MaxAge returns the board staleness bound of the provider
func (p Provider) MaxAge() time.Duration {
	return time.Duration(p.MaxAgeSeconds) * time.Second
}

// ProviderConfig converts the entry into an adapter configuration
func (p Provider) ProviderConfig() (provider.Config, error) {
	auth, err := provider.ParseAuthType(p.AuthType)
	if err != nil {
		return provider.Config{}, err
	}

	return provider.Config{
		Credential: quote.Credential{
			APIKey:      p.APIKey,
			APISecret:   p.APISecret,
			BearerToken: p.BearerToken,
		},
		Name:    strings.ToUpper(strings.TrimSpace(p.Name)),
		URL:     p.URL,
		Auth:    auth,
		Timeout: p.Timeout(),
	}, nil
}

// Policy converts the section into a resilience policy
func (r Resilience) Policy() resilience.Policy {
	return resilience.Policy{
		MaxRetries:       r.MaxRetries,
		BackoffBase:      time.Duration(r.BackoffBaseMs) * time.Millisecond,
		FailureThreshold: r.FailureThreshold,
		Cooldown:         time.Duration(r.CooldownSeconds) * time.Second,
		HalfOpenRequests: r.HalfOpenRequests,
	}
}

// ProbeInterval returns how often each provider is re-probed
func (m Monitor) ProbeInterval() time.Duration {
	return time.Duration(m.ProbeIntervalSeconds) * time.Second
}

// ProbeTimeout returns the bound of a single probe
func (m Monitor) ProbeTimeout() time.Duration {
	return time.Duration(m.ProbeTimeoutSeconds) * time.Second
}

func disabled() *bool {
	v := false

	return &v
}
