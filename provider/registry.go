package provider

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")

	errNilProvider       = errors.New("nil provider")
	errEmptyProviderName = errors.New("empty provider name")
	errDuplicateProvider = errors.New("duplicate provider")
)

// Entry is a single registered provider, with its static settings
type Entry struct {
	Provider Provider

	// URL is reported by the admin views
	URL string

	// Timeout bounds a single call attempt
	Timeout time.Duration

	// Enabled is the configured enablement, subject to runtime overrides
	Enabled bool
}

// Name returns the normalized provider name
func (e Entry) Name() string {
	return e.Provider.Name()
}

// Registry is the fixed, ordered set of providers known to the service.
// Enablement can be toggled at runtime, and the override is visible
// to the next aggregation round
type Registry struct {
	index     map[string]int
	overrides sync.Map // name -> bool
	entries   []Entry
}

// NewRegistry creates a new registry. Registration order is preserved
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		index:   make(map[string]int, len(entries)),
		entries: make([]Entry, 0, len(entries)),
	}

	for _, e := range entries {
		if e.Provider == nil {
			return nil, errNilProvider
		}

		name := normalizeName(e.Provider.Name())
		if name == "" {
			return nil, errEmptyProviderName
		}

		if _, exists := r.index[name]; exists {
			return nil, fmt.Errorf("%w: %s", errDuplicateProvider, name)
		}

		r.index[name] = len(r.entries)
		r.entries = append(r.entries, e)
	}

	return r, nil
}

// Entries returns all registered entries, in registration order
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)

	return out
}

// Names returns all registered provider names, in registration order
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.entries))

	for _, e := range r.entries {
		out = append(out, normalizeName(e.Name()))
	}

	return out
}

// Lookup fetches the entry for the given provider name (case-insensitive)
func (r *Registry) Lookup(name string) (Entry, bool) {
	i, ok := r.index[normalizeName(name)]
	if !ok {
		return Entry{}, false
	}

	return r.entries[i], true
}

// Enabled reports whether the given provider currently takes part in rounds.
// Runtime overrides win over the configured value
func (r *Registry) Enabled(name string) bool {
	name = normalizeName(name)

	if v, ok := r.overrides.Load(name); ok {
		enabled, _ := v.(bool)

		return enabled
	}

	i, ok := r.index[name]
	if !ok {
		return false
	}

	return r.entries[i].Enabled
}

// EnabledEntries returns the currently enabled entries, in registration order
func (r *Registry) EnabledEntries() []Entry {
	out := make([]Entry, 0, len(r.entries))

	for _, e := range r.entries {
		if r.Enabled(e.Name()) {
			out = append(out, e)
		}
	}

	return out
}

// Toggle overrides the enablement of the given provider
func (r *Registry) Toggle(name string, enabled bool) error {
	name = normalizeName(name)

	if _, ok := r.index[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}

	r.overrides.Store(name, enabled)

	return nil
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
