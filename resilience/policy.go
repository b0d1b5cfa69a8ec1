package resilience

import "time"

const (
	DefaultTimeout          = 10 * time.Second
	DefaultMaxRetries       = 2
	DefaultBackoffBase      = 2 * time.Second
	DefaultFailureThreshold = 3
	DefaultCooldown         = 30 * time.Second
	DefaultHalfOpenRequests = 1
)

// Policy defines the retry and circuit breaking behavior of a Wrapper
type Policy struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries uint64

	// BackoffBase is the first retry delay. Each next delay doubles
	BackoffBase time.Duration

	// FailureThreshold is the number of consecutive transient
	// attempt failures that opens the circuit
	FailureThreshold uint32

	// Cooldown is how long the circuit stays open before a trial call
	Cooldown time.Duration

	// HalfOpenRequests is the number of trial calls let through a half-open circuit
	HalfOpenRequests uint32
}

// DefaultPolicy returns the default resilience policy
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:       DefaultMaxRetries,
		BackoffBase:      DefaultBackoffBase,
		FailureThreshold: DefaultFailureThreshold,
		Cooldown:         DefaultCooldown,
		HalfOpenRequests: DefaultHalfOpenRequests,
	}
}
