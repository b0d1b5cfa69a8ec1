package resilience

import "log/slog"

type Option func(w *Wrapper)

// WithLogger specifies the logger for the wrapper
func WithLogger(l *slog.Logger) Option {
	return func(w *Wrapper) {
		w.logger = l
	}
}

// WithPolicy specifies the retry and circuit breaking policy.
// Zero breaker settings and backoff base fall back to the defaults
func WithPolicy(p Policy) Option {
	return func(w *Wrapper) {
		w.policy = p
	}
}
