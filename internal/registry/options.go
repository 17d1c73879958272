package registry

import "log/slog"

// Option configures a Registry.
type Option func(*Registry)

// WithKey sets the store key holding the roster. Default: "windows".
func WithKey(key string) Option {
	return func(r *Registry) {
		r.key = key
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithMetrics sets the metrics sink. Default: unregistered collectors.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithIDGenerator replaces NewID.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(r *Registry) {
		r.newID = fn
	}
}

// WithMaxIDAttempts bounds id regeneration on collision. Default: 5.
func WithMaxIDAttempts(n int) Option {
	return func(r *Registry) {
		r.maxIDAttempts = n
	}
}
