package server

import (
	"log/slog"

	"github.com/sig-0/fxcompare/config"
	"github.com/sig-0/fxcompare/storage"
	"github.com/sig-0/fxcompare/telemetry"
)

type Option func(s *Server)

// WithLogger specifies the logger for the server
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithConfig specifies the config for the server
func WithConfig(c *config.Config) Option {
	return func(s *Server) {
		s.config = c
	}
}

// WithStorage specifies the round audit trail.
// The round endpoints are only served when it is set
func WithStorage(st storage.Storage) Option {
	return func(s *Server) {
		s.storage = st
	}
}

// WithMonitor specifies the background health source for the admin view
func WithMonitor(m StatusSource) Option {
	return func(s *Server) {
		s.monitor = m
	}
}

// WithMetrics specifies the metrics served at /metrics
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}
