package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v3"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/fxcompare/config"
	"github.com/sig-0/fxcompare/health"
	"github.com/sig-0/fxcompare/provider"
	"github.com/sig-0/fxcompare/quote"
	"github.com/sig-0/fxcompare/stats"
	"github.com/sig-0/fxcompare/storage"
	"github.com/sig-0/fxcompare/telemetry"
)

// RoutesFn is a callback that receives a router for registering routes
type RoutesFn func(router chi.Router)

// Quoter runs quote aggregation rounds
type Quoter interface {
	// Quote runs a single round for the given request
	Quote(context.Context, quote.Request, quote.Credentials) (*quote.Result, error)

	// CircuitState returns the circuit state of the given provider
	CircuitState(name string) string
}

// Prober checks the live reachability of every provider
type Prober interface {
	ProbeAll(context.Context) map[string]bool
}

// StatusSource exposes the latest background health of a provider
type StatusSource interface {
	Latest(name string) (health.Status, bool)
}

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type Server struct {
	logger *slog.Logger
	config *config.Config

	quoter   Quoter
	registry *provider.Registry
	stats    *stats.Store
	prober   Prober

	storage storage.Storage
	monitor StatusSource
	metrics *telemetry.Metrics
	mux     *chi.Mux
}

// New creates a new server instance
func New(
	quoter Quoter,
	registry *provider.Registry,
	store *stats.Store,
	prober Prober,
	opts ...Option,
) (*Server, error) {
	s := &Server{
		logger:   noopLogger,
		quoter:   quoter,
		registry: registry,
		stats:    store,
		prober:   prober,
		config:   config.DefaultConfig(),
		mux:      chi.NewMux(),
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	// Validate the configuration
	if err := config.ValidateConfig(s.config); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}

	// Set up the CORS middleware
	if s.config.CORSConfig != nil {
		corsMiddleware := cors.New(cors.Options{
			AllowedOrigins: s.config.CORSConfig.AllowedOrigins,
			AllowedMethods: s.config.CORSConfig.AllowedMethods,
			AllowedHeaders: s.config.CORSConfig.AllowedHeaders,
		})

		s.mux.Use(corsMiddleware.Handler)
	}

	s.mux.Use(httplog.RequestLogger(s.logger, &httplog.Options{
		Level:         slog.LevelInfo,
		Schema:        httplog.SchemaOTEL,
		RecoverPanics: true,
		Skip: func(r *http.Request, respStatus int) bool {
			return respStatus == 404 || respStatus == 405 || r.URL.Path == "/health"
		},
	}))

	// Register the health check handler
	s.mux.Get("/health", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})

	s.registerRoutes()

	return s, nil
}

// registerRoutes registers the standard service endpoints
func (s *Server) registerRoutes() {
	s.mux.Get(openAPIPath, s.OpenAPI)
	s.mux.Get("/docs", s.Docs)

	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}

	s.mux.Route("/v1", func(r chi.Router) {
		r.Post("/quotes/best", s.BestQuote)
		r.Get("/statistics", s.Statistics)
		r.Get("/health/providers", s.ProviderHealth)
		r.Get("/currencies", s.Currencies)

		if s.storage != nil {
			r.Get("/rounds", s.Rounds)
			r.Get("/rounds/{id}", s.Round)
		}

		r.Route("/admin", func(r chi.Router) {
			r.Post("/statistics/reset", s.ResetStatistics)
			r.Get("/providers", s.Providers)
			r.Put("/providers/toggle", s.ToggleProviders)
			r.Put("/providers/{name}/toggle", s.ToggleProvider)
		})
	})
}

// Routes calls fn with the server mux so callers can add endpoints
func (s *Server) Routes(fn RoutesFn) {
	if fn == nil {
		return
	}

	fn(s.mux)
}

// Handler returns the root HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve serves the fxcompare service
func (s *Server) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.mux,
		ReadHeaderTimeout: 60 * time.Second,
	}

	group, gCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer s.logger.Info("server shut down")

		ln, err := net.Listen("tcp", server.Addr)
		if err != nil {
			return err
		}

		s.logger.Info(
			fmt.Sprintf(
				"server started at %s",
				ln.Addr().String(),
			),
		)

		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	group.Go(func() error {
		<-gCtx.Done()

		s.logger.Info("server to be shutdown")

		wsCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()

		return server.Shutdown(wsCtx)
	})

	return group.Wait()
}
