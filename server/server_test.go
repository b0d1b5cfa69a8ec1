package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxcompare/config"
	"github.com/sig-0/fxcompare/stats"
	"github.com/sig-0/fxcompare/storage/mock"
	"github.com/sig-0/fxcompare/telemetry"
)

func TestServer_New(t *testing.T) {
	t.Parallel()

	t.Run("invalid configuration", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.ListenAddress = "rando-address"

		_, err := New(
			&mockQuoter{},
			newTestRegistry(t),
			stats.NewStore(),
			&mockProber{},
			WithConfig(cfg),
		)

		assert.ErrorIs(t, err, config.ErrInvalidListenAddress)
	})

	t.Run("standard routes", func(t *testing.T) {
		t.Parallel()

		s, err := New(
			&mockQuoter{},
			newTestRegistry(t),
			stats.NewStore(),
			&mockProber{},
			WithMetrics(telemetry.NewMetrics()),
		)
		require.NoError(t, err)

		for _, path := range []string{
			"/health",
			"/metrics",
			"/openapi.yaml",
			"/docs",
			"/v1/statistics",
			"/v1/currencies",
			"/v1/admin/providers",
		} {
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))

			assert.Equal(t, http.StatusOK, w.Code, path)
		}
	})

	t.Run("round routes need storage", func(t *testing.T) {
		t.Parallel()

		without, err := New(&mockQuoter{}, newTestRegistry(t), stats.NewStore(), &mockProber{})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		without.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/rounds", http.NoBody))

		assert.Equal(t, http.StatusNotFound, w.Code)

		with, err := New(
			&mockQuoter{},
			newTestRegistry(t),
			stats.NewStore(),
			&mockProber{},
			WithStorage(&mock.Storage{}),
		)
		require.NoError(t, err)

		w = httptest.NewRecorder()
		with.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/rounds", http.NoBody))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestServer_Documentation(t *testing.T) {
	t.Parallel()

	s, err := New(&mockQuoter{}, newTestRegistry(t), stats.NewStore(), &mockProber{})
	require.NoError(t, err)

	t.Run("openapi document", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, openAPIPath, http.NoBody))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/yaml; charset=utf-8", w.Header().Get("Content-Type"))
		assert.NotEmpty(t, w.Header().Get("Cache-Control"))
		assert.Contains(t, w.Body.String(), "/v1/quotes/best")
	})

	t.Run("docs page points at the document", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs", http.NoBody))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `spec-url="`+openAPIPath+`"`)
	})
}
