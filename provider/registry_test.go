package provider

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()

		_, err := NewRegistry(Entry{})
		assert.ErrorIs(t, err, errNilProvider)
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()

		_, err := NewRegistry(Entry{Provider: &mockProvider{name: " "}})
		assert.ErrorIs(t, err, errEmptyProviderName)
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()

		_, err := NewRegistry(
			Entry{Provider: &mockProvider{name: "API1"}},
			Entry{Provider: &mockProvider{name: "api1"}},
		)
		assert.ErrorIs(t, err, errDuplicateProvider)
	})

	t.Run("preserves order", func(t *testing.T) {
		t.Parallel()

		r, err := NewRegistry(
			Entry{Provider: &mockProvider{name: "API3"}},
			Entry{Provider: &mockProvider{name: "API1"}},
			Entry{Provider: &mockProvider{name: "API2"}},
		)
		require.NoError(t, err)

		assert.Equal(t, []string{"API3", "API1", "API2"}, r.Names())
	})
}

func TestRegistry_Toggle(t *testing.T) {
	t.Parallel()

	newRegistry := func(t *testing.T) *Registry {
		t.Helper()

		r, err := NewRegistry(
			Entry{Provider: &mockProvider{name: "API1"}, Enabled: true},
			Entry{Provider: &mockProvider{name: "API2"}, Enabled: false},
			Entry{Provider: &mockProvider{name: "API3"}, Enabled: true},
		)
		require.NoError(t, err)

		return r
	}

	t.Run("configured values", func(t *testing.T) {
		t.Parallel()

		r := newRegistry(t)

		assert.True(t, r.Enabled("API1"))
		assert.False(t, r.Enabled("API2"))
		assert.False(t, r.Enabled("API9"))
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()

		r := newRegistry(t)

		assert.ErrorIs(t, r.Toggle("API9", true), ErrUnknownProvider)
	})

	t.Run("override wins", func(t *testing.T) {
		t.Parallel()

		r := newRegistry(t)

		require.NoError(t, r.Toggle("api1", false))
		require.NoError(t, r.Toggle("Api2", true))

		assert.False(t, r.Enabled("API1"))
		assert.True(t, r.Enabled("API2"))

		enabled := r.EnabledEntries()
		require.Len(t, enabled, 2)
		assert.Equal(t, "API2", enabled[0].Name())
		assert.Equal(t, "API3", enabled[1].Name())
	})

	t.Run("concurrent toggles", func(t *testing.T) {
		t.Parallel()

		r := newRegistry(t)

		var wg sync.WaitGroup

		for i := 0; i < 50; i++ {
			wg.Add(2)

			go func(enabled bool) {
				defer wg.Done()

				assert.NoError(t, r.Toggle("API1", enabled))
			}(i%2 == 0)

			go func() {
				defer wg.Done()

				_ = r.EnabledEntries()
			}()
		}

		wg.Wait()

		require.NoError(t, r.Toggle("API1", true))
		assert.True(t, r.Enabled("API1"))
	})
}
