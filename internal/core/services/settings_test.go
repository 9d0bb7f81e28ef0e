package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-notes/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// failingConfigStore rejects every write.
type failingConfigStore struct {
	*memory.ConfigStore
}

func (f failingConfigStore) Set(string, any) error {
	return errors.New("disk full")
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), *settings)
}

func TestSettingsService_Get_NilStore(t *testing.T) {
	settings, err := NewSettingsService(nil).Get()

	require.NoError(t, err)
	assert.Equal(t, 10, settings.Search.ResultCap)
}

func TestSettingsService_Get_StoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("search.result_cap", 25))
	require.NoError(t, store.Set("search.freshness_boost", 0.2))
	require.NoError(t, store.Set("search.highlight_marker", "=="))
	require.NoError(t, store.Set("bench.query_timeout_seconds", int64(5)))
	require.NoError(t, store.Set("context.project_tag_prefixes", []any{"area/"}))
	require.NoError(t, store.Set("gates.mrr", 1))

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, 25, settings.Search.ResultCap)
	assert.InDelta(t, 0.2, settings.Search.FreshnessBoost, 1e-9)
	assert.Equal(t, "==", settings.Search.HighlightMarker)
	assert.Equal(t, 5*time.Second, settings.Bench.QueryTimeout)
	assert.Equal(t, []string{"area/"}, settings.Context.ProjectTagPrefixes)
	assert.InDelta(t, 1.0, settings.Gates.MRR, 1e-9)
	// untouched keys keep defaults
	assert.Equal(t, 4, settings.Bench.Concurrency)
}

func TestSettingsService_Get_InvalidStoredValue(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("bench.concurrency", 0))

	_, err := NewSettingsService(store).Get()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), ":memory:")
}

func TestSettingsService_Set(t *testing.T) {
	t.Run("persists parsed values", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := NewSettingsService(store)

		require.NoError(t, service.Set("search.result_cap", "20"))
		require.NoError(t, service.Set("gates.max_ece", " 0.1 "))
		require.NoError(t, service.Set("context.project_tag_prefixes", "area/, ,team-"))
		require.NoError(t, service.Set("bench.query_timeout_seconds", "12"))

		v, _ := store.Get("search.result_cap")
		assert.Equal(t, 20, v)

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, 20, settings.Search.ResultCap)
		assert.InDelta(t, 0.1, settings.Gates.MaxECE, 1e-9)
		assert.Equal(t, []string{"area/", "team-"}, settings.Context.ProjectTagPrefixes)
		assert.Equal(t, 12*time.Second, settings.Bench.QueryTimeout)
	})

	t.Run("unknown key", func(t *testing.T) {
		err := NewSettingsService(memory.NewConfigStore()).Set("search.nope", "1")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "search.nope")
	})

	t.Run("type mismatch", func(t *testing.T) {
		err := NewSettingsService(memory.NewConfigStore()).Set("search.result_cap", "many")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		err := NewSettingsService(memory.NewConfigStore()).Set("bench.query_timeout_seconds", "0")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("validation failure is not persisted", func(t *testing.T) {
		store := memory.NewConfigStore()
		err := NewSettingsService(store).Set("context.cluster_threshold", "1.5")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, ok := store.Get("context.cluster_threshold")
		assert.False(t, ok)
	})

	t.Run("nil store", func(t *testing.T) {
		err := NewSettingsService(nil).Set("search.result_cap", "3")
		assert.Error(t, err)
	})

	t.Run("store write error", func(t *testing.T) {
		service := NewSettingsService(failingConfigStore{memory.NewConfigStore()})
		err := service.Set("search.result_cap", "3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestSettingsService_Keys(t *testing.T) {
	keys := NewSettingsService(nil).Keys()

	assert.Len(t, keys, len(settingsTable))
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "search.result_cap")
	assert.Contains(t, keys, "gates.max_brier")
	assert.Contains(t, keys, "context.project_tag_prefixes")
	assert.Contains(t, keys, "vault.path")
}

func TestSettingsService_VaultPath(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	require.NoError(t, service.Set("vault.path", "  /home/me/notes "))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "/home/me/notes", settings.Vault.Path)
}
