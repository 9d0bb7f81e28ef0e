package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, DefaultDirName, "config.toml"), store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("search.result_cap", 25))

	val, ok := store.Get("search.result_cap")
	assert.True(t, ok)
	assert.Equal(t, 25, val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("s", "hello"))
	require.NoError(t, store.Set("i", 42))
	require.NoError(t, store.Set("f", 0.25))
	require.NoError(t, store.Set("list", []string{"a", "b"}))

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "hello", store.GetString("s"))
		assert.Equal(t, "", store.GetString("i"))
		assert.Equal(t, "", store.GetString("missing"))
	})

	t.Run("int", func(t *testing.T) {
		assert.Equal(t, 42, store.GetInt("i"))
		assert.Equal(t, 0, store.GetInt("s"))
	})

	t.Run("float widens integers", func(t *testing.T) {
		assert.InDelta(t, 0.25, store.GetFloat("f"), 1e-9)
		assert.InDelta(t, 42.0, store.GetFloat("i"), 1e-9)
		assert.Zero(t, store.GetFloat("s"))
	})

	t.Run("string slice", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("list"))
		assert.Nil(t, store.GetStringSlice("s"))
	})
}

func TestConfigStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("search.result_cap", 15))
	require.NoError(t, store.Set("search.freshness_boost", 0.2))
	require.NoError(t, store.Set("context.project_tag_prefixes", []string{"project/", "proj/"}))
	require.NoError(t, store.Set("vault", "/notes"))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 15, reopened.GetInt("search.result_cap"))
	assert.InDelta(t, 0.2, reopened.GetFloat("search.freshness_boost"), 1e-9)
	assert.Equal(t, []string{"project/", "proj/"}, reopened.GetStringSlice("context.project_tag_prefixes"))
	assert.Equal(t, "/notes", reopened.GetString("vault"))
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("bench.concurrency", 4))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[bench]")
	assert.Contains(t, string(data), "concurrency = 4")
}

func TestConfigStore_LoadNestedFile(t *testing.T) {
	dir := t.TempDir()
	content := "[search]\nresult_cap = 7\n\n[search.weights]\nkeyword = 0.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 7, store.GetInt("search.result_cap"))
	assert.InDelta(t, 0.5, store.GetFloat("search.weights.keyword"), 1e-9)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	_, err := NewConfigStore(filepath.Join(blocker, "sub"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create config directory")
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("bench.concurrency", n)
			_ = store.GetInt("bench.concurrency")
		}(i)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, store.GetInt("bench.concurrency"), 0)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a.b":   1,
		"a.c.d": "x",
		"top":   true,
	})

	assert.Equal(t, map[string]any{
		"a":   map[string]any{"b": 1, "c": map[string]any{"d": "x"}},
		"top": true,
	}, nested)
	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "top": true}, flattenMap(nested, ""))
}
