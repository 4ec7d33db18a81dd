package internal

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/gnolang/cilint/internal/types"
)

func sampleIssues(filename string) []tt.Issue {
	return []tt.Issue{{
		Rule:       "query-root",
		Category:   "query",
		Filename:   filename,
		Message:    "call to Data.Db::SaveChanges",
		Conditions: []string{"IsFalse(order) => 0"},
		Paths:      1,
		Start:      tt.Location{Filename: filename, Method: "Shop.OrderService::Checkout", Offset: 0x1b, Line: 14},
		Severity:   tt.SeverityWarning,
	}}
}

func writeListing(t *testing.T, filename, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
}

func TestCache(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	cacheDir := filepath.Join(tmpDir, "cache")
	cache, err := NewCache(cacheDir)
	require.NoError(t, err)

	t.Run("SaveAndLoad", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "saved.cil.yaml")
		writeListing(t, filename, "assembly: A\n")
		issues := sampleIssues(filename)

		require.NoError(t, cache.Set(filename, issues))
		loaded, found := cache.Get(filename)
		assert.True(t, found)
		assert.Equal(t, issues, loaded)

		reopened, err := NewCache(cacheDir)
		require.NoError(t, err)
		loaded, found = reopened.Get(filename)
		assert.True(t, found)
		assert.Equal(t, issues, loaded)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, found := cache.Get("nonexistent.cil.yaml")
		assert.False(t, found)
	})

	t.Run("FileModified", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "modified.cil.yaml")
		writeListing(t, filename, "assembly: A\n")
		require.NoError(t, cache.Set(filename, sampleIssues(filename)))

		writeListing(t, filename, "assembly: B\n")
		_, found := cache.Get(filename)
		assert.False(t, found)
	})

	t.Run("Invalidate", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "invalidated.cil.yaml")
		writeListing(t, filename, "assembly: A\n")
		require.NoError(t, cache.Set(filename, sampleIssues(filename)))

		cache.Invalidate(filename)
		_, found := cache.Get(filename)
		assert.False(t, found)
	})
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	filename := filepath.Join(tmpDir, "old.cil.yaml")
	writeListing(t, filename, "assembly: A\n")
	require.NoError(t, cache.Set(filename, sampleIssues(filename)))

	cache.SetMaxAge(-time.Second)
	_, found := cache.Get(filename)
	assert.False(t, found)
}

func TestCacheDependencies(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	config := filepath.Join(tmpDir, ".cilint.yaml")
	writeListing(t, config, "name: cilint\n")
	require.NoError(t, cache.AddDependency(config))

	filename := filepath.Join(tmpDir, "dep.cil.yaml")
	writeListing(t, filename, "assembly: A\n")
	require.NoError(t, cache.Set(filename, sampleIssues(filename)))

	_, found := cache.Get(filename)
	assert.True(t, found)

	writeListing(t, config, "name: changed\n")
	_, found = cache.Get(filename)
	assert.False(t, found)

	assert.Error(t, cache.AddDependency(filepath.Join(tmpDir, "missing.yaml")))
}

func TestCacheInvalidateAll(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	filename := filepath.Join(tmpDir, "all.cil.yaml")
	writeListing(t, filename, "assembly: A\n")
	require.NoError(t, cache.Set(filename, sampleIssues(filename)))

	cache.InvalidateAll()
	_, found := cache.Get(filename)
	assert.False(t, found)
}

func TestCacheConcurrency(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	filename := filepath.Join(tmpDir, "concurrent.cil.yaml")
	writeListing(t, filename, "assembly: A\n")
	issues := sampleIssues(filename)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, cache.Set(filename, issues))
		}()
		go func() {
			defer wg.Done()
			_, _ = cache.Get(filename)
		}()
	}
	wg.Wait()

	loaded, found := cache.Get(filename)
	assert.True(t, found)
	assert.Equal(t, issues, loaded)
}
