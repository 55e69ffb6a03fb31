package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheBackends(t *testing.T) map[string]CacheStore {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	sqlite, err := OpenCache(ctx, "sqlite", "", filepath.Join(dir, "db", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	file, err := OpenCache(ctx, "file", filepath.Join(dir, "files"), "")
	require.NoError(t, err)

	return map[string]CacheStore{"file": file, "sqlite": sqlite}
}

func TestCacheStore_MissIsNotAnError(t *testing.T) {
	for name, cache := range cacheBackends(t) {
		t.Run(name, func(t *testing.T) {
			payload, found, err := cache.Get(context.Background(), "spb")
			require.NoError(t, err)
			assert.False(t, found)
			assert.Nil(t, payload)
		})
	}
}

func TestCacheStore_PutThenGet(t *testing.T) {
	ctx := context.Background()
	for name, cache := range cacheBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, cache.Put(ctx, "spb", []byte(`{"actualTariffs":[]}`)))
			require.NoError(t, cache.Put(ctx, "spb", []byte(`{"actualTariffs":[{"id":"a"}]}`)))

			payload, found, err := cache.Get(ctx, "spb")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, `{"actualTariffs":[{"id":"a"}]}`, string(payload))

			_, found, err = cache.Get(ctx, "msk")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestCacheStore_ConcurrentRegions(t *testing.T) {
	ctx := context.Background()
	regions := []string{"a", "b", "c", "d", "e", "f"}

	for name, cache := range cacheBackends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for _, id := range regions {
				wg.Add(1)
				go func(id string) {
					defer wg.Done()
					assert.NoError(t, cache.Put(ctx, id, []byte(id)))
				}(id)
			}
			wg.Wait()

			for _, id := range regions {
				payload, found, err := cache.Get(ctx, id)
				require.NoError(t, err)
				require.True(t, found)
				assert.Equal(t, id, string(payload))
			}
		})
	}
}

func TestFileCache_Layout(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileCache(dir)

	require.NoError(t, cache.Put(context.Background(), "nnov", []byte("{}")))

	data, err := os.ReadFile(filepath.Join(dir, "nnov.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileCache_RejectsPathKeys(t *testing.T) {
	cache := NewFileCache(t.TempDir())

	for _, key := range []string{"", "..", "../etc", "a/b"} {
		assert.Error(t, cache.Put(context.Background(), key, []byte("x")), key)
		_, _, err := cache.Get(context.Background(), key)
		assert.Error(t, err, key)
	}
}

func TestOpenCache_Unknown(t *testing.T) {
	_, err := OpenCache(context.Background(), "redis", "", "")
	assert.Error(t, err)
}
