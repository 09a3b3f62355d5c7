package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-singleline/pkg/transform"
)

func result(out string) Result {
	return Result{Output: out, Loops: 1}
}

func TestLRUCache_Basic(t *testing.T) {
	c := New(Options{MaxSize: 3})

	c.Set("a", result("value_a"))
	c.Set("b", result("value_b"))
	c.Set("c", result("value_c"))

	assert.Equal(t, 3, c.Len())

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "value_a", val.Output)

	val, found = c.Get("b")
	require.True(t, found)
	assert.Equal(t, "value_b", val.Output)
}

func TestLRUCache_LRU_Eviction(t *testing.T) {
	var evicted []string
	c := New(Options{MaxSize: 3, OnEvict: func(key string) { evicted = append(evicted, key) }})

	c.Set("a", result("value_a"))
	c.Set("b", result("value_b"))
	c.Set("c", result("value_c"))

	// Access 'a' to make it most recently used
	c.Get("a")

	// Add new item - should evict 'b' (least recently used)
	c.Set("d", result("value_d"))

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"b"}, evicted)

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")

	_, found = c.Get("a")
	assert.True(t, found, "a should still be present")

	_, found = c.Get("c")
	assert.True(t, found, "c should still be present")

	_, found = c.Get("d")
	assert.True(t, found, "d should be present")
}

func TestLRUCache_Delete(t *testing.T) {
	c := New(Options{MaxSize: 10})

	c.Set("a", result("value_a"))
	c.Set("b", result("value_b"))

	c.Delete("a")
	c.Delete("missing")

	assert.Equal(t, 1, c.Len())

	_, found := c.Get("a")
	assert.False(t, found)

	val, found := c.Get("b")
	require.True(t, found)
	assert.Equal(t, "value_b", val.Output)
}

func TestLRUCache_Clear(t *testing.T) {
	c := New(Options{MaxSize: 10})

	c.Set("a", result("value_a"))
	c.Set("b", result("value_b"))

	c.Clear()

	assert.Equal(t, 0, c.Len())
}

func TestLRUCache_Update(t *testing.T) {
	c := New(Options{MaxSize: 10})

	c.Set("a", result("value1"))
	c.Set("a", result("value2"))

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "value2", val.Output)

	assert.Equal(t, 1, c.Len())
}

func TestLRUCache_Stats(t *testing.T) {
	c := New(Options{MaxSize: 10})

	c.Set("key1", result("value1"))
	c.Get("key1")
	c.Get("key2")

	stats := c.Stats()
	assert.Equal(t, 1, stats.Length)
	assert.Equal(t, int64(1), stats.HitCount)
	assert.Equal(t, int64(1), stats.MissCount)
}

func TestLRUCache_SaveLoad(t *testing.T) {
	c := New(Options{MaxSize: 10})
	c.Set("key1", Result{Output: "x = 1", Loops: 0})
	c.Set("key2", Result{Output: "y = 2", Loops: 3})
	c.Set("key3", Result{Output: "z = 3", Loops: 1})
	c.Get("key1")

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	// Restoring into a smaller cache keeps the most recently used entries.
	c2 := New(Options{MaxSize: 2})
	require.NoError(t, c2.Load(&buf))

	assert.Equal(t, 2, c2.Len())

	val, found := c2.Get("key1")
	require.True(t, found)
	assert.Equal(t, Result{Output: "x = 1", Loops: 0}, val)

	val, found = c2.Get("key3")
	require.True(t, found)
	assert.Equal(t, 1, val.Loops)

	_, found = c2.Get("key2")
	assert.False(t, found)
}

func TestLRUCache_LoadVersionMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&buf).Encode(&snapshot{
		Version: formatVersion + 1,
		Entries: []Entry{{Key: "stale", Result: result("old")}},
	}))

	c := New(Options{MaxSize: 10})
	c.Set("existing", result("x"))
	require.NoError(t, c.Load(&buf))

	assert.Equal(t, 0, c.Len())
}

func TestLRUCache_LoadGarbage(t *testing.T) {
	c := New(Options{MaxSize: 10})
	err := c.Load(bytes.NewReader([]byte{0xc1}))
	assert.Error(t, err)
}

func TestPersistToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "transpile.msgpack")

	c := New(Options{MaxSize: 10})
	c.Set("k", result("out"))
	require.NoError(t, PersistToFile(c, path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	c2 := New(Options{MaxSize: 10})
	require.NoError(t, LoadFromFile(c2, path))

	val, found := c2.Get("k")
	require.True(t, found)
	assert.Equal(t, "out", val.Output)
}

func TestPersistedFileDoesNotExist(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nonexistent.cache")

	c := New(Options{MaxSize: 10})

	err := LoadFromFile(c, path)
	require.NoError(t, err, "loading non-existent file should not error")

	assert.Equal(t, 0, c.Len())
}

func TestKey(t *testing.T) {
	opts := transform.DefaultOptions()

	k1 := Key([]byte("x = 1\n"), opts)
	k2 := Key([]byte("x = 1\n"), opts)
	k3 := Key([]byte("x = 2\n"), opts)

	other := opts
	other.StorePrefix = "_s_"
	k4 := Key([]byte("x = 1\n"), other)

	assert.Equal(t, k1, k2, "same content should produce same key")
	assert.NotEqual(t, k1, k3, "different content should produce different key")
	assert.NotEqual(t, k1, k4, "different options should produce different key")
	assert.Len(t, k1, 64, "SHA256 hash should be 64 hex characters")
}
