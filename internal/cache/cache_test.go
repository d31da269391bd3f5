package cache

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "auditreport/internal/log"
)

func newTestCache[T any](t *testing.T, size int, ttl time.Duration) (*LRUCache[T], *time.Time) {
	t.Helper()
	c := NewLRUCache[T](size, ttl)
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRUCache_Expiration(t *testing.T) {
	c, now := newTestCache[string](t, 3, 100*time.Millisecond)

	c.Set("k", "v")
	v, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "v", v)

	*now = now.Add(150 * time.Millisecond)
	_, found = c.Get("k")
	assert.False(t, found, "item should have expired")
	assert.Equal(t, 0, c.Size())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestLRUCache_Eviction(t *testing.T) {
	c, _ := newTestCache[string](t, 3, time.Hour)

	var evicted []string
	c.OnEvict(func(key, value string) { evicted = append(evicted, key) })

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Get("key1") // key2 is now least recently used
	c.Set("key4", "value4")

	_, found := c.Get("key2")
	assert.False(t, found, "key2 should have been evicted")
	for _, k := range []string{"key1", "key3", "key4"} {
		_, found := c.Get(k)
		assert.True(t, found, "%s should be present", k)
	}
	assert.Equal(t, []string{"key2"}, evicted)
	assert.Equal(t, 3, c.Size())
}

func TestLRUCache_ReplaceAndDeleteNotify(t *testing.T) {
	c, _ := newTestCache[string](t, 3, time.Hour)
	var evicted []string
	c.OnEvict(func(key, value string) { evicted = append(evicted, value) })

	c.Set("k", "old")
	c.Set("k", "new")
	c.Delete("k")
	c.Delete("missing")

	assert.Equal(t, []string{"old", "new"}, evicted)
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c, now := newTestCache[int](t, 10, time.Minute)
	c.Set("a", 1)
	*now = now.Add(30 * time.Second)
	c.Set("b", 2)
	*now = now.Add(45 * time.Second)

	assert.Equal(t, 1, c.CleanExpired())
	_, found := c.Get("b")
	assert.True(t, found)
}

func TestKey_Canonical(t *testing.T) {
	k1, err := Key(map[string]any{"b": 1, "a": []any{"x", 2.5}})
	require.NoError(t, err)
	k2, err := Key(map[string]any{"a": []any{"x", 2.5}, "b": 1})
	require.NoError(t, err)
	k3, err := Key(map[string]any{"a": []any{"x", 2.5}, "b": 2})
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Len(t, k1, 64)

	_, err = Key(map[string]any{"f": func() {}})
	assert.Error(t, err)
}

func TestManager(t *testing.T) {
	logger := applog.New(applog.Config{Output: &bytes.Buffer{}})
	c, now := newTestCache[int](t, 10, time.Minute)
	c.Set("a", 1)
	*now = now.Add(2 * time.Minute)

	m := NewManager(logger)
	m.Register(c)
	assert.Equal(t, 1, m.CleanAll())

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager(applog.New(applog.Config{Output: &bytes.Buffer{}}))
	m.Stop()
}
