package store

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionCache_SetThenGet(t *testing.T) {
	c := NewSessionCache(nil, DefaultTTL, nil)

	require.NoError(t, c.Set("pages:10", []int{1, 2}))

	var got []int
	assert.True(t, c.GetJSON("pages:10", &got))
	assert.Equal(t, []int{1, 2}, got)

	raw, ok := c.Get("pages:10")
	assert.True(t, ok)
	assert.JSONEq(t, `[1,2]`, string(raw))
}

func TestSessionCache_MissingKey(t *testing.T) {
	c := NewSessionCache(nil, DefaultTTL, nil)
	_, ok := c.Get("manga:1")
	assert.False(t, ok)
}

func TestSessionCache_TTLBoundary(t *testing.T) {
	clock := newFakeClock()
	c := NewSessionCache(nil, 5*time.Minute, nil, WithClock(clock.Now))

	require.NoError(t, c.Set("pages:10", []string{"p1", "p2"}))

	clock.Advance(299 * time.Second)
	_, ok := c.Get("pages:10")
	assert.True(t, ok, "entry should be valid at 299s")

	clock.Advance(2 * time.Second)
	_, ok = c.Get("pages:10")
	assert.False(t, ok, "entry should be expired at 301s")
}

func TestSessionCache_ExactTTLIsExpired(t *testing.T) {
	clock := newFakeClock()
	c := NewSessionCache(nil, time.Minute, nil, WithClock(clock.Now))

	require.NoError(t, c.Set("k", 1))
	clock.Advance(time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestSessionCache_EvictionIsPermanent(t *testing.T) {
	clock := newFakeClock()
	c := NewSessionCache(nil, time.Minute, nil, WithClock(clock.Now))

	require.NoError(t, c.Set("k", "v"))
	clock.Advance(2 * time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestSessionCache_SetRefreshesTimestamp(t *testing.T) {
	clock := newFakeClock()
	c := NewSessionCache(nil, time.Minute, nil, WithClock(clock.Now))

	require.NoError(t, c.Set("k", "old"))
	clock.Advance(50 * time.Second)
	require.NoError(t, c.Set("k", "new"))
	clock.Advance(50 * time.Second)

	var got string
	assert.True(t, c.GetJSON("k", &got))
	assert.Equal(t, "new", got)
}

func TestSessionCache_SetUnencodable(t *testing.T) {
	c := NewSessionCache(nil, DefaultTTL, nil)
	err := c.Set("k", make(chan int))
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestSessionCache_GetJSONWrongType(t *testing.T) {
	c := NewSessionCache(nil, DefaultTTL, nil)
	require.NoError(t, c.Set("k", "text"))

	var n int
	assert.False(t, c.GetJSON("k", &n))
}

func TestSessionCache_RestoreDropsExpired(t *testing.T) {
	dir := t.TempDir()
	clock := newFakeClock()

	s := openTestStore(t, dir)
	c := NewSessionCache(s, 5*time.Minute, nil, WithClock(clock.Now))
	require.NoError(t, c.Set("old", 1))
	clock.Advance(4 * time.Minute)
	require.NoError(t, c.Set("fresh", 2))
	require.NoError(t, s.Close())

	clock.Advance(2 * time.Minute)
	s2 := openTestStore(t, dir)
	restored := NewSessionCache(s2, 5*time.Minute, nil, WithClock(clock.Now))

	_, ok := restored.Get("old")
	assert.False(t, ok)

	var fresh int
	assert.True(t, restored.GetJSON("fresh", &fresh))
	assert.Equal(t, 2, fresh)
	assert.Equal(t, 1, restored.Len())
}

func TestSessionCache_EvictionIsPersisted(t *testing.T) {
	dir := t.TempDir()
	clock := newFakeClock()

	s := openTestStore(t, dir)
	c := NewSessionCache(s, time.Minute, nil, WithClock(clock.Now))
	require.NoError(t, c.Set("k", 1))

	clock.Advance(2 * time.Minute)
	_, ok := c.Get("k")
	require.False(t, ok)
	require.NoError(t, s.Close())

	// A clock rewound to the original write would still accept the entry,
	// so only a persisted eviction explains the miss.
	rewound := newFakeClock()
	s2 := openTestStore(t, dir)
	restored := NewSessionCache(s2, time.Minute, nil, WithClock(rewound.Now))
	_, ok = restored.Get("k")
	assert.False(t, ok)
}

func TestSessionCache_PersistedLayout(t *testing.T) {
	dir := t.TempDir()
	clock := newFakeClock()

	s := openTestStore(t, dir)
	c := NewSessionCache(s, DefaultTTL, nil, WithClock(clock.Now))
	require.NoError(t, c.Set("manga:7", map[string]string{"title": "Yotsuba"}))

	data, err := s.read(bucketCache, "data-cache")
	require.NoError(t, err)

	var layout map[string]struct {
		Data     json.RawMessage `json:"data"`
		StoredAt int64           `json:"storedAt"`
	}
	require.NoError(t, json.Unmarshal(data, &layout))
	require.Contains(t, layout, "manga:7")
	assert.JSONEq(t, `{"title":"Yotsuba"}`, string(layout["manga:7"].Data))
	assert.Equal(t, clock.Now().UnixMilli(), layout["manga:7"].StoredAt)
}

func TestSessionCache_MalformedPersistedData(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	require.NoError(t, s.write(bucketCache, "data-cache", []byte("{not json")))

	c := NewSessionCache(s, DefaultTTL, nil)
	assert.Equal(t, 0, c.Len())

	// The cache stays usable and overwrites the bad blob
	require.NoError(t, c.Set("k", 1))
	restored := NewSessionCache(s, DefaultTTL, nil)
	assert.Equal(t, 1, restored.Len())
}

func TestSessionCache_DeletePrefixAndClear(t *testing.T) {
	c := NewSessionCache(nil, DefaultTTL, nil)
	require.NoError(t, c.Set("pages:1", 1))
	require.NoError(t, c.Set("pages:2", 2))
	require.NoError(t, c.Set("manga:1", 3))

	c.DeletePrefix("pages:")
	assert.Equal(t, 1, c.Len())

	c.Delete("manga:1")
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.Set("genres", []string{"a"}))
	c.Clear()
	assert.Equal(t, 0, c.Len())
}
