package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "Corporate Training", "corporate training"},
		{"punctuation stripped", "event, please! (urgent)", "event please urgent"},
		{"whitespace collapsed", "a   b\t\nc", "a b c"},
		{"leading and trailing space", "  hello  ", "hello"},
		{"symbols stripped", "budget: $500 + taxes", "budget 500 taxes"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestKey_EquivalentInputsCollide(t *testing.T) {
	a := Key("Corporate training for 50 people in Bangalore!")
	b := Key("corporate   training for 50 people in bangalore")
	c := Key("corporate training for 51 people in bangalore")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64, "keys are hex sha256 digests")
}

func TestCache_SetGet(t *testing.T) {
	c := New(4, time.Minute, 0, nil)

	c.Set("k1", "v1")
	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "v1", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := New(4, 10*time.Millisecond, 0, nil)

	c.Set("k1", "v1")
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("k1")
	assert.False(t, ok, "expired entries miss")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Expirations)
	assert.Equal(t, 0, stats.Entries)
}

func TestCache_EvictsOldestOnOverflow(t *testing.T) {
	c := New(2, time.Minute, 0, nil)

	c.Set("first", 1)
	time.Sleep(2 * time.Millisecond)
	c.Set("second", 2)
	time.Sleep(2 * time.Millisecond)
	c.Set("third", 3)

	_, ok := c.Get("first")
	assert.False(t, ok, "the oldest entry is evicted")
	_, ok = c.Get("second")
	assert.True(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := New(2, time.Minute, 0, nil)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3) // replacement, not growth

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(0), c.Stats().Evictions)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, got)
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New(4, time.Minute, 0, nil)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCache_Stats(t *testing.T) {
	c := New(4, time.Minute, 0, nil)

	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 4, stats.MaxEntries)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCache_SweeperRemovesExpired(t *testing.T) {
	c := New(4, 5*time.Millisecond, 10*time.Millisecond, nil)
	defer c.Close()

	c.Set("a", 1)

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 5*time.Millisecond, "sweeper should remove the expired entry")
}

func TestCache_CloseIsIdempotentWithoutSweeper(t *testing.T) {
	c := New(4, time.Minute, 0, nil)
	c.Close() // no sweeper running; must not block or panic
}
