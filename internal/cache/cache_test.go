package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache(time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", []byte("v"), 0)
	val, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestTTLCacheExpiration(t *testing.T) {
	c := NewTTLCache(time.Minute)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache(time.Minute)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 0)
	c.Delete(ctx, "k")

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestTTLCacheSweep(t *testing.T) {
	c := NewTTLCache(time.Minute)
	ctx := context.Background()

	c.Set(ctx, "stale", []byte("v"), time.Millisecond)
	c.Set(ctx, "fresh", []byte("v"), time.Hour)
	time.Sleep(5 * time.Millisecond)

	evicted := c.Sweep()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, c.Size())
}

func TestKeyBuildsDeterministicString(t *testing.T) {
	assert.Equal(t, "sanctions:query:eth:0xabc", Key("sanctions", "query", "eth", "0xabc"))
	assert.Equal(t, "sanctions:query", Key("sanctions", "query"))
}

func TestSetJSONGetJSON(t *testing.T) {
	c := NewTTLCache(time.Minute)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}
	SetJSON(ctx, c, "p", payload{Name: "tornado"}, time.Minute)

	var got payload
	ok := GetJSON(ctx, c, "p", &got)
	require.True(t, ok)
	assert.Equal(t, "tornado", got.Name)
}

func TestGetJSONMissingKey(t *testing.T) {
	c := NewTTLCache(time.Minute)
	var dst struct{}
	assert.False(t, GetJSON(context.Background(), c, "missing", &dst))
}
