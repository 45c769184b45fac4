package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	c := New(true)
	defer c.Close()

	etag := c.Set("k", []byte(`{"a":1}`), time.Minute)
	data, got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(data))
	assert.Equal(t, etag, got)
	assert.Equal(t, ComputeETag([]byte(`{"a":1}`)), etag)

	_, _, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestExpired(t *testing.T) {
	c := New(true)
	defer c.Close()

	c.Set("k", []byte("x"), -time.Second)
	_, _, ok := c.Get("k")
	assert.False(t, ok)

	c.evict()
	assert.Equal(t, 0, c.Stats()["total_keys"])
}

func TestDisabled(t *testing.T) {
	c := New(false)
	etag := c.Set("k", []byte("x"), time.Minute)
	assert.NotEmpty(t, etag)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, false, c.Stats()["enabled"])
}

func TestDeletePrefix(t *testing.T) {
	c := New(true)
	defer c.Close()

	c.Set(SourceKey("cpl", "records", "person"), []byte("1"), time.Minute)
	c.Set(SourceKey("cpl", "record", "B00013"), []byte("2"), time.Minute)
	c.Set(SourceKey("cplx", "records", ""), []byte("3"), time.Minute)
	c.Set("index", []byte("4"), time.Minute)

	assert.Equal(t, 2, c.DeletePrefix(SourcePrefix("cpl")))
	_, _, ok := c.Get(SourceKey("cplx", "records", ""))
	assert.True(t, ok)
	_, _, ok = c.Get("index")
	assert.True(t, ok)

	c.Delete("index")
	_, _, ok = c.Get("index")
	assert.False(t, ok)
}

func TestCheckETagMatch(t *testing.T) {
	etag := `W/"abc"`
	assert.False(t, CheckETagMatch("", etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch(`W/"zzz", W/"abc"`, etag))
	assert.False(t, CheckETagMatch(`W/"zzz"`, etag))
}
