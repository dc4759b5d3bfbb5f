package cache

import (
	"context"
	"testing"
	"time"

	"github.com/anoixa/facility-image-store/cache/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T) Provider {
	t.Helper()
	m, err := memory.NewMemory(memory.Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemoryCache_Bytes(t *testing.T) {
	c := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte{1, 2, 3}, time.Minute))

	var got []byte
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, []byte{1, 2, 3}, got)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "k"))
	err = c.Get(ctx, "k", &got)
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_Struct(t *testing.T) {
	c := newTestMemory(t)
	ctx := context.Background()

	type entry struct {
		Mime string `json:"mime"`
		Size int    `json:"size"`
	}
	require.NoError(t, c.Set(ctx, "e", entry{Mime: "image/png", Size: 4}, time.Minute))

	var got entry
	require.NoError(t, c.Get(ctx, "e", &got))
	assert.Equal(t, entry{Mime: "image/png", Size: 4}, got)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("x"), 50*time.Millisecond))
	assert.Eventually(t, func() bool {
		ok, _ := c.Exists(ctx, "short")
		return !ok
	}, 3*time.Second, 50*time.Millisecond)
}

func TestMemoryCache_RejectsOversized(t *testing.T) {
	m, err := memory.NewMemory(memory.Config{NumCounters: 100, MaxCost: 10, BufferItems: 64})
	require.NoError(t, err)
	defer m.Close()

	err = m.Set(context.Background(), "big", make([]byte, 100), time.Minute)
	assert.ErrorIs(t, err, memory.ErrRejected)
}

func TestKeyBuilder(t *testing.T) {
	assert.Equal(t, "blob_url:abc", BlobURL.Build("abc"))
	assert.Equal(t, "blob_url", BlobURL.Build())
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Type: "memory", MaxSizeMB: 1})
	require.NoError(t, err)
	assert.Equal(t, "memory", p.Name())
	_ = p.Close()

	_, err = NewProvider(context.Background(), Config{Type: "memcached"})
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err = NewProvider(ctx, Config{Type: "redis", RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}
