package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_OpensLazilyAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "images.db")
	f := NewFactory(Config{Type: "sqlite", FilePath: path})
	t.Cleanup(func() { _ = f.Close() })

	assert.False(t, f.Opened())

	p, err := f.Open(context.Background())
	require.NoError(t, err)
	assert.True(t, f.Opened())
	assert.Equal(t, "sqlite", p.Name())
	assert.True(t, p.DB().Migrator().HasTable("image_blobs"))

	again, err := f.Open(context.Background())
	require.NoError(t, err)
	assert.Same(t, p, again)
	assert.NoError(t, p.Ping(context.Background()))
}

func TestFactory_FailureIsNotCached(t *testing.T) {
	f := NewFactory(Config{Type: "oracle"})

	_, err := f.Open(context.Background())
	require.Error(t, err)
	assert.False(t, f.Opened())

	f.cfg = Config{Type: "sqlite", FilePath: filepath.Join(t.TempDir(), "ok.db")}
	_, err = f.Open(context.Background())
	require.NoError(t, err)
	assert.NoError(t, f.Close())
	assert.False(t, f.Opened())
}

func TestFactory_CanceledContext(t *testing.T) {
	f := NewFactory(Config{Type: "sqlite", FilePath: filepath.Join(t.TempDir(), "x.db")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Open(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
