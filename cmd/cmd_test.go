package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/anoixa/facility-image-store/database"
	"github.com/anoixa/facility-image-store/database/repo/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestCollectAndReadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), pngHeader, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("hello"), 0o644))
	single := filepath.Join(t.TempDir(), "c.png")
	require.NoError(t, os.WriteFile(single, pngHeader, 0o644))

	names, err := collectFiles([]string{dir, single})
	require.NoError(t, err)
	require.Len(t, names, 3)

	files, err := readFiles(context.Background(), names, 2)
	require.NoError(t, err)
	require.Len(t, files, 3)
	for i, f := range files {
		assert.Equal(t, filepath.Base(names[i]), f.Name)
	}
	assert.Equal(t, "image/png", files[0].ContentType)
	assert.Contains(t, files[1].ContentType, "text/plain")

	_, err = collectFiles([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func newRepo(t *testing.T, name string) *images.BlobRepository {
	t.Helper()
	f := database.NewFactory(database.Config{Type: "sqlite", FilePath: filepath.Join(t.TempDir(), name)})
	t.Cleanup(func() { _ = f.Close() })
	return images.NewBlobRepository(f)
}

func TestCopyBlobs(t *testing.T) {
	ctx := context.Background()
	src := newRepo(t, "src.db")
	require.NoError(t, src.Put(ctx, "uploads/images/general/a.jpg", []byte("a")))
	require.NoError(t, src.Put(ctx, "uploads/images/general/b.jpg", []byte("b")))

	t.Run("skip", func(t *testing.T) {
		dst := newRepo(t, "dst.db")
		require.NoError(t, dst.Put(ctx, "uploads/images/general/a.jpg", []byte("old")))

		stats, err := copyBlobs(ctx, src, dst, 1, "skip")
		require.NoError(t, err)
		assert.Equal(t, 1, stats.copied)
		assert.Equal(t, 1, stats.skipped)

		data, _ := dst.Get(ctx, "uploads/images/general/a.jpg")
		assert.Equal(t, []byte("old"), data)
	})

	t.Run("overwrite", func(t *testing.T) {
		dst := newRepo(t, "dst.db")
		require.NoError(t, dst.Put(ctx, "uploads/images/general/a.jpg", []byte("old")))

		stats, err := copyBlobs(ctx, src, dst, 10, "overwrite")
		require.NoError(t, err)
		assert.Equal(t, 2, stats.copied)

		data, _ := dst.Get(ctx, "uploads/images/general/a.jpg")
		assert.Equal(t, []byte("a"), data)
	})

	t.Run("error", func(t *testing.T) {
		dst := newRepo(t, "dst.db")
		require.NoError(t, dst.Put(ctx, "uploads/images/general/b.jpg", []byte("old")))

		_, err := copyBlobs(ctx, src, dst, 10, "error")
		assert.ErrorContains(t, err, "already exists")
	})
}

func TestSamePath(t *testing.T) {
	assert.True(t, samePath("./data/x.db", "data/x.db"))
	assert.False(t, samePath("a.db", "b.db"))
	assert.True(t, isSQLite("sqlite3"))
	assert.False(t, isSQLite("postgres"))
}
