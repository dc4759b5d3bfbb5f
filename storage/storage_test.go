package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/anoixa/facility-image-store/storage/mirror"
	"github.com/anoixa/facility-image-store/storage/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Put(ctx context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data[path] = append([]byte(nil), data...)
	return nil
}

func (s *memoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.data[path], nil
}

func (s *memoryStore) Delete(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.data[path]
	delete(s.data, path)
	return ok, nil
}

func (s *memoryStore) Health(ctx context.Context) error { return s.err }

type stubMirror struct {
	err    error
	writes []string
}

func (m *stubMirror) Write(ctx context.Context, path string, data []byte) error {
	m.writes = append(m.writes, path)
	return m.err
}

func (m *stubMirror) Name() string { return "stub" }

type healthMirror struct {
	stubMirror
	health error
}

func (m *healthMirror) Health(ctx context.Context) error { return m.health }

func newNative(t *testing.T) *NativeBackend {
	t.Helper()
	fs, err := native.New(t.TempDir())
	require.NoError(t, err)
	return NewNativeBackend(fs)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		setting string
		env     string
		goos    string
		want    Platform
		wantErr bool
	}{
		{"explicit native", "native", "", "linux", PlatformNative, false},
		{"explicit web", "WEB", "1", "android", PlatformWeb, false},
		{"auto desktop", "auto", "", "linux", PlatformWeb, false},
		{"auto empty", "", "", "darwin", PlatformWeb, false},
		{"auto shell env", "auto", "capacitor", "linux", PlatformNative, false},
		{"auto android", "auto", "", "android", PlatformNative, false},
		{"auto ios", "auto", "", "ios", PlatformNative, false},
		{"unknown", "desktop", "", "linux", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := detect(tt.setting, tt.env, tt.goos)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNativeBackend_Lifecycle(t *testing.T) {
	b := newNative(t)
	ctx := context.Background()
	path := "uploads/images/equipment/1700000000000-abc.png"

	exists, err := b.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, b.Write(ctx, path, []byte("png")))

	exists, err = b.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := b.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	text, err := b.ReadBase64(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "cG5n", text)

	require.NoError(t, b.Delete(ctx, path))
	_, err = b.Read(ctx, path)
	assert.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, path, nf.Path)
}

func TestNativeBackend_DeleteMissingIsNotFound(t *testing.T) {
	b := newNative(t)
	err := b.Delete(context.Background(), "never/written.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNativeBackend_ExistsInvalidPathIsFalse(t *testing.T) {
	b := newNative(t)
	exists, err := b.Exists(context.Background(), "../outside.jpg")
	assert.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, PlatformNative, b.Platform())
}

func TestWebBackend_WriteReadDelete(t *testing.T) {
	store := newMemoryStore()
	b := NewWebBackend(store, nil)
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, "a/b.jpg", []byte("jpeg")))
	data, err := b.Read(ctx, "a/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	exists, err := b.Exists(ctx, "a/b.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, b.Delete(ctx, "a/b.jpg"))
	assert.ErrorIs(t, b.Delete(ctx, "a/b.jpg"), ErrNotFound)

	_, err = b.Read(ctx, "a/b.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "web", b.Name())
	assert.Equal(t, PlatformWeb, b.Platform())
}

func TestWebBackend_MirrorFailureDoesNotFailSave(t *testing.T) {
	for _, mirrorErr := range []error{mirror.ErrUserCancelled, errors.New("disk full")} {
		store := newMemoryStore()
		m := &stubMirror{err: mirrorErr}
		b := NewWebBackend(store, m)

		require.NoError(t, b.Write(context.Background(), "x.jpg", []byte("data")))
		assert.Equal(t, []string{"x.jpg"}, m.writes)
		assert.Equal(t, "data", string(store.data["x.jpg"]))
	}
}

func TestWebBackend_StoreFailureFailsSave(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("quota exceeded")
	m := &stubMirror{}
	b := NewWebBackend(store, m)

	err := b.Write(context.Background(), "x.jpg", []byte("data"))
	assert.Error(t, err)
	assert.Len(t, m.writes, 1, "mirror is written before the keyed store")

	exists, err := b.Exists(context.Background(), "x.jpg")
	assert.Error(t, err)
	assert.False(t, exists)
}

func TestNewBackend(t *testing.T) {
	fs, err := native.New(t.TempDir())
	require.NoError(t, err)

	b, err := NewBackend(PlatformNative, Dependencies{Native: fs})
	require.NoError(t, err)
	assert.IsType(t, &NativeBackend{}, b)

	b, err = NewBackend(PlatformWeb, Dependencies{Store: newMemoryStore(), Mirror: &stubMirror{}})
	require.NoError(t, err)
	assert.Equal(t, "web+stub", b.Name())

	_, err = NewBackend(PlatformWeb, Dependencies{Native: fs})
	assert.Error(t, err)

	_, err = NewBackend(PlatformNative, Dependencies{})
	assert.Error(t, err)

	_, err = NewBackend("desktop", Dependencies{})
	assert.Error(t, err)
}

func TestErrUserCancelledAlias(t *testing.T) {
	assert.True(t, errors.Is(ErrUserCancelled, mirror.ErrUserCancelled))
}

func TestWebBackend_MirrorHealth(t *testing.T) {
	ctx := context.Background()

	checked, err := NewWebBackend(newMemoryStore(), nil).MirrorHealth(ctx)
	assert.False(t, checked)
	assert.NoError(t, err)

	checked, err = NewWebBackend(newMemoryStore(), &stubMirror{}).MirrorHealth(ctx)
	assert.False(t, checked)
	assert.NoError(t, err)

	checked, err = NewWebBackend(newMemoryStore(), &healthMirror{}).MirrorHealth(ctx)
	assert.True(t, checked)
	assert.NoError(t, err)

	b := NewWebBackend(newMemoryStore(), &healthMirror{health: errors.New("offline")})
	checked, err = b.MirrorHealth(ctx)
	assert.True(t, checked)
	assert.ErrorContains(t, err, "stub: offline")
	assert.NoError(t, b.Health(ctx))
}
