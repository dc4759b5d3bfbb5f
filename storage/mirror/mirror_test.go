package mirror

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPicker struct {
	mu    sync.Mutex
	dir   string
	err   error
	calls int
}

func (p *countingPicker) PickFolder(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.dir, p.err
}

func TestFolder_AsksOnceAndOverwrites(t *testing.T) {
	root := t.TempDir()
	picker := &countingPicker{dir: root}
	f := NewFolder(picker)
	ctx := context.Background()

	require.NoError(t, f.Write(ctx, "uploads/images/general/1-a.jpg", []byte("first")))
	require.NoError(t, f.Write(ctx, "uploads/images/general/1-a.jpg", []byte("2nd")))
	require.NoError(t, f.Write(ctx, "uploads/images/equipment/2-b.jpg", []byte("other")))

	assert.Equal(t, 1, picker.calls)

	data, err := os.ReadFile(filepath.Join(root, "uploads/images/general/1-a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "2nd", string(data))
	assert.Contains(t, f.Name(), root)
}

func TestFolder_InvalidateAsksAgain(t *testing.T) {
	picker := &countingPicker{dir: t.TempDir()}
	f := NewFolder(picker)
	ctx := context.Background()

	require.NoError(t, f.Write(ctx, "a.jpg", []byte("x")))
	f.Invalidate()
	assert.Equal(t, "folder", f.Name())
	require.NoError(t, f.Write(ctx, "b.jpg", []byte("y")))

	assert.Equal(t, 2, picker.calls)
}

func TestFolder_Cancelled(t *testing.T) {
	picker := &countingPicker{err: ErrUserCancelled}
	f := NewFolder(picker)

	err := f.Write(context.Background(), "a.jpg", []byte("x"))
	assert.ErrorIs(t, err, ErrUserCancelled)

	// 取消不会被缓存
	_ = f.Write(context.Background(), "a.jpg", []byte("x"))
	assert.Equal(t, 2, picker.calls)
}

func TestFolder_PermissionDeniedInvalidates(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	require.NoError(t, os.Chmod(root, 0o555))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	picker := &countingPicker{dir: root}
	f := NewFolder(picker)

	err := f.Write(context.Background(), "sub/a.jpg", []byte("x"))
	require.Error(t, err)
	_, cached := f.slot.get()
	assert.False(t, cached)
}

func TestFolder_RejectsTraversal(t *testing.T) {
	f := NewFolder(StaticPicker{Dir: t.TempDir()})
	assert.Error(t, f.Write(context.Background(), "../escape.jpg", []byte("x")))
}

func TestTerminalPicker(t *testing.T) {
	dir := t.TempDir()
	var out strings.Builder

	p := &TerminalPicker{In: strings.NewReader(dir + "\n"), Out: &out}
	got, err := p.PickFolder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, got)
	assert.Contains(t, out.String(), "mirror")

	p = &TerminalPicker{In: strings.NewReader("\n"), Out: io.Discard}
	_, err = p.PickFolder(context.Background())
	assert.ErrorIs(t, err, ErrUserCancelled)

	p = &TerminalPicker{In: strings.NewReader(""), Out: io.Discard}
	_, err = p.PickFolder(context.Background())
	assert.ErrorIs(t, err, ErrUserCancelled)

	p = &TerminalPicker{In: strings.NewReader(filepath.Join(dir, "missing") + "\n"), Out: io.Discard}
	_, err = p.PickFolder(context.Background())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUserCancelled))
}

func TestTerminalPicker_CancelledPromptKeepsNextAnswer(t *testing.T) {
	dir := t.TempDir()
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	p := &TerminalPicker{In: pr, Out: io.Discard}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.PickFolder(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	go func() {
		_, _ = io.WriteString(pw, dir+"\n")
	}()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	got, err := p.PickFolder(ctx2)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_ = pw.Close()
	_, err = p.PickFolder(context.Background())
	assert.ErrorIs(t, err, ErrUserCancelled)
}

func TestWebDAV_Write(t *testing.T) {
	var mu sync.Mutex
	puts := make(map[string]string)
	var mkcols []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case "MKCOL":
			mkcols = append(mkcols, r.URL.Path)
			w.WriteHeader(http.StatusCreated)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			puts[r.URL.Path] = string(body)
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	m, err := NewWebDAV(WebDAVConfig{URL: srv.URL, RootPath: "/mirror/"})
	require.NoError(t, err)

	require.NoError(t, m.Write(context.Background(), "uploads/images/general/1-a.jpg", []byte("jpeg")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "jpeg", puts["/mirror/uploads/images/general/1-a.jpg"])
	assert.NotEmpty(t, mkcols)
	assert.Equal(t, "webdav:"+srv.URL+"/mirror", m.Name())
}

func TestWebDAV_CanceledContext(t *testing.T) {
	m, err := NewWebDAV(WebDAVConfig{URL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Write(ctx, "a.jpg", []byte("x")), context.Canceled)
}

func TestWebDAV_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PROPFIND" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="utf-8"?>
<d:multistatus xmlns:d="DAV:"><d:response><d:href>/mirror/</d:href><d:propstat><d:prop><d:resourcetype><d:collection/></d:resourcetype></d:prop><d:status>HTTP/1.1 200 OK</d:status></d:propstat></d:response></d:multistatus>`)
	}))
	defer srv.Close()

	m, err := NewWebDAV(WebDAVConfig{URL: srv.URL, RootPath: "/mirror/"})
	require.NoError(t, err)
	assert.NoError(t, m.Health(context.Background()))

	down, err := NewWebDAV(WebDAVConfig{URL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.Error(t, down.Health(context.Background()))
}

func TestMinio_WriteAndHealth(t *testing.T) {
	var mu sync.Mutex
	puts := make(map[string]string)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Query().Has("location"):
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			puts[r.URL.Path] = string(body)
			mu.Unlock()
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	defer srv.Close()

	m, err := NewMinio(MinioConfig{
		Endpoint:        strings.TrimPrefix(srv.URL, "http://"),
		AccessKeyID:     "access",
		SecretAccessKey: "secret",
		BucketName:      "facility-images",
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, m.Health(ctx))
	require.NoError(t, m.Write(ctx, "uploads/images/general/1-a.jpg", []byte("jpeg")))

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, puts["/facility-images/uploads/images/general/1-a.jpg"], "jpeg")
	assert.Equal(t, "minio:facility-images", m.Name())
}

func TestMinio_HealthUnreachable(t *testing.T) {
	m, err := NewMinio(MinioConfig{Endpoint: "127.0.0.1:1", BucketName: "facility-images"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.Error(t, m.Health(ctx))
}

func TestFolder_Health(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mirror")
	require.NoError(t, os.Mkdir(root, 0o755))
	f := NewFolder(StaticPicker{Dir: root})
	ctx := context.Background()

	assert.NoError(t, f.Health(ctx))
	require.NoError(t, f.Write(ctx, "a.jpg", []byte("x")))
	assert.NoError(t, f.Health(ctx))

	require.NoError(t, os.RemoveAll(root))
	assert.Error(t, f.Health(ctx))
}

func TestNew(t *testing.T) {
	m, err := New(Config{Type: "none"}, nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = New(Config{Type: "folder", Folder: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Folder{}, m)

	_, err = New(Config{Type: "folder"}, nil)
	assert.Error(t, err)

	_, err = New(Config{Type: "webdav"}, nil)
	assert.Error(t, err)

	m, err = New(Config{Type: "minio", MinioEndpoint: "localhost:9000", MinioBucketName: "facility-images"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "minio:facility-images", m.Name())

	_, err = New(Config{Type: "ftp"}, nil)
	assert.Error(t, err)
}
