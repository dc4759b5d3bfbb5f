package mirror

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV 配置结构
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	RootPath string
	Timeout  time.Duration
}

// WebDAV 把图片镜像到 WebDAV 共享目录
type WebDAV struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
}

// NewWebDAV 创建 WebDAV 镜像，连接在首次写入时建立
func NewWebDAV(cfg WebDAVConfig) (*WebDAV, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	rootPath := strings.Trim(cfg.RootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &WebDAV{
		client:   client,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		rootPath: rootPath,
	}, nil
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAV) fullPath(storagePath string) string {
	return s.rootPath + "/" + strings.TrimLeft(storagePath, "/")
}

// call 在后台执行阻塞的 WebDAV 请求，ctx 取消时提前返回
func call(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (s *WebDAV) Write(ctx context.Context, storagePath string, data []byte) error {
	fullPath := s.fullPath(storagePath)

	if dir := path.Dir(fullPath); dir != "/" && dir != "." {
		if err := call(ctx, func() error { return s.client.MkdirAll(dir, 0o755) }); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := call(ctx, func() error { return s.client.Write(fullPath, data, 0o644) }); err != nil {
		return fmt.Errorf("failed to write file %s: %w", storagePath, err)
	}
	return nil
}

// Health 检查存储健康状态
func (s *WebDAV) Health(ctx context.Context) error {
	root := s.rootPath
	if root == "" {
		root = "/"
	}
	return call(ctx, func() error {
		_, err := s.client.ReadDir(root)
		return err
	})
}

func (s *WebDAV) Name() string {
	return fmt.Sprintf("webdav:%s%s", s.baseURL, s.rootPath)
}
