package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/facility-image-store/storage/mirror"
	"github.com/anoixa/facility-image-store/utils"
	"github.com/rs/zerolog/log"
)

// ObjectStore 键值对象存储，web 后端的数据来源
type ObjectStore interface {
	// Put 按路径覆盖写入
	Put(ctx context.Context, path string, data []byte) error
	// Get 不存在时返回 nil, nil
	Get(ctx context.Context, path string) ([]byte, error)
	// Delete 返回是否删除了记录，不存在时不报错
	Delete(ctx context.Context, path string) (bool, error)
	Health(ctx context.Context) error
}

// WebBackend 键值存储加可选镜像
type WebBackend struct {
	store  ObjectStore
	mirror mirror.Mirror
}

// NewWebBackend 创建 web 后端，m 可以为 nil
func NewWebBackend(store ObjectStore, m mirror.Mirror) *WebBackend {
	return &WebBackend{store: store, mirror: m}
}

// Write 先尽力写镜像，再写键值存储；只有后者失败才返回错误
func (b *WebBackend) Write(ctx context.Context, path string, data []byte) error {
	if b.mirror != nil {
		if err := b.mirror.Write(ctx, path, data); err != nil {
			event := log.Warn()
			if errors.Is(err, mirror.ErrUserCancelled) {
				event = log.Info()
			} else if utils.IsContextCanceled(err) {
				return err
			}
			event.Err(err).Str("mirror", b.mirror.Name()).Str("path", path).Msg("Mirror write skipped")
		}
	}

	if err := b.store.Put(ctx, path, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", path, err)
	}
	return nil
}

func (b *WebBackend) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := b.store.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if data == nil {
		return nil, &NotFoundError{Path: path}
	}
	return data, nil
}

func (b *WebBackend) Delete(ctx context.Context, path string) error {
	deleted, err := b.store.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	if !deleted {
		return &NotFoundError{Path: path}
	}
	return nil
}

// Exists 仅查询键值存储
func (b *WebBackend) Exists(ctx context.Context, path string) (bool, error) {
	data, err := b.store.Get(ctx, path)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

func (b *WebBackend) Platform() Platform { return PlatformWeb }

func (b *WebBackend) Health(ctx context.Context) error {
	return b.store.Health(ctx)
}

// MirrorHealth 检查镜像，镜像不可用不影响键值存储
func (b *WebBackend) MirrorHealth(ctx context.Context) (bool, error) {
	checker, ok := b.mirror.(mirror.HealthChecker)
	if !ok {
		return false, nil
	}
	if err := checker.Health(ctx); err != nil {
		return true, fmt.Errorf("%s: %w", b.mirror.Name(), err)
	}
	return true, nil
}

func (b *WebBackend) Name() string {
	if b.mirror != nil {
		return "web+" + b.mirror.Name()
	}
	return "web"
}
