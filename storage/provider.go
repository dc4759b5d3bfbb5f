package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/facility-image-store/storage/mirror"
)

// ErrNotFound 路径下没有数据
var ErrNotFound = errors.New("image not found")

// ErrUserCancelled 用户取消了镜像目录授权
var ErrUserCancelled = mirror.ErrUserCancelled

// NotFoundError 携带路径的 ErrNotFound
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("image not found: %s", e.Path)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// MirrorHealthChecker 带镜像的后端实现它；checked 为 false 表示没有可检查的镜像
type MirrorHealthChecker interface {
	MirrorHealth(ctx context.Context) (checked bool, err error)
}

// Backend 存储后端接口，启动时选定一个实现并注入到上层
type Backend interface {
	// Write 覆盖写入
	Write(ctx context.Context, path string, data []byte) error

	// Read 读取数据，不存在时返回 *NotFoundError
	Read(ctx context.Context, path string) ([]byte, error)

	// Delete 删除数据，不存在时返回 *NotFoundError
	Delete(ctx context.Context, path string) error

	// Exists 检查数据是否存在
	Exists(ctx context.Context, path string) (bool, error)

	// Platform 后端所属平台
	Platform() Platform

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
