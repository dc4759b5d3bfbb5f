package storage

import (
	"context"
	"errors"

	"github.com/anoixa/facility-image-store/storage/native"
	"github.com/anoixa/facility-image-store/utils/codec"
)

// NativeBackend 设备文件系统后端，数据以 base64 形式经过文件 API
type NativeBackend struct {
	fs *native.Filesystem
}

// NewNativeBackend 创建原生后端
func NewNativeBackend(fs *native.Filesystem) *NativeBackend {
	return &NativeBackend{fs: fs}
}

func (b *NativeBackend) Write(ctx context.Context, path string, data []byte) error {
	return b.fs.WriteFile(ctx, native.WriteFileOptions{
		Path:      path,
		Data:      codec.BlobToBase64(data),
		Recursive: true,
	})
}

func (b *NativeBackend) Read(ctx context.Context, path string) ([]byte, error) {
	text, err := b.ReadBase64(ctx, path)
	if err != nil {
		return nil, err
	}
	blob, err := codec.Base64ToBlob(text, "")
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

// ReadBase64 直接返回文件 API 的 base64 文本，用于拼接 data URI
func (b *NativeBackend) ReadBase64(ctx context.Context, path string) (string, error) {
	text, err := b.fs.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, native.ErrFileNotFound) {
			return "", &NotFoundError{Path: path}
		}
		return "", err
	}
	return text, nil
}

// Delete 路径不存在时返回 *NotFoundError
func (b *NativeBackend) Delete(ctx context.Context, path string) error {
	err := b.fs.DeleteFile(ctx, path)
	if errors.Is(err, native.ErrFileNotFound) {
		return &NotFoundError{Path: path}
	}
	return err
}

// Exists stat 失败一律视为不存在
func (b *NativeBackend) Exists(ctx context.Context, path string) (bool, error) {
	if _, err := b.fs.Stat(ctx, path); err != nil {
		return false, nil
	}
	return true, nil
}

func (b *NativeBackend) Platform() Platform { return PlatformNative }

func (b *NativeBackend) Health(ctx context.Context) error {
	return b.fs.Health(ctx)
}

func (b *NativeBackend) Name() string {
	return "native:" + b.fs.BasePath()
}
