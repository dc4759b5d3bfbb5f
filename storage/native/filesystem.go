package native

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anoixa/facility-image-store/utils/codec"
)

// ErrFileNotFound 路径不存在
var ErrFileNotFound = errors.New("file does not exist")

// WriteFileOptions 写文件参数，Data 为 base64 文本
type WriteFileOptions struct {
	Path      string
	Data      string
	Recursive bool
}

// FileInfo Stat 结果
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Filesystem 应用私有数据目录中的文件 API，载荷均为 base64 文本
type Filesystem struct {
	absBasePath string
}

// New 创建文件系统，dataDir 不存在时自动创建并检查可写
func New(dataDir string) (*Filesystem, error) {
	absPath, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", dataDir, err)
	}

	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory '%s': %w", absPath, err)
	}

	probe, err := os.CreateTemp(absPath, ".write_test_*")
	if err != nil {
		return nil, fmt.Errorf("data directory '%s' is not writable: %w", absPath, err)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	return &Filesystem{absBasePath: absPath + string(os.PathSeparator)}, nil
}

// resolve 校验相对路径并返回绝对路径
func (f *Filesystem) resolve(path string) (string, error) {
	if !IsValidStoragePath(path) {
		return "", fmt.Errorf("invalid storage path: %s", path)
	}
	full := filepath.Join(f.absBasePath, filepath.FromSlash(path))
	if !strings.HasPrefix(full, f.absBasePath) {
		return "", fmt.Errorf("invalid file path, potential directory traversal: %s", path)
	}
	return full, nil
}

// WriteFile 覆盖写入，Recursive 时创建中间目录
func (f *Filesystem) WriteFile(ctx context.Context, opts WriteFileOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := f.resolve(opts.Path)
	if err != nil {
		return err
	}

	blob, err := codec.Base64ToBlob(opts.Data, "")
	if err != nil {
		return fmt.Errorf("invalid payload for '%s': %w", opts.Path, err)
	}

	dir := filepath.Dir(full)
	if opts.Recursive {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for '%s': %w", opts.Path, err)
		}
	}

	// 先写临时文件再重命名，读者不会看到半个文件
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for '%s': %w", opts.Path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(blob.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write '%s': %w", opts.Path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close '%s': %w", opts.Path, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move '%s' into place: %w", opts.Path, err)
	}
	return nil
}

// ReadFile 返回文件内容的 base64 文本
func (f *Filesystem) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := f.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("failed to read '%s': %w", path, err)
	}
	return codec.BlobToBase64(data), nil
}

// DeleteFile 删除文件，不存在时返回 ErrFileNotFound
func (f *Filesystem) DeleteFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := f.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("failed to delete '%s': %w", path, err)
	}
	return nil
}

// Stat 获取文件信息
func (f *Filesystem) Stat(ctx context.Context, path string) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := f.resolve(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	return &FileInfo{Path: path, Size: info.Size(), ModTime: info.ModTime(), IsDir: info.IsDir()}, nil
}

// Health 检查数据目录可读
func (f *Filesystem) Health(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.ReadDir(f.absBasePath)
	return err
}

// BasePath 返回数据目录绝对路径
func (f *Filesystem) BasePath() string {
	return f.absBasePath
}

// IsValidStoragePath 校验存储路径是否合法
func IsValidStoragePath(path string) bool {
	if path == "" {
		return false
	}

	// 不允许绝对路径
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return false
	}

	// 防止目录遍历
	if strings.Contains(path, "..") {
		return false
	}

	// 只允许安全字符
	for _, r := range path {
		if (r < 'a' || r > 'z') &&
			(r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') &&
			r != '-' && r != '_' && r != '.' && r != '/' {
			return false
		}
	}

	return true
}
