package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/anoixa/facility-image-store/storage/native"
	"github.com/rs/zerolog/log"
)

// handleSlot 单槽目录缓存，权限失效时清空
type handleSlot struct {
	mu  sync.Mutex
	dir string
}

func (s *handleSlot) get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir, s.dir != ""
}

func (s *handleSlot) set(dir string) {
	s.mu.Lock()
	s.dir = dir
	s.mu.Unlock()
}

func (s *handleSlot) clear() {
	s.mu.Lock()
	s.dir = ""
	s.mu.Unlock()
}

// Folder 把图片镜像到用户选择的本地目录
type Folder struct {
	picker Picker
	slot   handleSlot
	pickMu sync.Mutex
}

// NewFolder 创建目录镜像，首次写入时才询问目录
func NewFolder(picker Picker) *Folder {
	return &Folder{picker: picker}
}

func (f *Folder) Name() string {
	if dir, ok := f.slot.get(); ok {
		return "folder:" + dir
	}
	return "folder"
}

// Invalidate 丢弃已授权的目录，下次写入重新询问
func (f *Folder) Invalidate() {
	f.slot.clear()
}

// Health 已授权的目录必须仍然存在；尚未选择目录时视为健康
func (f *Folder) Health(ctx context.Context) error {
	dir, ok := f.slot.get()
	if !ok {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("mirror folder %s is not a directory", dir)
	}
	return nil
}

// folder 返回已缓存的目录，没有时询问一次
func (f *Folder) folder(ctx context.Context) (string, error) {
	if dir, ok := f.slot.get(); ok {
		return dir, nil
	}

	f.pickMu.Lock()
	defer f.pickMu.Unlock()
	if dir, ok := f.slot.get(); ok {
		return dir, nil
	}

	dir, err := f.picker.PickFolder(ctx)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	f.slot.set(abs)
	log.Info().Str("folder", abs).Msg("Mirror folder granted")
	return abs, nil
}

// Write 创建中间目录并完整覆盖目标文件
func (f *Folder) Write(ctx context.Context, path string, data []byte) error {
	if !native.IsValidStoragePath(path) {
		return fmt.Errorf("invalid storage path: %s", path)
	}
	dir, err := f.folder(ctx)
	if err != nil {
		return err
	}

	full := filepath.Join(dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return f.fail(path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return f.fail(path, err)
	}
	return nil
}

func (f *Folder) fail(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		log.Warn().Str("path", path).Msg("Mirror folder permission revoked, invalidating")
		f.Invalidate()
	}
	return fmt.Errorf("failed to mirror '%s': %w", path, err)
}
