package building

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type persisted struct {
	Building
	SelectedAt int64 `json:"selected_at"`
}

// Selection 持久化到 JSON 文件的当前楼宇
type Selection struct {
	path string
	mu   sync.Mutex
}

// NewSelection 创建选择存储
func NewSelection(path string) *Selection {
	return &Selection{path: path}
}

// Get 读取当前选择；文件损坏时删除并视为未选择
func (s *Selection) Get() (Building, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Building{}, false, nil
		}
		return Building{}, false, fmt.Errorf("failed to read building selection: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil || strings.TrimSpace(p.ID) == "" {
		log.Warn().Str("file", s.path).Msg("Discarding corrupt building selection")
		_ = os.Remove(s.path)
		return Building{}, false, nil
	}
	return p.Building, true, nil
}

// Set 保存选择
func (s *Selection) Set(b Building) error {
	b.ID = strings.TrimSpace(b.ID)
	if b.ID == "" {
		return fmt.Errorf("building id is required")
	}

	data, err := json.Marshal(persisted{Building: b, SelectedAt: time.Now().UnixMilli()})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create selection directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write building selection: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write building selection: %w", err)
	}
	return nil
}

// Clear 清除选择
func (s *Selection) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear building selection: %w", err)
	}
	return nil
}

// Attach 有选择时把它放入 ctx
func (s *Selection) Attach(ctx context.Context) context.Context {
	b, ok, err := s.Get()
	if err != nil {
		log.Warn().Err(err).Msg("Building selection unavailable")
		return ctx
	}
	if !ok {
		return ctx
	}
	return WithBuilding(ctx, b)
}
