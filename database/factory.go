package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/anoixa/facility-image-store/database/models"
	"github.com/rs/zerolog/log"
)

// Factory 延迟打开数据库，首次打开时建表
type Factory struct {
	cfg     Config
	connect func(Config) (Provider, error)

	mu       sync.Mutex
	provider Provider
}

// NewFactory 创建数据库工厂，此时不建立连接
func NewFactory(cfg Config) *Factory {
	return &Factory{
		cfg: cfg,
		connect: func(c Config) (Provider, error) {
			return NewGormProvider(c)
		},
	}
}

// Open 返回已打开的连接；首次调用时连接并迁移，失败不会被缓存
func (f *Factory) Open(ctx context.Context) (Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.provider != nil {
		return f.provider, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	provider, err := f.connect(f.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database provider: %w", err)
	}

	if err := provider.AutoMigrate(&models.ImageBlob{}); err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("failed to auto migrate database: %w", err)
	}
	log.Info().Str("db", provider.Name()).Msg("Image blob store ready")

	f.provider = provider
	return provider, nil
}

// Opened 报告是否已经建立连接
func (f *Factory) Opened() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.provider != nil
}

// Close 关闭数据库连接
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.provider == nil {
		return nil
	}
	err := f.provider.Close()
	f.provider = nil
	return err
}
