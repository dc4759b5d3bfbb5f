package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/facility-image-store/cache/memory"
	"github.com/anoixa/facility-image-store/cache/redis"
	"github.com/rs/zerolog/log"
)

// Config 缓存配置
type Config struct {
	Type          string
	MaxSizeMB     int64
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewProvider 根据类型创建缓存提供者
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	var provider Provider
	switch cfg.Type {
	case "", "memory":
		maxCost := cfg.MaxSizeMB << 20
		if maxCost <= 0 {
			maxCost = 256 << 20
		}
		mem, err := memory.NewMemory(memory.Config{
			NumCounters: 100000,
			MaxCost:     maxCost,
			BufferItems: 64,
			Metrics:     false,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		provider = mem
	case "redis":
		r, err := redis.NewRedis(ctx, redis.Config{
			Address:      cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		provider = r
	default:
		return nil, fmt.Errorf("unsupported cache provider type: %s", cfg.Type)
	}

	log.Info().Str("cache", provider.Name()).Msg("Cache provider initialized")
	return provider, nil
}
