package app

import (
	"context"
	"fmt"

	"github.com/anoixa/facility-image-store/cache"
	"github.com/anoixa/facility-image-store/compress"
	"github.com/anoixa/facility-image-store/compress/vips"
	"github.com/anoixa/facility-image-store/config"
	"github.com/anoixa/facility-image-store/database"
	"github.com/anoixa/facility-image-store/database/repo/images"
	"github.com/anoixa/facility-image-store/internal/auth"
	"github.com/anoixa/facility-image-store/internal/bloburl"
	"github.com/anoixa/facility-image-store/internal/building"
	"github.com/anoixa/facility-image-store/internal/imagestore"
	"github.com/anoixa/facility-image-store/storage"
	"github.com/anoixa/facility-image-store/storage/mirror"
	"github.com/anoixa/facility-image-store/storage/native"
	"github.com/rs/zerolog/log"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config *config.Config
	picker mirror.Picker

	platform        storage.Platform
	databaseFactory *database.Factory
	backend         storage.Backend
	cacheProvider   cache.Provider
	registry        *bloburl.Registry
	selection       *building.Selection
	jwtService      *auth.JWTService
	service         *imagestore.Service
	vipsStarted     bool
}

// NewContainer 创建新的依赖注入容器，picker 用于文件夹镜像的交互式选择，可为 nil
func NewContainer(cfg *config.Config, picker mirror.Picker) *Container {
	return &Container{
		config: cfg,
		picker: picker,
	}
}

// Init 按顺序初始化各组件
func (c *Container) Init(ctx context.Context) error {
	log.Debug().Msg("Initializing DI container...")

	platform, err := storage.Detect(c.config.Platform)
	if err != nil {
		return err
	}
	c.platform = platform

	if err := c.initBackend(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	if err := c.initCache(ctx); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	jwtService, err := auth.NewJWTService(c.config.JWTSecret, c.config.JWTTokenTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}
	c.jwtService = jwtService

	c.registry = bloburl.NewRegistry(c.cacheProvider, c.config.BaseURL(), c.config.BlobURLTTL)
	c.selection = building.NewSelection(c.config.BuildingStateFile)

	compressor := c.newCompressor()
	profiles, err := compress.NewProfiles(compress.Options{
		MaxWidth:     c.config.CompressMaxWidth,
		MaxHeight:    c.config.CompressMaxHeight,
		Quality:      c.config.CompressQuality,
		OutputFormat: c.config.CompressOutputFormat,
	}, c.config.CompressProfiles)
	if err != nil {
		return err
	}

	c.service = imagestore.NewService(c.backend, compressor, c.registry, imagestore.Options{
		BasePath:    c.config.BasePath,
		MaxFileSize: c.config.MaxUploadBytes(),
		Profiles:    profiles,
	})

	log.Debug().Msg("DI container initialized successfully")
	return nil
}

// initBackend 只构造所选平台需要的部分
func (c *Container) initBackend() error {
	deps := storage.Dependencies{}

	switch c.platform {
	case storage.PlatformNative:
		fs, err := native.New(c.config.NativeDataDir)
		if err != nil {
			return err
		}
		deps.Native = fs
	case storage.PlatformWeb:
		c.databaseFactory = database.NewFactory(DatabaseConfig(c.config))
		deps.Store = images.NewBlobRepository(c.databaseFactory)

		m, err := mirror.New(mirror.Config{
			Type:                 c.config.MirrorType,
			Folder:               c.config.MirrorFolder,
			WebDAVURL:            c.config.WebDAVURL,
			WebDAVUsername:       c.config.WebDAVUsername,
			WebDAVPassword:       c.config.WebDAVPassword,
			WebDAVRootPath:       c.config.WebDAVRootPath,
			WebDAVTimeout:        c.config.WebDAVTimeout,
			MinioEndpoint:        c.config.MinioEndpoint,
			MinioAccessKeyID:     c.config.MinioAccessKeyID,
			MinioSecretAccessKey: c.config.MinioSecretAccessKey,
			MinioBucketName:      c.config.MinioBucketName,
			MinioUseSSL:          c.config.MinioUseSSL,
		}, c.picker)
		if err != nil {
			return fmt.Errorf("failed to initialize mirror: %w", err)
		}
		deps.Mirror = m
	}

	backend, err := storage.NewBackend(c.platform, deps)
	if err != nil {
		return err
	}
	c.backend = backend
	return nil
}

// DatabaseConfig web 平台键值存储的连接参数
func DatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Type:            cfg.DBType,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Username:        cfg.DBUsername,
		Password:        cfg.DBPassword,
		Database:        cfg.DBName,
		FilePath:        cfg.DBFilePath,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}
}

func (c *Container) initCache(ctx context.Context) error {
	provider, err := cache.NewProvider(ctx, cache.Config{
		Type:          c.config.CacheType,
		MaxSizeMB:     c.config.CacheMaxSizeMB,
		RedisAddr:     c.config.CacheRedisAddr,
		RedisPassword: c.config.CacheRedisPassword,
		RedisDB:       c.config.CacheRedisDB,
	})
	if err != nil {
		return err
	}
	c.cacheProvider = provider
	return nil
}

func (c *Container) newCompressor() compress.Compressor {
	gate := compress.NewGate(c.config.CompressConcurrency)
	if c.config.CompressEngine == "vips" {
		vips.Startup(c.config.CompressConcurrency)
		c.vipsStarted = true
		return vips.New(gate)
	}
	return compress.NewNative(gate)
}

// Service 图片存储门面
func (c *Container) Service() *imagestore.Service {
	return c.service
}

// Registry blob URL 登记表
func (c *Container) Registry() *bloburl.Registry {
	return c.registry
}

// Selection 持久化的楼宇选择
func (c *Container) Selection() *building.Selection {
	return c.selection
}

// JWTService 认证服务
func (c *Container) JWTService() *auth.JWTService {
	return c.jwtService
}

// Platform 启动时选定的平台
func (c *Container) Platform() storage.Platform {
	return c.platform
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// Close 关闭所有服务
func (c *Container) Close() error {
	log.Debug().Msg("Closing DI container...")

	if c.cacheProvider != nil {
		if err := c.cacheProvider.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing cache provider")
		}
	}
	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing database factory")
		}
	}
	if c.vipsStarted {
		vips.Shutdown()
	}

	log.Debug().Msg("DI container closed")
	return nil
}
