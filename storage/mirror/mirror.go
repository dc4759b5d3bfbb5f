package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUserCancelled 用户拒绝或取消了文件夹选择
var ErrUserCancelled = errors.New("folder selection cancelled by user")

// Mirror web 后端写入的尽力而为副本，不作为数据来源
type Mirror interface {
	Write(ctx context.Context, path string, data []byte) error
	Name() string
}

// HealthChecker 可选接口，支持健康检查的镜像实现它
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Config 镜像配置
type Config struct {
	Type   string
	Folder string

	WebDAVURL      string
	WebDAVUsername string
	WebDAVPassword string
	WebDAVRootPath string
	WebDAVTimeout  time.Duration

	MinioEndpoint        string
	MinioAccessKeyID     string
	MinioSecretAccessKey string
	MinioBucketName      string
	MinioUseSSL          bool
}

// New 根据类型创建镜像，none 返回 nil
func New(cfg Config, picker Picker) (Mirror, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "folder":
		if cfg.Folder != "" {
			picker = StaticPicker{Dir: cfg.Folder}
		}
		if picker == nil {
			return nil, fmt.Errorf("folder mirror requires mirror_folder when no interactive picker is available")
		}
		return NewFolder(picker), nil
	case "webdav":
		m, err := NewWebDAV(WebDAVConfig{
			URL:      cfg.WebDAVURL,
			Username: cfg.WebDAVUsername,
			Password: cfg.WebDAVPassword,
			RootPath: cfg.WebDAVRootPath,
			Timeout:  cfg.WebDAVTimeout,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case "minio":
		m, err := NewMinio(MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKeyID,
			SecretAccessKey: cfg.MinioSecretAccessKey,
			BucketName:      cfg.MinioBucketName,
			UseSSL:          cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown mirror type: %s", cfg.Type)
	}
}
