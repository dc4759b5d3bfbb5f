package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/anoixa/facility-image-store/utils"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var (
	globalConfig *Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port" validate:"min=0,max=65535"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`

	// 平台与存储
	Platform      string `mapstructure:"platform" validate:"oneof=auto native web"`
	NativeDataDir string `mapstructure:"native_data_dir" validate:"required"`
	BasePath      string `mapstructure:"base_path" validate:"required"`

	// 上传配置
	UploadMaxSizeMB       int `mapstructure:"upload_max_size_mb" validate:"min=1"`
	UploadMaxBatchTotalMB int `mapstructure:"upload_max_batch_total_mb" validate:"min=1"`

	// 压缩配置
	CompressEngine       string                            `mapstructure:"compress_engine" validate:"oneof=native vips"`
	CompressMaxWidth     int                               `mapstructure:"compress_max_width" validate:"min=1"`
	CompressMaxHeight    int                               `mapstructure:"compress_max_height" validate:"min=1"`
	CompressQuality      float64                           `mapstructure:"compress_quality" validate:"gt=0,lte=1"`
	CompressOutputFormat string                            `mapstructure:"compress_output_format" validate:"oneof=image/jpeg image/png image/webp"`
	CompressConcurrency  int                               `mapstructure:"compress_concurrency"`
	CompressProfiles     map[string]map[string]interface{} `mapstructure:"compress_profiles"`

	// 数据库配置（web 平台的键值存储）
	DBType            string `mapstructure:"db_type" validate:"oneof=sqlite sqlite3 postgres postgresql"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// 镜像配置
	MirrorType   string `mapstructure:"mirror_type" validate:"oneof=none folder webdav minio"`
	MirrorFolder string `mapstructure:"mirror_folder"`

	WebDAVURL      string        `mapstructure:"webdav_url" validate:"required_if=MirrorType webdav"`
	WebDAVUsername string        `mapstructure:"webdav_username"`
	WebDAVPassword string        `mapstructure:"webdav_password"`
	WebDAVRootPath string        `mapstructure:"webdav_root_path"`
	WebDAVTimeout  time.Duration `mapstructure:"webdav_timeout"`

	MinioEndpoint        string `mapstructure:"minio_endpoint" validate:"required_if=MirrorType minio"`
	MinioAccessKeyID     string `mapstructure:"minio_access_key_id"`
	MinioSecretAccessKey string `mapstructure:"minio_secret_access_key"`
	MinioBucketName      string `mapstructure:"minio_bucket_name"`
	MinioUseSSL          bool   `mapstructure:"minio_use_ssl"`

	// 缓存提供者配置（blob URL）
	CacheType          string        `mapstructure:"cache_type" validate:"oneof=memory redis"`
	CacheMaxSizeMB     int64         `mapstructure:"cache_max_size_mb"`
	CacheRedisAddr     string        `mapstructure:"cache_redis_addr"`
	CacheRedisPassword string        `mapstructure:"cache_redis_password"`
	CacheRedisDB       int           `mapstructure:"cache_redis_db"`
	BlobURLTTL         time.Duration `mapstructure:"blob_url_ttl"`

	// 认证与限流
	JWTSecret           string        `mapstructure:"jwt_secret"`
	JWTTokenTTL         time.Duration `mapstructure:"jwt_token_ttl"`
	RateLimitApiRPS     float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst   int           `mapstructure:"rate_limit_api_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time"`

	// 其他
	BuildingStateFile string `mapstructure:"building_state_file"`
	LogLevel          string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	LogPretty         bool   `mapstructure:"log_pretty"`
}

// InitConfig Initialize configuration
func InitConfig(configFile string) {
	once.Do(func() {
		cfg, err := Load(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
		globalConfig = cfg
	})
}

// Get 返回全局配置，未初始化时按默认值加载
func Get() *Config {
	if globalConfig == nil {
		InitConfig("")
	}
	return globalConfig
}

// Load 读取配置文件与环境变量，configFile 为空时尝试 .env
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			fmt.Fprintln(os.Stderr, "Info: .env file not found, using defaults and environment variables")
		}
	}

	v.AutomaticEnv()
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// env 中的逗号分隔列表
	if len(cfg.CORSAllowedOrigins) == 1 && strings.Contains(cfg.CORSAllowedOrigins[0], ",") {
		cfg.CORSAllowedOrigins = splitList(cfg.CORSAllowedOrigins[0])
	}

	switch {
	case cfg.CompressConcurrency < 0:
		cfg.CompressConcurrency = runtime.GOMAXPROCS(0)
	case cfg.CompressConcurrency == 0:
		cfg.CompressConcurrency = getCpus()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	dataDir := utils.GetDataDir()

	v.SetDefault("server_host", "127.0.0.1")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_domain", "")
	v.SetDefault("server_read_timeout", "15s")
	v.SetDefault("server_write_timeout", "30s")
	v.SetDefault("server_idle_timeout", "120s")
	v.SetDefault("cors_allowed_origins", []string{"http://localhost:8100", "capacitor://localhost", "http://localhost"})

	v.SetDefault("platform", "auto")
	v.SetDefault("native_data_dir", filepath.Join(dataDir, "native"))
	v.SetDefault("base_path", "uploads/images")

	v.SetDefault("upload_max_size_mb", 10)
	v.SetDefault("upload_max_batch_total_mb", 100)

	v.SetDefault("compress_engine", "native")
	v.SetDefault("compress_max_width", 1920)
	v.SetDefault("compress_max_height", 1080)
	v.SetDefault("compress_quality", 0.8)
	v.SetDefault("compress_output_format", "image/jpeg")
	v.SetDefault("compress_concurrency", 0)

	v.SetDefault("db_type", "sqlite")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_username", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "image-store")
	v.SetDefault("db_file_path", filepath.Join(dataDir, "image_storage.db"))
	v.SetDefault("db_max_open_conns", 20)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", 3600)

	v.SetDefault("mirror_type", "none")
	v.SetDefault("mirror_folder", "")
	v.SetDefault("webdav_url", "")
	v.SetDefault("webdav_username", "")
	v.SetDefault("webdav_password", "")
	v.SetDefault("webdav_root_path", "")
	v.SetDefault("webdav_timeout", "30s")
	v.SetDefault("minio_endpoint", "")
	v.SetDefault("minio_access_key_id", "")
	v.SetDefault("minio_secret_access_key", "")
	v.SetDefault("minio_bucket_name", "facility-images")
	v.SetDefault("minio_use_ssl", false)

	v.SetDefault("cache_type", "memory")
	v.SetDefault("cache_max_size_mb", 256)
	v.SetDefault("cache_redis_addr", "localhost:6379")
	v.SetDefault("cache_redis_password", "")
	v.SetDefault("cache_redis_db", 0)
	v.SetDefault("blob_url_ttl", "10m")

	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_token_ttl", "24h")
	v.SetDefault("rate_limit_api_rps", 30.0)
	v.SetDefault("rate_limit_api_burst", 60)
	v.SetDefault("rate_limit_expire_time", "10m")

	v.SetDefault("building_state_file", filepath.Join(dataDir, "selected_building.json"))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", true)
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回基础 URL，用于生成 blob 链接
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return strings.TrimRight(c.ServerDomain, "/")
	}
	host := c.ServerHost
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// MaxUploadBytes 单文件大小上限（字节）
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.UploadMaxSizeMB) << 20
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getCpus 获取默认线程数量
func getCpus() int {
	n := runtime.GOMAXPROCS(0)
	if n < 2 {
		return 2
	}
	return n
}
