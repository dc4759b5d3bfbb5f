// Package imagestore 本地图片存储门面：保存、读取、删除和存在性检查。
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anoixa/facility-image-store/compress"
	"github.com/anoixa/facility-image-store/internal/building"
	"github.com/anoixa/facility-image-store/storage"
	"github.com/anoixa/facility-image-store/utils"
	"github.com/anoixa/facility-image-store/utils/codec"
	"github.com/anoixa/facility-image-store/utils/format"
	"github.com/anoixa/facility-image-store/utils/generator"
	"github.com/anoixa/facility-image-store/utils/validator"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBasePath 所有图片路径的根
const DefaultBasePath = "uploads/images"

// File 待保存的图片
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// BlobIssuer 为 web 平台的读取结果签发 blob URL
type BlobIssuer interface {
	Issue(ctx context.Context, data []byte, contentType string) (string, error)
}

// base64Reader 原生后端直接给出 base64 文本
type base64Reader interface {
	ReadBase64(ctx context.Context, path string) (string, error)
}

// Options 服务参数
type Options struct {
	BasePath    string
	MaxFileSize int64
	Profiles    *compress.Profiles
	Now         func() time.Time
}

// Service 本地图片存储
type Service struct {
	backend    storage.Backend
	compressor compress.Compressor
	blobs      BlobIssuer
	paths      *generator.PathGenerator
	profiles   *compress.Profiles
	maxSize    int64
	now        func() time.Time
}

// NewService 创建服务，backend 在启动时已经选定
func NewService(backend storage.Backend, compressor compress.Compressor, blobs BlobIssuer, opts Options) *Service {
	if opts.BasePath == "" {
		opts.BasePath = DefaultBasePath
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = validator.DefaultMaxFileSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		backend:    backend,
		compressor: compressor,
		blobs:      blobs,
		paths:      generator.NewPathGenerator(opts.BasePath),
		profiles:   opts.Profiles,
		maxSize:    opts.MaxFileSize,
		now:        opts.Now,
	}
}

// Platform 当前后端平台
func (s *Service) Platform() storage.Platform {
	return s.backend.Platform()
}

// Backend 返回注入的存储后端
func (s *Service) Backend() storage.Backend {
	return s.backend
}

// Save 校验、可选压缩后写入后端，返回相对路径
func (s *Service) Save(ctx context.Context, file File, category string, doCompress bool) (string, error) {
	if err := validator.ValidateImageFile(file.ContentType, int64(len(file.Data)), s.maxSize); err != nil {
		return "", err
	}
	if err := validator.ValidateCategory(category); err != nil {
		return "", err
	}
	if category == "" {
		category = generator.DefaultCategory
	}

	blob := codec.Blob{Data: file.Data, ContentType: file.ContentType}
	if doCompress && s.compressor != nil {
		res, err := s.compressor.Compress(ctx, blob, s.profiles.For(category))
		if err != nil {
			return "", err
		}
		s.logger(ctx).Debug().
			Str("engine", s.compressor.Name()).
			Int("before", len(file.Data)).
			Int("after", len(res.Data)).
			Int("width", res.Width).
			Int("height", res.Height).
			Msg("Image compressed")
		blob = res.Blob()
	}

	path := s.paths.GenerateImagePath(category, file.Name, s.now())
	if err := s.backend.Write(ctx, path, blob.Data); err != nil {
		return "", &StorageError{Op: "write", Path: path, Err: err}
	}

	s.logger(ctx).Info().
		Str("path", path).
		Str("backend", s.backend.Name()).
		Str("size", format.HumanReadableSize(blob.Size())).
		Msg("Image saved")
	return path, nil
}

// Load 读取图片并返回可显示的 URL：原生为 data URI，web 为 blob URL
func (s *Service) Load(ctx context.Context, path string) LoadResult {
	if path == "" {
		return LoadResult{Status: StatusNotFound}
	}

	if s.backend.Platform() == storage.PlatformNative {
		return s.loadNative(ctx, path)
	}
	return s.loadWeb(ctx, path)
}

func (s *Service) loadNative(ctx context.Context, path string) LoadResult {
	var (
		payload string
		err     error
	)
	if r, ok := s.backend.(base64Reader); ok {
		payload, err = r.ReadBase64(ctx, path)
	} else {
		var data []byte
		data, err = s.backend.Read(ctx, path)
		payload = codec.BlobToBase64(data)
	}
	if err != nil {
		return s.loadFailed(ctx, path, err)
	}
	return LoadResult{Status: StatusFound, URL: codec.DataURI(codec.MimeTypeFromPath(path), payload)}
}

func (s *Service) loadWeb(ctx context.Context, path string) LoadResult {
	data, err := s.backend.Read(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) && isRemoteURL(path) {
			return LoadResult{Status: StatusFound, URL: path}
		}
		return s.loadFailed(ctx, path, err)
	}

	url, err := s.blobs.Issue(ctx, data, detectContentType(data, path))
	if err != nil {
		return s.loadFailed(ctx, path, err)
	}
	return LoadResult{Status: StatusFound, URL: url}
}

func (s *Service) loadFailed(ctx context.Context, path string, err error) LoadResult {
	if errors.Is(err, storage.ErrNotFound) {
		s.logger(ctx).Debug().Str("path", utils.SanitizeLogField(path)).Msg("Image not found")
		return LoadResult{Status: StatusNotFound}
	}
	s.logger(ctx).Error().Err(err).Str("path", utils.SanitizeLogField(path)).Msg("Failed to load image")
	return LoadResult{Status: StatusReadError, Err: err}
}

// LoadURL 读取失败时返回空字符串
func (s *Service) LoadURL(ctx context.Context, path string) string {
	res := s.Load(ctx, path)
	if !res.Found() {
		return ""
	}
	return res.URL
}

// Delete 删除图片，错误只记录日志
func (s *Service) Delete(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.backend.Delete(ctx, path); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger(ctx).Debug().Str("path", utils.SanitizeLogField(path)).Msg("Image already absent")
			return
		}
		s.logger(ctx).Warn().Err(err).Str("path", utils.SanitizeLogField(path)).Msg("Failed to delete image")
		return
	}
	s.logger(ctx).Info().Str("path", path).Msg("Image deleted")
}

// Exists 检查图片是否存在，任何错误都视为不存在
func (s *Service) Exists(ctx context.Context, path string) bool {
	if path == "" {
		return false
	}
	ok, err := s.backend.Exists(ctx, path)
	if err != nil {
		s.logger(ctx).Debug().Err(err).Str("path", utils.SanitizeLogField(path)).Msg("Exists check failed")
		return false
	}
	return ok
}

// Health 检查后端
func (s *Service) Health(ctx context.Context) error {
	if err := s.backend.Health(ctx); err != nil {
		return fmt.Errorf("%s: %w", s.backend.Name(), err)
	}
	return nil
}

// MirrorHealth 检查后端镜像；checked 为 false 表示没有配置可检查的镜像
func (s *Service) MirrorHealth(ctx context.Context) (checked bool, err error) {
	checker, ok := s.backend.(storage.MirrorHealthChecker)
	if !ok {
		return false, nil
	}
	return checker.MirrorHealth(ctx)
}

// logger 带上当前楼宇
func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	l := log.Logger
	if b, ok := building.FromContext(ctx); ok {
		l = l.With().Str("building", b.ID).Logger()
	}
	return &l
}

func isRemoteURL(path string) bool {
	return strings.HasPrefix(path, "http") || strings.HasPrefix(path, "//")
}

// detectContentType 以内容嗅探为准，无法识别为图片时按扩展名推断
func detectContentType(data []byte, path string) string {
	mt := mimetype.Detect(data).String()
	if strings.HasPrefix(mt, "image/") {
		return mt
	}
	return codec.MimeTypeFromPath(path)
}
