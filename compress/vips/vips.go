package vips

import (
	"context"
	"fmt"
	"sync"

	"github.com/anoixa/facility-image-store/compress"
	"github.com/anoixa/facility-image-store/utils/codec"
	"github.com/davidbyttow/govips/v2/vips"
	"github.com/rs/zerolog/log"
)

var startOnce sync.Once

// Startup 初始化 libvips，多次调用只生效一次
func Startup(concurrency int) {
	startOnce.Do(func() {
		vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
			log.Debug().Str("domain", domain).Msg(msg)
		}, vips.LogLevelWarning)
		vips.Startup(&vips.Config{ConcurrencyLevel: concurrency})
	})
}

// Shutdown 释放 libvips
func Shutdown() {
	vips.Shutdown()
}

// Compressor 基于 libvips 的压缩引擎，额外支持 WebP 输出
type Compressor struct {
	gate *compress.Gate
}

// New 创建 vips 压缩器，调用前需 Startup
func New(gate *compress.Gate) *Compressor {
	if gate == nil {
		gate = compress.NewGate(1)
	}
	return &Compressor{gate: gate}
}

func (c *Compressor) Name() string { return "vips" }

func (c *Compressor) Compress(ctx context.Context, in codec.Blob, opts compress.Options) (*compress.Result, error) {
	if err := compress.CheckInput(in); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults(compress.DefaultOptions())

	release, err := c.gate.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	img, err := vips.NewImageFromBuffer(in.Data)
	if err != nil {
		return nil, &compress.DecodeError{Err: err}
	}
	defer img.Close()

	srcW, srcH := img.Width(), img.Height()
	w, h := compress.TargetSize(srcW, srcH, opts.MaxWidth, opts.MaxHeight)
	if w != srcW || h != srcH {
		hscale := float64(w) / float64(srcW)
		vscale := float64(h) / float64(srcH)
		if err := img.ResizeWithVScale(hscale, vscale, vips.KernelLanczos3); err != nil {
			return nil, &compress.DecodeError{Err: fmt.Errorf("resize: %w", err)}
		}
	}

	quality := int(opts.Quality*100 + 0.5)
	var data []byte
	switch opts.OutputFormat {
	case "image/jpeg":
		params := vips.NewJpegExportParams()
		params.Quality = quality
		params.StripMetadata = true
		data, _, err = img.ExportJpeg(params)
	case "image/png":
		data, _, err = img.ExportPng(vips.NewPngExportParams())
	case "image/webp":
		data, _, err = img.ExportWebp(&vips.WebpExportParams{Quality: quality, StripMetadata: true})
	default:
		err = fmt.Errorf("%w: %s", compress.ErrUnsupportedFormat, opts.OutputFormat)
	}
	if err != nil {
		return nil, &compress.EncodeError{Format: opts.OutputFormat, Err: err}
	}
	if len(data) == 0 {
		return nil, &compress.EncodeError{Format: opts.OutputFormat}
	}

	return &compress.Result{Data: data, ContentType: opts.OutputFormat, Width: img.Width(), Height: img.Height()}, nil
}
