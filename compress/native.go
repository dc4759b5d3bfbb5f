package compress

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/anoixa/facility-image-store/utils/codec"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Native 纯 Go 实现，支持 JPEG/PNG 输出
type Native struct {
	gate *Gate
}

// NewNative 创建纯 Go 压缩器
func NewNative(gate *Gate) *Native {
	if gate == nil {
		gate = NewGate(1)
	}
	return &Native{gate: gate}
}

func (n *Native) Name() string { return "native" }

func (n *Native) Compress(ctx context.Context, in codec.Blob, opts Options) (*Result, error) {
	if err := CheckInput(in); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults(DefaultOptions())

	release, err := n.gate.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	src, _, err := image.Decode(bytes.NewReader(in.Data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	bounds := src.Bounds()
	w, h := TargetSize(bounds.Dx(), bounds.Dy(), opts.MaxWidth, opts.MaxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if opts.OutputFormat == "image/jpeg" {
		// JPEG 无透明通道，先铺白底
		draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	}
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	switch opts.OutputFormat {
	case "image/jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(opts.Quality)})
	case "image/png":
		err = png.Encode(&buf, dst)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, opts.OutputFormat)
	}
	if err != nil {
		return nil, &EncodeError{Format: opts.OutputFormat, Err: err}
	}
	if buf.Len() == 0 {
		return nil, &EncodeError{Format: opts.OutputFormat}
	}

	log.Debug().
		Int("src_width", bounds.Dx()).Int("src_height", bounds.Dy()).
		Int("width", w).Int("height", h).
		Int("bytes_in", len(in.Data)).Int("bytes_out", buf.Len()).
		Msg("Image compressed")

	return &Result{Data: buf.Bytes(), ContentType: opts.OutputFormat, Width: w, Height: h}, nil
}
