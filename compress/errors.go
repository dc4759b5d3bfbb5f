package compress

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat 引擎无法输出所请求的格式
var ErrUnsupportedFormat = errors.New("unsupported output format")

// InvalidInputError 声明类型不是图片，解码前即拒绝
type InvalidInputError struct {
	ContentType string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("input is not an image: %q", e.ContentType)
}

// DecodeError 无法解码为图片
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError 重新编码失败或输出为空
type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to encode %s: empty output", e.Format)
	}
	return fmt.Sprintf("failed to encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
