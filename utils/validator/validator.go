package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anoixa/facility-image-store/utils/format"
)

// DefaultMaxFileSize 单张图片上限 10MB
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// 错误码
const (
	CodeNotImage        = "not_image"
	CodeTooLarge        = "too_large"
	CodeUnsupportedType = "unsupported_type"
	CodeInvalidCategory = "invalid_category"
)

// allowedImageMimeTypes Allowed image types
var allowedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

var categoryPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidationError 输入校验失败，发生在任何 I/O 之前
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateImageFile 依次检查声明类型前缀、大小和允许的子类型
func ValidateImageFile(contentType string, size, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	contentType = normalize(contentType)

	if !strings.HasPrefix(contentType, "image/") {
		return &ValidationError{Code: CodeNotImage, Message: "file must be an image"}
	}
	if size > maxSize {
		return &ValidationError{
			Code:    CodeTooLarge,
			Message: fmt.Sprintf("image exceeds maximum size of %s", format.HumanReadableSize(maxSize)),
		}
	}
	if !allowedImageMimeTypes[contentType] {
		return &ValidationError{
			Code:    CodeUnsupportedType,
			Message: fmt.Sprintf("unsupported image type %q, allowed: JPEG, PNG, WebP", contentType),
		}
	}
	return nil
}

// ValidateCategory 分类作为目录名使用，空值表示默认分类
func ValidateCategory(category string) error {
	if category == "" || categoryPattern.MatchString(category) {
		return nil
	}
	return &ValidationError{Code: CodeInvalidCategory, Message: "category may only contain letters, digits, '-' and '_'"}
}

func normalize(contentType string) string {
	contentType, _, _ = strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(contentType))
}
