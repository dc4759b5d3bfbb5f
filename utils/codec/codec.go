package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// DefaultMimeType 未知扩展名时使用的类型
const DefaultMimeType = "image/jpeg"

// DefaultExtension 原始文件名没有扩展名时使用
const DefaultExtension = "jpg"

var ErrInvalidDataURI = errors.New("invalid data uri")

// Blob 二进制数据及其类型标签
type Blob struct {
	Data        []byte
	ContentType string
}

// Size 返回字节数
func (b Blob) Size() int64 {
	return int64(len(b.Data))
}

var extToMime = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
}

// BlobToBase64 标准 base64，不带 data URI 前缀
func BlobToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Base64ToBlob 解码 base64 文本，若带有 data URI 头则先去掉第一个逗号之前的内容
func Base64ToBlob(text, mimeHint string) (Blob, error) {
	if i := strings.IndexByte(text, ','); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSpace(text)

	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		// 兼容缺少填充的输入
		raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(text, "="))
		if rawErr != nil {
			return Blob{}, fmt.Errorf("failed to decode base64: %w", err)
		}
		data = raw
	}

	if mimeHint == "" {
		mimeHint = DefaultMimeType
	}
	return Blob{Data: data, ContentType: mimeHint}, nil
}

// MimeTypeFromPath 根据扩展名推断类型，仅作为展示标签使用
func MimeTypeFromPath(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return DefaultMimeType
	}
	if mime, ok := extToMime[strings.ToLower(path[i+1:])]; ok {
		return mime
	}
	return DefaultMimeType
}

// DataURI 构造 data:<mime>;base64,<payload>
func DataURI(mime, payload string) string {
	return "data:" + mime + ";base64," + payload
}

// ParseDataURI 解析 base64 形式的 data URI
func ParseDataURI(uri string) (Blob, error) {
	if !strings.HasPrefix(uri, "data:") {
		return Blob{}, ErrInvalidDataURI
	}
	header, _, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return Blob{}, ErrInvalidDataURI
	}
	return Base64ToBlob(uri, strings.TrimSuffix(header, ";base64"))
}

// ExtensionFromName 取原始文件名的扩展名，缺失或含非法字符时返回 jpg
func ExtensionFromName(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return DefaultExtension
	}
	ext := name[i+1:]
	for _, r := range ext {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return DefaultExtension
		}
	}
	return ext
}
