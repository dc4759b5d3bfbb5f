// Package bloburl 为 web 平台的读取结果签发短期 blob: URL。
package bloburl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anoixa/facility-image-store/cache"
	"github.com/google/uuid"
)

// DefaultTTL 未撤销的 URL 在此时长后失效
const DefaultTTL = 10 * time.Minute

// ErrUnknownBlobURL URL 不存在、已过期或已撤销
var ErrUnknownBlobURL = errors.New("unknown or expired blob url")

type entry struct {
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
}

// Registry blob URL 登记表，载荷保存在缓存中
type Registry struct {
	cache   cache.Provider
	baseURL string
	ttl     time.Duration
}

// NewRegistry baseURL 为对外地址，如 http://localhost:8080
func NewRegistry(c cache.Provider, baseURL string, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		cache:   c,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
	}
}

// Issue 保存载荷并返回 blob:<base>/blob/<uuid>
func (r *Registry) Issue(ctx context.Context, data []byte, contentType string) (string, error) {
	id := uuid.NewString()
	if err := r.cache.Set(ctx, cache.BlobURL.Build(id), entry{Data: data, ContentType: contentType}, r.ttl); err != nil {
		return "", fmt.Errorf("failed to issue blob url: %w", err)
	}
	return r.URL(id), nil
}

// URL 由 id 拼出完整 blob URL
func (r *Registry) URL(id string) string {
	return "blob:" + r.baseURL + "/blob/" + id
}

// Resolve 接受完整 URL 或单独的 id
func (r *Registry) Resolve(ctx context.Context, urlOrID string) ([]byte, string, error) {
	id, err := ParseID(urlOrID)
	if err != nil {
		return nil, "", err
	}

	var e entry
	if err := r.cache.Get(ctx, cache.BlobURL.Build(id), &e); err != nil {
		if cache.IsCacheMiss(err) {
			return nil, "", ErrUnknownBlobURL
		}
		return nil, "", err
	}
	return e.Data, e.ContentType, nil
}

// Revoke 释放 URL，重复撤销不报错
func (r *Registry) Revoke(ctx context.Context, urlOrID string) error {
	id, err := ParseID(urlOrID)
	if err != nil {
		return err
	}
	return r.cache.Delete(ctx, cache.BlobURL.Build(id))
}

// TTL 返回有效期
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// ParseID 从 blob URL 中取出 id
func ParseID(urlOrID string) (string, error) {
	id := urlOrID
	if i := strings.LastIndex(urlOrID, "/blob/"); i >= 0 {
		id = urlOrID[i+len("/blob/"):]
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrUnknownBlobURL
	}
	return parsed.String(), nil
}
