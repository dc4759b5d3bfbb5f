// Package building 以显式 context 传递当前选中的楼宇。
package building

import (
	"context"
	"errors"
	"strings"
)

// ErrNoBuildingSelected 需要楼宇上下文的操作在未选择时失败
var ErrNoBuildingSelected = errors.New("no building selected")

// Building 选中的楼宇
type Building struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type contextKey struct{}

// WithBuilding 把楼宇放入 ctx，ID 为空时原样返回
func WithBuilding(ctx context.Context, b Building) context.Context {
	b.ID = strings.TrimSpace(b.ID)
	if b.ID == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, b)
}

// FromContext 读取 ctx 中的楼宇
func FromContext(ctx context.Context) (Building, bool) {
	b, ok := ctx.Value(contextKey{}).(Building)
	return b, ok
}

// RequireID 返回楼宇 ID，没有时返回 ErrNoBuildingSelected
func RequireID(ctx context.Context) (string, error) {
	b, ok := FromContext(ctx)
	if !ok {
		return "", ErrNoBuildingSelected
	}
	return b.ID, nil
}
