package compress

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/anoixa/facility-image-store/utils/codec"
	"golang.org/x/sync/semaphore"
)

// Compressor 把图片缩放到最大边界内并按质量重新编码
type Compressor interface {
	Compress(ctx context.Context, in codec.Blob, opts Options) (*Result, error)
	Name() string
}

// Result 压缩结果
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Blob 转换为 codec.Blob
func (r *Result) Blob() codec.Blob {
	return codec.Blob{Data: r.Data, ContentType: r.ContentType}
}

// Gate 限制同时解码的图片数量
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate 创建并发闸门，n<=0 时取 1
func NewGate(n int) *Gate {
	if n <= 0 {
		n = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(n))}
}

// Acquire 获取一个槽位，返回释放函数
func (g *Gate) Acquire(ctx context.Context) (func(), error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire compression slot: %w", err)
	}
	return func() { g.sem.Release(1) }, nil
}

// TargetSize 计算目标尺寸：已在边界内则不变，否则按 min 比例缩放并四舍五入
func TargetSize(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := int(math.Round(float64(w) * ratio))
	nh := int(math.Round(float64(h) * ratio))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// CheckInput 各引擎共用的输入检查：声明类型必须以 image/ 开头（不区分大小写），数据不能为空
func CheckInput(in codec.Blob) error {
	if !strings.HasPrefix(strings.ToLower(in.ContentType), "image/") {
		return &InvalidInputError{ContentType: in.ContentType}
	}
	if len(in.Data) == 0 {
		return &DecodeError{Err: fmt.Errorf("empty input")}
	}
	return nil
}

// jpegQuality 把 0-1 的质量映射为 1-100
func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
