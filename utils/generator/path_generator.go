package generator

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/anoixa/facility-image-store/utils/codec"
	"github.com/google/uuid"
)

// DefaultCategory 未指定分类时的目录
const DefaultCategory = "general"

const suffixLength = 12

// PathGenerator 图片存储路径生成器
type PathGenerator struct {
	basePath string
	suffix   func() string
}

// NewPathGenerator 创建路径生成器，basePath 如 uploads/images
func NewPathGenerator(basePath string) *PathGenerator {
	return &PathGenerator{
		basePath: strings.Trim(basePath, "/"),
		suffix:   randomSuffix,
	}
}

// GenerateImagePath 生成 <basePath>/<category>/<epoch-ms>-<random>.<ext>
func (pg *PathGenerator) GenerateImagePath(category, originalName string, now time.Time) string {
	if category == "" {
		category = DefaultCategory
	}
	ext := codec.ExtensionFromName(originalName)
	name := fmt.Sprintf("%d-%s.%s", now.UnixMilli(), pg.suffix(), ext)
	return path.Join(pg.basePath, category, name)
}

// BasePath 返回根路径
func (pg *PathGenerator) BasePath() string {
	return pg.basePath
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
}
