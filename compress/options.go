package compress

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// 默认压缩参数
const (
	DefaultMaxWidth     = 1920
	DefaultMaxHeight    = 1080
	DefaultQuality      = 0.8
	DefaultOutputFormat = "image/jpeg"
)

// Options 压缩参数，零值字段取默认值
type Options struct {
	MaxWidth     int     `mapstructure:"max_width"`
	MaxHeight    int     `mapstructure:"max_height"`
	Quality      float64 `mapstructure:"quality"`
	OutputFormat string  `mapstructure:"output_format"`
}

// DefaultOptions 返回默认参数
func DefaultOptions() Options {
	return Options{
		MaxWidth:     DefaultMaxWidth,
		MaxHeight:    DefaultMaxHeight,
		Quality:      DefaultQuality,
		OutputFormat: DefaultOutputFormat,
	}
}

// WithDefaults 用 base 补齐未设置的字段
func (o Options) WithDefaults(base Options) Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = base.MaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = base.MaxHeight
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = base.Quality
	}
	if o.OutputFormat == "" {
		o.OutputFormat = base.OutputFormat
	}
	o.OutputFormat = normalizeFormat(o.OutputFormat)
	return o
}

// OptionsFromMap 从配置中的通用 map 解码参数
func OptionsFromMap(m map[string]interface{}) (Options, error) {
	var opts Options
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Options{}, err
	}
	if err := decoder.Decode(m); err != nil {
		return Options{}, fmt.Errorf("invalid compression profile: %w", err)
	}
	return opts, nil
}

// Profiles 按分类覆盖的压缩参数
type Profiles struct {
	base     Options
	profiles map[string]Options
}

// NewProfiles 解析 compress_profiles 配置
func NewProfiles(base Options, raw map[string]map[string]interface{}) (*Profiles, error) {
	p := &Profiles{
		base:     base.WithDefaults(DefaultOptions()),
		profiles: make(map[string]Options, len(raw)),
	}
	for category, m := range raw {
		opts, err := OptionsFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", category, err)
		}
		p.profiles[category] = opts.WithDefaults(p.base)
	}
	return p, nil
}

// For 返回分类对应的参数，没有单独配置时返回基础参数
func (p *Profiles) For(category string) Options {
	if p == nil {
		return DefaultOptions()
	}
	if opts, ok := p.profiles[category]; ok {
		return opts
	}
	return p.base
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "image/jpg" {
		return "image/jpeg"
	}
	return format
}
