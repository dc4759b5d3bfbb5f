package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init 配置全局 zerolog 日志，只需在启动时调用一次
func Init(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// Writer 以指定级别把文本行写入全局日志，供第三方库的日志接口使用
type Writer struct {
	Level     zerolog.Level
	Component string
}

// Printf 满足 gorm logger.Writer 接口
func (w Writer) Printf(format string, args ...interface{}) {
	log.WithLevel(w.Level).Str("component", w.Component).Msgf(format, args...)
}
