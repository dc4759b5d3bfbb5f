package utils

import (
	"strings"
	"unicode"
)

const maxLogFieldLength = 256

// SanitizeLogMessage 去除用户输入中的控制字符，避免伪造日志行
func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == '\t' {
			sb.WriteRune(r)
		} else if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogField 截断并清理单个日志字段（文件名、路径等）
func SanitizeLogField(field string) string {
	if len(field) > maxLogFieldLength {
		field = field[:maxLogFieldLength] + "..."
	}
	return SanitizeLogMessage(field)
}
