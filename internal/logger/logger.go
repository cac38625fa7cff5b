// Package logger 提供结构化日志的初始化。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup 生成输出 JSON 结构化日志的 slog.Logger。
func Setup(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}

// SetupDefault 将 JSON 结构化日志设置为全局默认 logger。
// 生产环境传入 os.Stdout。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w))
}
