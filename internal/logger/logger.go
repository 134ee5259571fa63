// Package logger 设置全局 slog
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const Service = "volume-radar"

// Init 按配置创建 logger 并设为默认, format 为 json 或 text
func Init(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With(slog.String("service", Service))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel 无法识别时使用 info
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
