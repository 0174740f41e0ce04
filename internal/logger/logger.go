package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init 初始化全局 zerolog 日志器，输出到 stderr 的控制台格式。
func Init(levelStr string) {
	InitWithWriter(levelStr, os.Stderr)
}

// InitWithWriter 与 Init 相同，但允许指定输出目标
func InitWithWriter(levelStr string, out io.Writer) {
	levelStr = strings.ToLower(strings.TrimSpace(levelStr))
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		if levelStr != "" {
			fmt.Fprintf(os.Stderr, "Unknown log level '%s', defaulting to 'info'\n", levelStr)
		}
		level = zerolog.InfoLevel
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.DateTime,
	}

	log.Logger = zerolog.New(consoleWriter).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// WithComponent 返回带 component 字段的子日志器，用于区分不同模块的输出。
func WithComponent(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
