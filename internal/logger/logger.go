// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger output.
type Options struct {
	Dev  bool
	File string // rotated with lumberjack when set
}

// Setup builds the logger and installs it as the global zerolog logger.
func Setup(opts Options) zerolog.Logger {
	level := zerolog.InfoLevel
	if opts.Dev {
		level = zerolog.DebugLevel
	}

	var out io.Writer = os.Stderr
	if opts.Dev {
		out = zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}
	}
	if opts.File != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if opts.Dev {
		logger = logger.With().Caller().Logger()
	}

	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return logger
}
