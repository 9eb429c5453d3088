package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the global logger.
//   - Level: log level string (trace, debug, info, warn, error, fatal, panic)
//   - Format: "json" for production, "pretty" for human-readable dev output
//   - File: optional path; when set, JSON logs are also written to a rotating file
type Options struct {
	Level  string
	Format string
	File   string
}

// Setup initializes the global zerolog logger and returns it.
func Setup(opts Options) zerolog.Logger {
	var console io.Writer = os.Stdout
	if opts.Format == "pretty" {
		console = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	writer := console
	if opts.File != "" {
		writer = zerolog.MultiLevelWriter(console, fileWriter(opts.File))
	}

	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Logger()
}

func fileWriter(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}
