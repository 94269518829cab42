// Package logger provides structured logging setup for Principal.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Strob0t/Principal/internal/config"
)

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stdout, plus a rotating file when cfg.File is set, with a
// "service" attribute on every record. The returned Closer flushes the async
// handler and the log file.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	return newWithWriter(cfg, os.Stdout)
}

func newWithWriter(cfg config.Logging, stdout io.Writer) (*slog.Logger, Closer) {
	var (
		out     = stdout
		closers multiCloser
	)
	if cfg.File != "" {
		rot := &lumberjack.Logger{
			Filename: cfg.File,
			MaxSize:  cfg.MaxSize,
			MaxAge:   cfg.MaxAge,
			Compress: true,
		}
		out = io.MultiWriter(stdout, rot)
		closers = append(closers, fileCloser{rot})
	}

	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	if cfg.Async {
		ah := NewAsyncHandler(handler, 10000, 2)
		handler = ah
		// async must flush before the file closes
		closers = append(multiCloser{ah}, closers...)
	}

	return slog.New(handler).With("service", cfg.Service), closers
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type multiCloser []Closer

func (m multiCloser) Close() {
	for _, c := range m {
		c.Close()
	}
}

type fileCloser struct{ l *lumberjack.Logger }

func (f fileCloser) Close() { _ = f.l.Close() }
