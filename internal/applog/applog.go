// Package applog builds the process logger and carries session-scoped
// loggers through context.Context.
package applog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type key struct{}

var loggerKey = key{}

// New creates a slog.Logger writing text or JSON records at the given level.
// It does not touch the global logger.
func New(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	return slog.New(newHandler(parseLevel(levelStr), formatStr, outW))
}

// FileConfig enables rotating log files under Dir. Sizes are in megabytes.
type FileConfig struct {
	Dir        string
	MaxSizeMB  int
	MaxBackups int
}

// NewWithFiles is New plus two rotating files: debug.log receives every
// record and error.log receives errors only. The returned closer releases
// both files.
func NewWithFiles(levelStr, formatStr string, outW io.Writer, files FileConfig) (*slog.Logger, io.Closer) {
	debugW := files.rotator("debug.log")
	errorW := files.rotator("error.log")
	handler := fanout{
		newHandler(parseLevel(levelStr), formatStr, outW),
		newHandler(slog.LevelDebug, "text", debugW),
		newHandler(slog.LevelError, "text", errorW),
	}
	return slog.New(handler), closers{debugW, errorW}
}

func (f FileConfig) rotator(name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(f.Dir, name),
		MaxSize:    f.MaxSizeMB,
		MaxBackups: f.MaxBackups,
	}
}

func parseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(level slog.Level, formatStr string, w io.Writer) slog.Handler {
	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(formatStr) == "json" {
		return slog.NewJSONHandler(w, handlerOpts)
	}
	return slog.NewTextHandler(w, handlerOpts)
}

// fanout hands each record to every handler enabled for its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for _, cl := range c {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}

// WithLogger returns a new context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
