package logger

import (
	"context"
	"log/slog"
	"os"
)

var slogLevels = map[Level]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// slogLogger writes through a log/slog handler. Unknown levels log at info.
type slogLogger struct {
	handler *slog.Logger
	min     Level
}

// NewSlogLogger returns a Logger emitting JSON, or logfmt-style text when
// cfg.Format is "text", to cfg.Output (stdout when nil).
func NewSlogLogger(cfg Config) Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stdout
	}
	hopts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}

	var h slog.Handler = slog.NewJSONHandler(w, hopts)
	if cfg.Format == "text" {
		h = slog.NewTextHandler(w, hopts)
	}
	return &slogLogger{handler: slog.New(h), min: cfg.Level}
}

func slogLevel(l Level) slog.Level {
	if sl, ok := slogLevels[l]; ok {
		return sl
	}
	return slog.LevelInfo
}

func attrs(fields []Field) []slog.Attr {
	out := make([]slog.Attr, len(fields))
	for i, f := range fields {
		out[i] = slog.Any(f.Key, f.Value)
	}
	return out
}

// log skips building attributes for entries the handler would drop.
func (l *slogLogger) log(level Level, msg string, fields []Field) {
	sl := slogLevel(level)
	ctx := context.Background()
	if !l.handler.Enabled(ctx, sl) {
		return
	}
	l.handler.LogAttrs(ctx, sl, msg, attrs(fields)...)
}

func (l *slogLogger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *slogLogger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *slogLogger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *slogLogger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *slogLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	child := l.handler.Handler().WithAttrs(attrs(fields))
	return &slogLogger{handler: slog.New(child), min: l.min}
}

// WithContext attaches the request id and locale carried by ctx.
func (l *slogLogger) WithContext(ctx context.Context) Logger {
	return l.With(extractContextFields(ctx)...)
}

func (l *slogLogger) Level() Level {
	return l.min
}
