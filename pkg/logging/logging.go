// Package logging builds the log/slog logger the CLI writes to stdout, and
// offers a rotating file writer (RotatingFile) that the CLI does not use.
package logging

import (
	"context"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger builds a structured logger writing to w. When jsonFmt is true,
// records are emitted as JSON (suitable for log aggregation); otherwise a
// human-readable text handler is used, which is what operators see when
// running a redaction batch interactively.
//
// The returned logger honors attributes attached to a context via AppendCtx,
// so attributes such as a batch run's input path show up on every log line
// for that item without having to thread a *slog.Logger through every call.
func Logger(w io.Writer, jsonFmt bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if jsonFmt {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(contextHandler{Handler: handler})
}

type ctxKey struct{}

// AppendCtx attaches attrs to ctx so that any log record emitted through a
// Logger()-built logger while this context is in scope carries them.
func AppendCtx(ctx context.Context, attrs ...slog.Attr) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	existing, _ := ctx.Value(ctxKey{}).([]slog.Attr)
	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

// contextHandler injects attributes carried on the context (via AppendCtx)
// into every record it handles.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(ctxKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}

// RotatingFile returns a lumberjack-backed writer for batch run logs,
// rotated so a long-running redaction batch never fills a single log file.
func RotatingFile(path string, maxSizeMB, maxBackups, maxAgeDays int) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
}
