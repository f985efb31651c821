// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logger provides the structured logger used across the
// orchestrator. It wraps log/slog behind a small interface so call sites
// never depend on the handler chain directly.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

// Logger is the interface every package in the orchestrator logs through.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

type options struct {
	debug  bool
	quiet  bool
	format string
	writer io.Writer
	extra  []io.Writer
}

// Option configures a Logger built by NewLogger.
type Option func(*options)

// WithDebug enables debug-level logging.
func WithDebug() Option { return func(o *options) { o.debug = true } }

// WithQuiet suppresses info/debug output, keeping warnings and errors.
func WithQuiet() Option { return func(o *options) { o.quiet = true } }

// WithFormat selects "text" or "json" output. Defaults to "text".
func WithFormat(format string) Option { return func(o *options) { o.format = format } }

// WithWriter overrides the primary sink (defaults to os.Stderr).
func WithWriter(w io.Writer) Option { return func(o *options) { o.writer = w } }

// WithTee fans output out to an additional writer (e.g. a per-job log file)
// on top of the primary sink, using slog-multi.
func WithTee(w io.Writer) Option { return func(o *options) { o.extra = append(o.extra, w) } }

type logger struct {
	l *slog.Logger
}

// NewLogger builds a Logger from the given options.
func NewLogger(opts ...Option) Logger {
	o := &options{writer: os.Stderr, format: "text"}
	for _, opt := range opts {
		opt(o)
	}

	level := slog.LevelInfo
	switch {
	case o.debug:
		level = slog.LevelDebug
	case o.quiet:
		level = slog.LevelWarn
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if src, ok := a.Value.Any().(*slog.Source); ok {
					src.File = trimSourcePath(src.File)
				}
			}
			return a
		},
	}

	sinks := make([]io.Writer, 0, 1+len(o.extra))
	sinks = append(sinks, o.writer)
	sinks = append(sinks, o.extra...)

	handlers := make([]slog.Handler, 0, len(sinks))
	for _, w := range sinks {
		if o.format == "json" {
			handlers = append(handlers, slog.NewJSONHandler(w, handlerOpts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(w, handlerOpts))
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	case 1:
		handler = handlers[0]
	default:
		handler = slogmulti.Fanout(handlers...)
	}

	return &logger{l: slog.New(handler)}
}

// trimSourcePath keeps the last two path segments (package dir + file) so
// log lines read "scheduler/job.go:42" instead of the full build path.
func trimSourcePath(file string) string {
	last := -1
	secondLast := -1
	for i := len(file) - 1; i >= 0; i-- {
		if file[i] == '/' {
			if last == -1 {
				last = i
				continue
			}
			secondLast = i
			break
		}
	}
	switch {
	case secondLast >= 0:
		return file[secondLast+1:]
	case last >= 0:
		return file[last+1:]
	default:
		return file
	}
}

// callerSkip accounts for the extra frame each wrapper method adds over a
// direct slog.Logger call, so AddSource reports the orchestrator call site
// instead of this package.
const callerSkip = 3

func (l *logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.l.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(callerSkip, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.l.Handler().Handle(ctx, r)
}

func (l *logger) Debug(msg string, args ...any) { l.log(context.Background(), slog.LevelDebug, msg, args...) }
func (l *logger) Info(msg string, args ...any)  { l.log(context.Background(), slog.LevelInfo, msg, args...) }
func (l *logger) Warn(msg string, args ...any)  { l.log(context.Background(), slog.LevelWarn, msg, args...) }
func (l *logger) Error(msg string, args ...any) { l.log(context.Background(), slog.LevelError, msg, args...) }

func (l *logger) Debugf(format string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, fmt.Sprintf(format, args...))
}
func (l *logger) Infof(format string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, fmt.Sprintf(format, args...))
}
func (l *logger) Warnf(format string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, fmt.Sprintf(format, args...))
}
func (l *logger) Errorf(format string, args ...any) {
	l.log(context.Background(), slog.LevelError, fmt.Sprintf(format, args...))
}

func (l *logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}
func (l *logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}
func (l *logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}
func (l *logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)
}

func (l *logger) With(args ...any) Logger {
	return &logger{l: l.l.With(args...)}
}
