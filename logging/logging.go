// Package logging implements the routecraft.Logger capability on top of
// log/slog, with console/file/loki outputs configured the way the
// a conventional internal/log package does (logger.go, appender_file.go).
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"routecraft.dev/routecraft"
	"routecraft.dev/routecraft/config"
)

// Init builds a *slog.Logger from cfg, following the conventional multi-output
// fan-in pattern: every configured output is combined with io.MultiWriter.
func Init(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var writers []io.Writer
	for i, output := range cfg.Outputs {
		w, err := createWriter(output)
		if err != nil {
			return nil, fmt.Errorf("output[%d] (%s): %w", i, output.Type, err)
		}
		if w != nil {
			writers = append(writers, w)
		}
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}
	multi := io.MultiWriter(writers...)

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(multi, opts)
	default:
		handler = slog.NewJSONHandler(multi, opts)
	}
	return slog.New(handler), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "trace":
		return slog.LevelDebug - 1, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "fatal":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level: %s", s)
	}
}

func createWriter(o config.OutputConfig) (io.Writer, error) {
	switch strings.ToLower(o.Type) {
	case "", "console", "stdout":
		return os.Stdout, nil
	case "file":
		if o.Path == "" {
			return nil, fmt.Errorf("file output requires 'path'")
		}
		return &lumberjack.Logger{
			Filename:   o.Path,
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
			MaxAge:     o.MaxAgeDays,
			Compress:   o.Compress,
		}, nil
	case "loki":
		if o.Endpoint == "" {
			return nil, fmt.Errorf("loki output requires 'endpoint'")
		}
		return NewLokiWriter(LokiConfig{
			Endpoint:      o.Endpoint,
			Labels:        o.Labels,
			BatchSize:     o.BatchSize,
			FlushInterval: o.FlushInterval,
		})
	default:
		return nil, fmt.Errorf("unsupported output type: %s", o.Type)
	}
}

// SlogLogger implements routecraft.Logger on top of *slog.Logger (bound
// fields via .With, trace mapped below slog's own debug level).
type SlogLogger struct {
	l *slog.Logger
}

var _ routecraft.Logger = (*SlogLogger)(nil)

// NewLogger wraps an slog.Logger as a Logger capability.
func NewLogger(l *slog.Logger) *SlogLogger { return &SlogLogger{l: l} }

func (s *SlogLogger) Trace(msg string, args ...any) {
	s.l.Log(context.Background(), slog.LevelDebug-1, msg, args...)
}
func (s *SlogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *SlogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *SlogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *SlogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// Fatal logs at error level; unlike the standard library's log.Fatal it
// never calls os.Exit — only the daemon entrypoint may do that.
func (s *SlogLogger) Fatal(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *SlogLogger) With(args ...any) routecraft.Logger {
	return &SlogLogger{l: s.l.With(args...)}
}
