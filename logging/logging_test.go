package logging

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"routecraft.dev/routecraft/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"info":  slog.LevelInfo,
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"fatal": slog.LevelError,
	}
	for in, want := range tests {
		got, err := parseLevel(in)
		if err != nil {
			t.Errorf("parseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseLevel_RejectsUnknown(t *testing.T) {
	if _, err := parseLevel("garbage"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestCreateWriter_ConsoleDefault(t *testing.T) {
	w, err := createWriter(config.OutputConfig{})
	if err != nil {
		t.Fatalf("createWriter: %v", err)
	}
	if w == nil {
		t.Fatal("expected a non-nil writer for the default console output")
	}
}

func TestCreateWriter_FileRequiresPath(t *testing.T) {
	if _, err := createWriter(config.OutputConfig{Type: "file"}); err == nil {
		t.Fatal("expected an error when file output has no path")
	}
}

func TestCreateWriter_FileWritesToLumberjack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	w, err := createWriter(config.OutputConfig{Type: "file", Path: path})
	if err != nil {
		t.Fatalf("createWriter: %v", err)
	}
	if w == nil {
		t.Fatal("expected a non-nil writer")
	}
}

func TestCreateWriter_LokiRequiresEndpoint(t *testing.T) {
	if _, err := createWriter(config.OutputConfig{Type: "loki"}); err == nil {
		t.Fatal("expected an error when loki output has no endpoint")
	}
}

func TestCreateWriter_RejectsUnsupportedType(t *testing.T) {
	if _, err := createWriter(config.OutputConfig{Type: "carrier-pigeon"}); err == nil {
		t.Fatal("expected an error for an unsupported output type")
	}
}

func TestInit_DefaultsToStdoutWhenNoOutputsConfigured(t *testing.T) {
	logger, err := Init(config.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if logger == nil {
		t.Fatal("Init returned a nil logger")
	}
}

func TestSlogLogger_WithReturnsBoundLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	logger := NewLogger(base)

	bound := logger.With("route", "r1")
	bound.Info("hello")

	if !strings.Contains(buf.String(), "route=r1") {
		t.Errorf("log output = %q, want it to contain route=r1", buf.String())
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("log output = %q, want it to contain the message", buf.String())
	}
}

func TestSlogLogger_FatalDoesNotExit(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	logger.Fatal("still here")
	if !strings.Contains(buf.String(), "still here") {
		t.Errorf("log output = %q, want it to contain the message", buf.String())
	}
}
