package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/dshills/docio/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{" warn ", LogLevelWarn},
		{"WARNING", LogLevelWarn},
		{"error", LogLevelError},
		{"bogus", LogLevelInfo},
		{"", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogLevelSlog(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  slog.Level
		name  string
	}{
		{LogLevelDebug, slog.LevelDebug, "DEBUG"},
		{LogLevelInfo, slog.LevelInfo, "INFO"},
		{LogLevelWarn, slog.LevelWarn, "WARN"},
		{LogLevelError, slog.LevelError, "ERROR"},
	}
	for _, tt := range tests {
		if got := tt.level.Slog(); got != tt.want {
			t.Errorf("%v.Slog() = %v, want %v", tt.level, got, tt.want)
		}
		if got := tt.level.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
	}
	if got := LogLevel(42).String(); got != "UNKNOWN" {
		t.Errorf("String() = %q, want UNKNOWN", got)
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)

	l.Info("hidden")
	l.Warn("shown", "bytes", 12)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "bytes=12") {
		t.Errorf("output = %q, want msg=shown bytes=12", out)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := WithComponent(New(config.LoggingConfig{Level: "debug", Format: "JSON"}, &buf), "loader")
	l.Debug("state", "state", "reading")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "state" || rec["component"] != "loader" || rec["level"] != "DEBUG" {
		t.Errorf("record = %v", rec)
	}
}

func TestDiscard(t *testing.T) {
	if Discard().Enabled(t.Context(), slog.LevelError) {
		t.Error("Discard() logger is enabled")
	}
	if WithComponent(nil, "x") == nil {
		t.Error("WithComponent(nil) = nil")
	}
}
