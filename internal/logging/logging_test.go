package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got: %s", cfg.Level)
	}
	if cfg.Format != "text" {
		t.Errorf("expected format 'text', got: %s", cfg.Format)
	}
	if cfg.AddSource {
		t.Error("expected AddSource to default to false")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"", slog.LevelInfo, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q) expected error, got nil", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Config{Level: "info", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("corpus reloaded", slog.Int("passages", 5))

	out := buf.String()
	if !strings.Contains(out, "corpus reloaded") {
		t.Errorf("expected message in output, got: %s", out)
	}
	if !strings.Contains(out, "passages=5") {
		t.Errorf("expected text attribute formatting, got: %s", out)
	}
}

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("search complete", slog.Int("results", 3))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\noutput: %s", err, buf.String())
	}
	if record["msg"] != "search complete" {
		t.Errorf("expected msg 'search complete', got: %v", record["msg"])
	}
	if record["results"] != float64(3) {
		t.Errorf("expected results 3, got: %v", record["results"])
	}
}

func TestSetup_LevelFiltersRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Config{Level: "warn", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("should be dropped")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Errorf("info record leaked through warn level: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn record missing: %s", out)
	}
}

func TestSetup_RejectsUnknownLevel(t *testing.T) {
	_, err := Setup(Config{Level: "verbose", Format: "text"})
	if err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSetup_RejectsUnknownFormat(t *testing.T) {
	_, err := Setup(Config{Level: "info", Format: "logfmt"})
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestInit_SetsDefaultLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger, err := Init(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if logger == nil {
		t.Fatal("Init returned nil logger")
	}

	slog.Info("via default logger")
	if !strings.Contains(buf.String(), "via default logger") {
		t.Errorf("default logger did not write to configured output: %s", buf.String())
	}
}
