package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New().SetOutput(&buf).SetLevel(LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("expected debug/info to be filtered, got: %s", output)
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Errorf("expected warn/error to be logged, got: %s", output)
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New().SetOutput(&buf)

	logger.Info("challenge created", map[string]interface{}{"challenged_id": int64(42)})

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Level != "INFO" {
		t.Errorf("expected level INFO, got %s", entry.Level)
	}
	if entry.Message != "challenge created" {
		t.Errorf("unexpected message: %s", entry.Message)
	}
	if entry.Fields["challenged_id"] != float64(42) {
		t.Errorf("unexpected fields: %v", entry.Fields)
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New().SetOutput(&buf).WithField("component", "scheduler")

	logger.Info("task started", map[string]interface{}{"key": int64(7)})

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Fields["component"] != "scheduler" {
		t.Errorf("expected component field, got %v", entry.Fields)
	}
	if entry.Fields["key"] != float64(7) {
		t.Errorf("expected key field, got %v", entry.Fields)
	}
}

func TestLogger_UnmarshalableFieldFallsBack(t *testing.T) {
	var buf bytes.Buffer
	logger := New().SetOutput(&buf)

	logger.Info("redis ready", map[string]interface{}{"ch": make(chan int)})

	output := buf.String()
	if !strings.Contains(output, "redis ready") || !strings.Contains(output, "INFO") {
		t.Errorf("expected a plain fallback line, got: %s", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("fallback line should still end with a newline")
	}
}

func TestLevel_String(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
		Level(99):  "UNKNOWN",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}
