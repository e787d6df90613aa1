package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/fossbatch/pkg/config"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}
	return logEntry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.Config
		wantLevel zerolog.Level
	}{
		{"debug level", &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"}, zerolog.DebugLevel},
		{"info level", &config.Config{Env: "production", LogLevel: "info", LogFormat: "json"}, zerolog.InfoLevel},
		{"warn level", &config.Config{Env: "staging", LogLevel: "warn", LogFormat: "json"}, zerolog.WarnLevel},
		{"error level", &config.Config{Env: "production", LogLevel: "error", LogFormat: "json"}, zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(tt.cfg, &buf)
			if logger == nil {
				t.Fatal("Expected logger to be created")
			}

			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("Expected global level %v, got %v", tt.wantLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{Env: "development", AuthID: "foss", LogLevel: "debug", LogFormat: "json"}

	logger := NewWithWriter(cfg, &buf).WithRun("run-1", "SEND_MPRATE", "20241210")
	logger.Info("Run started")

	logEntry := decode(t, &buf)

	if logEntry["run_id"] != "run-1" {
		t.Errorf("Expected run_id run-1, got %v", logEntry["run_id"])
	}
	if logEntry["process_type"] != "SEND_MPRATE" {
		t.Errorf("Expected process_type SEND_MPRATE, got %v", logEntry["process_type"])
	}
	if logEntry["target_date"] != "20241210" {
		t.Errorf("Expected target_date 20241210, got %v", logEntry["target_date"])
	}
	if logEntry["auth_id"] != "foss" {
		t.Errorf("Expected auth_id foss, got %v", logEntry["auth_id"])
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	logger := &Logger{zlog: zerolog.New(&buf)}
	logger.WithFields(map[string]interface{}{
		"file":  "mp_info.20241210",
		"lines": 10,
	}).Info("File staged")

	logEntry := decode(t, &buf)

	if logEntry["file"] != "mp_info.20241210" {
		t.Errorf("Expected file mp_info.20241210, got %v", logEntry["file"])
	}
	if logEntry["lines"] != float64(10) {
		t.Errorf("Expected lines 10, got %v", logEntry["lines"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{zlog: zerolog.New(&buf)}

	logger.WithError(errors.New("sftp: connection refused")).Error("upload failed")

	logEntry := decode(t, &buf)

	if logEntry["error"] != "sftp: connection refused" {
		t.Errorf("Expected error field, got %v", logEntry["error"])
	}
	if logEntry["message"] != "upload failed" {
		t.Errorf("Expected message 'upload failed', got %v", logEntry["message"])
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{Env: "development", LogLevel: "info", LogFormat: "console"}

	NewWithWriter(cfg, &buf).Info("console message")

	if !strings.Contains(buf.String(), "console message") {
		t.Errorf("Expected output to contain 'console message', got: %s", buf.String())
	}
}

func TestNop(t *testing.T) {
	// must not panic
	Nop().WithField("k", "v").Info("discarded")
}
