package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.WarnLevel)

	log.Info().Msg("dropped")
	log.Warn().Str("component", "chat").Msg("kept")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "kept" || entry["component"] != "chat" {
		t.Errorf("Unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("Expected a timestamp")
	}
}

func TestInitWithOptions_File(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	path := filepath.Join(t.TempDir(), "chatapi.log")

	log, err := InitWithOptions(path, false)
	if err != nil {
		t.Fatalf("InitWithOptions failed: %v", err)
	}
	log.Info().Msg("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"message":"hello"`)) {
		t.Errorf("Expected message in log file, got %q", data)
	}
}

func TestInitWithOptions_BadPath(t *testing.T) {
	if _, err := InitWithOptions(filepath.Join(t.TempDir(), "missing", "x.log"), false); err == nil {
		t.Error("Expected error for unwritable log path")
	}
}
