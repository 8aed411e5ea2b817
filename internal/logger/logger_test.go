package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newWithConsole(Config{Level: "info", Format: "json"}, &buf)

	l.WithComponent("bot").Info().Str("chat", "42").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "bot" {
		t.Errorf("component = %v, want bot", entry["component"])
	}
	if entry["message"] != "hello" {
		t.Errorf("message = %v, want hello", entry["message"])
	}
}

func TestNew_FileRotation(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l := newWithConsole(Config{Level: "info", Format: "json", Path: dir}, &buf)
	l.Info().Msg("to file")
	if got, want := l.FilePath(), filepath.Join(dir, logFileName); got != want {
		t.Errorf("FilePath() = %q, want %q", got, want)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !bytes.Contains(data, []byte("to file")) {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestFromConfig(t *testing.T) {
	c := FromConfig(config.LoggingConfig{Level: "debug", Format: "json", Path: "/tmp/x", MaxBackups: 2})
	if c.Level != "debug" || c.Format != "json" || c.Path != "/tmp/x" || c.MaxBackups != 2 {
		t.Errorf("FromConfig() = %+v", c)
	}
}
