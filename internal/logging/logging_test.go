package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		" WARN": zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestNewWritesJSONWithSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hunt.log")
	logger, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Debug("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := bytes.SplitN(bytes.TrimSpace(data), []byte("\n"), 2)[0]
	var entry map[string]any
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	if entry["msg"] != "hello" {
		t.Fatalf("unexpected msg %v", entry["msg"])
	}
	if s, _ := entry["session"].(string); len(s) != 36 {
		t.Fatalf("expected uuid session field, got %v", entry["session"])
	}
}

func TestNewRejectsEmptyFile(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected empty file error")
	}
}
