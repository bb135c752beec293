package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "edit.log")

	logger, err := NewFileLogger(path, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debugw("hidden", "key", 1)
	logger.Infow("caption added", "index", 3)
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line at info level, got %d: %s", len(lines), data)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if record["msg"] != "caption added" || record["index"] != float64(3) {
		t.Errorf("unexpected record %v", record)
	}
}

func TestFileLoggerVerbose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edit.log")

	logger, err := NewFileLogger(path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debugw("tick", "pos", 100)
	_ = logger.Sync()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"tick"`) {
		t.Errorf("expected debug record, got %s", data)
	}
}

func TestNewLogger(t *testing.T) {
	if NewLogger(true).SugaredLogger == nil || Nop().SugaredLogger == nil {
		t.Error("expected usable loggers")
	}
}
