package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pismo.log")
	logger, err := New(Options{Path: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("restored container")
	logger.Debug("hidden at info level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "restored container") {
		t.Fatalf("log entry missing: %q", data)
	}
	if strings.Contains(string(data), "hidden at info level") {
		t.Fatalf("debug entry written at info level")
	}
}

func TestNewWithoutOutputsIsNop(t *testing.T) {
	logger, err := New(Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("dropped")
	if OrNop(nil) == nil {
		t.Fatalf("OrNop returned nil")
	}
}
