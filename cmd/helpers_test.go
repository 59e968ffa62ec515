package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const (
	buyLine  = `{"type":"acquire","id":"6f1c1d2e-8a53-4c2e-9d3b-1f0a2b3c4d01","asset":"US0378331005.XNAS","at":"2025-03-03T14:30:00Z","quantity":10,"price":{"amount":195.5,"currency":"USD"}}`
	sellLine = `{"type":"dispose","id":"6f1c1d2e-8a53-4c2e-9d3b-1f0a2b3c4d02","asset":"US0378331005.XNAS","at":"2025-03-04T14:30:00Z","quantity":5,"price":{"amount":200,"currency":"USD"}}`
	shopLine = `{"type":"acquire","id":"6f1c1d2e-8a53-4c2e-9d3b-1f0a2b3c4d03","asset":"CA82509L1076.XTSE","at":"2025-03-03T14:30:00Z","quantity":3,"price":{"amount":140,"currency":"CAD"}}`
)

// createTempFile writes content into a file of a temporary directory.
func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

// isolate runs a command with raw output captured, and without any configuration file.
func isolate(t *testing.T) *bytes.Buffer {
	t.Helper()
	var out bytes.Buffer
	oldStdout, oldRaw, oldConfig := stdout, *raw, *configFile
	stdout, *raw, *configFile = &out, true, ""
	t.Cleanup(func() { stdout, *raw, *configFile = oldStdout, oldRaw, oldConfig })
	t.Setenv("CBS_STORE_DSN", filepath.Join(t.TempDir(), "events.db"))
	t.Setenv("CBS_LOG_LEVEL", "error")
	return &out
}
