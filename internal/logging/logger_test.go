package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLoggerLevelAndApp(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "ConsultaClientes", "WARNING")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %s", buf.String())
	}

	logger.Warn("kept")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["app"] != "ConsultaClientes" || entry["msg"] != "kept" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewLoggerUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "", "chatty").Info("hello")
	if buf.Len() == 0 {
		t.Fatalf("expected info output for unknown level")
	}
}
