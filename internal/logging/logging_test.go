package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileLoggerMirrorsToSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vm.log")
	l := NewFileLogger("VM", path, false)

	l.Info("step executed", Field{Key: "ip", Value: 3})
	l.Debug("suppressed without debug")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sink: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, `"step executed"`) || !strings.Contains(out, `"ip":3`) {
		t.Errorf("sink missing info line: %q", out)
	}
	if strings.Contains(out, "suppressed") {
		t.Error("debug line written with debug disabled")
	}
}

func TestFileLoggerEmptyPathIsStdoutOnly(t *testing.T) {
	l := NewFileLogger("VM", "", true)
	if l.sink != nil {
		t.Error("empty path should not open a sink")
	}
	// Must still be safe to log.
	l.Debug("no sink")
}
