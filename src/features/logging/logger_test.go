package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rekorded/rekorded/src/features/config"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.Logger{Enabled: true, Level: "warn", Format: "logfmt"})

	logger.Info("hidden message")
	logger.Warn("visible message", "library_id", "abc")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "abc") {
		t.Errorf("expected warn output with attributes, got %s", out)
	}
	if !strings.Contains(out, "Rekorded") {
		t.Errorf("expected prefix in output, got %s", out)
	}
}

func TestNewLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.Logger{Enabled: false, Level: "debug"})
	logger.Error("nothing")
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote output: %s", buf.String())
	}
}
