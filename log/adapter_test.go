package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestGlobalLogger(t *testing.T) {
	if GetLogger() != ILogger(defaultLogger) {
		t.Fatal("GetLogger should default to the package logger")
	}

	buf := &bytes.Buffer{}
	custom := New(buf, DebugLevel)
	SetLogger(custom)
	defer SetLogger(nil)

	if GetLogger() != ILogger(custom) {
		t.Fatal("SetLogger did not replace the global logger")
	}
	Info().Msg("through global")
	if !strings.Contains(buf.String(), "through global") {
		t.Errorf("package helpers should use the global logger, got %q", buf.String())
	}
}

func TestAdapterLoggerWith(t *testing.T) {
	buf := &bytes.Buffer{}
	base := New(buf, InfoLevel)
	adapter := NewAdapterLogger(base).With("component", "session")

	adapter.Info().Msg("saved")
	adapter.Debug().Msg("filtered")

	out := buf.String()
	if !strings.Contains(out, "saved component=session") {
		t.Errorf("adapter fields missing: %q", out)
	}
	if strings.Contains(out, "filtered") {
		t.Errorf("adapter must respect the wrapped level: %q", out)
	}

	adapter.SetLevel(DebugLevel)
	if base.GetLevel() != DebugLevel {
		t.Error("SetLevel should reach the wrapped logger")
	}
}
