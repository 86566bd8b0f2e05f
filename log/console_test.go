package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// TestNewConsoleWriter tests the NewConsoleWriter function
func TestNewConsoleWriter(t *testing.T) {
	cw := NewConsoleWriter(nil)
	if cw == nil {
		t.Fatal("NewConsoleWriter(nil) returned nil")
	}

	buf := &bytes.Buffer{}
	cw = NewConsoleWriter(buf)
	if cw.Out != buf {
		t.Error("NewConsoleWriter did not set the output writer correctly")
	}
	if cw.NoColor {
		t.Error("NewConsoleWriter set NoColor to true, expected false")
	}
}

// TestConsoleWriterWrite tests the Write method of ConsoleWriter
func TestConsoleWriterWrite(t *testing.T) {
	buf := &bytes.Buffer{}
	cw := DefaultConsoleWriter(buf)
	cw.NoColor = true

	in := []byte("2024-01-02 03:04:05 | WARN | disk almost full\n")
	n, err := cw.Write(in)
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if n != len(in) {
		t.Errorf("Write returned %d, expected %d", n, len(in))
	}

	expected := "2024-01-02 03:04:05 | WARN  | disk almost full\n"
	if buf.String() != expected {
		t.Errorf("got %q, expected %q", buf.String(), expected)
	}
}

func TestConsoleWriterPassthrough(t *testing.T) {
	buf := &bytes.Buffer{}
	cw := NewConsoleWriter(buf)

	cw.Write([]byte("not a log line\n"))
	if buf.String() != "not a log line\n" {
		t.Errorf("unparseable lines should pass through, got %q", buf.String())
	}
}

func TestConsoleWriterColorsError(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(DefaultConsoleWriter(buf), InfoLevel)

	logger.Error().Err(errors.New("boom")).Msg("failed")

	out := buf.String()
	if !strings.Contains(out, ColorRed+"| ERROR |"+ColorReset) {
		t.Errorf("level not colored: %q", out)
	}
	if !strings.Contains(out, ColorRed+`error="boom"`+ColorReset) {
		t.Errorf("error field not colored: %q", out)
	}
}
