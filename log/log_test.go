package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

// TestLevelString tests the String method of Level
func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{FatalLevel, "FATAL"},
		{Level(99), "LEVEL(99)"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("Level(%d).String() = %s, expected %s", test.level, got, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected Level
		wantErr  bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{" error ", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"verbose", InfoLevel, true},
	}

	for _, test := range tests {
		got, err := ParseLevel(test.in)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", test.in, err, test.wantErr)
		}
		if got != test.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", test.in, got, test.expected)
		}
	}
}

// TestLoggerCreation tests the creation of loggers
func TestLoggerCreation(t *testing.T) {
	logger := New(nil, InfoLevel)
	if logger.writer == nil {
		t.Error("New(nil, InfoLevel) should set writer to os.Stdout")
	}

	buf := &bytes.Buffer{}
	logger = NewWithConfig(LoggerConfig{Writer: buf, Level: WarnLevel})
	if logger.Writer() != buf {
		t.Error("NewWithConfig did not set the writer")
	}
	if logger.GetLevel() != WarnLevel {
		t.Errorf("NewWithConfig set level to %v, expected %v", logger.GetLevel(), WarnLevel)
	}
	if logger.timeFormat != defaultTimeFormat {
		t.Errorf("empty TimeFormat should fall back to %q, got %q", defaultTimeFormat, logger.timeFormat)
	}
}

func TestEventLine(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, DebugLevel)

	logger.Info().
		Str("method", "GET").
		Str("path", "/users 1").
		Int("status", 200).
		Dur("latency", 1500*time.Millisecond).
		Err(errors.New("boom")).
		Msg("request")

	line := buf.String()
	parts := strings.SplitN(line, " | ", 3)
	if len(parts) != 3 {
		t.Fatalf("unexpected line format: %q", line)
	}
	if _, err := time.Parse(defaultTimeFormat, parts[0]); err != nil {
		t.Errorf("timestamp %q does not parse: %v", parts[0], err)
	}
	if parts[1] != "INFO" {
		t.Errorf("level = %q, expected INFO", parts[1])
	}
	expected := `request method=GET path="/users 1" status=200 latency=1.5s error="boom"` + "\n"
	if parts[2] != expected {
		t.Errorf("message = %q, expected %q", parts[2], expected)
	}
}

func TestFilteredEventsAreNoops(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, ErrorLevel)

	// A filtered event must chain without panicking.
	logger.Debug().Str("k", "v").Int("n", 1).Err(errors.New("x")).Msg("hidden")
	logger.Info().Msgf("hidden %d", 1)
	logger.Warn().Msg("hidden")

	if buf.Len() != 0 {
		t.Errorf("filtered events wrote output: %q", buf.String())
	}

	logger.Error().Msgf("shown %d", 42)
	if !strings.Contains(buf.String(), "shown 42") {
		t.Errorf("error event not written: %q", buf.String())
	}
}

func TestFatalIsNeverFiltered(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, Level(100))
	logger.Fatal().Msg("bye")
	if !strings.Contains(buf.String(), "FATAL | bye") {
		t.Errorf("fatal event not written: %q", buf.String())
	}
}

func TestDefaultLoggerHelpers(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	SetLevel(DebugLevel)
	defer func() {
		SetOutput(DefaultConsoleWriter(nil))
		SetLevel(InfoLevel)
	}()

	Debug().Msg("debug message")
	Warn().Msg("warn message")

	out := buf.String()
	if !strings.Contains(out, "DEBUG | debug message") {
		t.Errorf("missing debug line in %q", out)
	}
	if !strings.Contains(out, "WARN | warn message") {
		t.Errorf("missing warn line in %q", out)
	}
}
