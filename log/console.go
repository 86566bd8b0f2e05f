package log

import (
	"bytes"
	"io"
	"sync"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
	ColorBold   = "\033[1m"
)

var separator = []byte(" | ")

// ConsoleWriter reformats "time | LEVEL | message" lines produced by a
// Logger for a terminal: the timestamp is dimmed, the level padded and
// colored, and an error field highlighted.
type ConsoleWriter struct {
	Out         io.Writer
	NoColor     bool
	FormatLevel func(level Level) string
	mu          sync.Mutex
	buf         []byte
}

// NewConsoleWriter creates a new ConsoleWriter
func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	if out == nil {
		out = io.Discard
	}
	return &ConsoleWriter{
		Out: out,
		buf: make([]byte, 0, 512),
	}
}

// DefaultConsoleWriter returns a ConsoleWriter that renders levels with
// ColoredLevel.
func DefaultConsoleWriter(out io.Writer) *ConsoleWriter {
	w := NewConsoleWriter(out)
	w.FormatLevel = func(level Level) string {
		return ColoredLevel(level, w.NoColor)
	}
	return w
}

// Write implements io.Writer
func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	line := bytes.TrimRight(p, "\n")
	first := bytes.Index(line, separator)
	if first == -1 {
		return w.Out.Write(p)
	}
	second := bytes.Index(line[first+3:], separator)
	if second == -1 {
		return w.Out.Write(p)
	}
	second += first + 3

	timestamp := line[:first]
	level := line[first+3 : second]
	msg := line[second+3:]

	w.buf = w.buf[:0]
	if w.NoColor {
		w.buf = append(w.buf, timestamp...)
	} else {
		w.buf = append(w.buf, ColorCyan...)
		w.buf = append(w.buf, timestamp...)
		w.buf = append(w.buf, ColorReset...)
	}
	w.buf = append(w.buf, ' ')

	if w.FormatLevel != nil {
		w.buf = append(w.buf, w.FormatLevel(levelFromBytes(level))...)
	} else {
		w.buf = append(w.buf, level...)
	}
	w.buf = append(w.buf, ' ')

	if i := bytes.Index(msg, []byte(" error=")); i >= 0 && !w.NoColor {
		w.buf = append(w.buf, msg[:i+1]...)
		w.buf = append(w.buf, ColorRed...)
		w.buf = append(w.buf, msg[i+1:]...)
		w.buf = append(w.buf, ColorReset...)
	} else {
		w.buf = append(w.buf, msg...)
	}
	w.buf = append(w.buf, '\n')

	if _, err := w.Out.Write(w.buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

func levelFromBytes(b []byte) Level {
	for lvl, name := range levelNames {
		if string(b) == name {
			return lvl
		}
	}
	return Level(-1)
}
