package log

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ILogger is the interface that wraps the basic logging methods.
type ILogger interface {
	// Debug returns a debug level event
	Debug() IEvent
	// Info returns an info level event
	Info() IEvent
	// Warn returns a warn level event
	Warn() IEvent
	// Error returns an error level event
	Error() IEvent
	// Fatal returns a fatal level event
	Fatal() IEvent
	// SetLevel sets the log level
	SetLevel(level Level)
	// GetLevel returns the current log level
	GetLevel() Level
}

// IEvent is the interface that wraps the basic event methods.
type IEvent interface {
	// Err adds an error to the event
	Err(err error) IEvent
	// Str adds a string field
	Str(key, value string) IEvent
	// Int adds an integer field
	Int(key string, value int) IEvent
	// Dur adds a duration field
	Dur(key string, value time.Duration) IEvent
	// Msg logs a message
	Msg(msg string)
	// Msgf logs a formatted message
	Msgf(format string, v ...interface{})
}

// LoggerConfig represents the configuration for a logger.
type LoggerConfig struct {
	// Writer is the output writer
	Writer io.Writer
	// Level is the log level
	Level Level
	// TimeFormat is the format for timestamps
	TimeFormat string
	// NoColor disables colored output
	NoColor bool
}

// DefaultLoggerConfig returns the default configuration for a logger.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Writer:     nil, // Will be set to os.Stdout in New
		Level:      InfoLevel,
		TimeFormat: defaultTimeFormat,
		NoColor:    false,
	}
}

const defaultTimeFormat = "2006-01-02 15:04:05"

// Level represents the log level
type Level int8

const (
	// DebugLevel defines debug log level
	DebugLevel Level = iota
	// InfoLevel defines info log level
	InfoLevel
	// WarnLevel defines warn log level
	WarnLevel
	// ErrorLevel defines error log level
	ErrorLevel
	// FatalLevel defines fatal log level
	FatalLevel
)

var levelNames = map[Level]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
	FatalLevel: "FATAL",
}

// String returns the string representation of the log level
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", l)
}

// ParseLevel converts a level name such as "debug" or "WARN" into a Level.
// "warning" is accepted as an alias of warn.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	}
	return InfoLevel, fmt.Errorf("log: unknown level %q", s)
}

// Logger represents a logger instance
type Logger struct {
	writer     io.Writer
	level      Level
	mu         sync.Mutex
	buf        []byte
	timeFormat string
	noColor    bool
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() Level {
	return l.level
}

// Writer returns the output writer.
func (l *Logger) Writer() io.Writer {
	return l.writer
}

// Event represents a log event. A nil *Event is a disabled event: every
// method on it is a no-op, so filtered calls chain safely.
type Event struct {
	logger *Logger
	level  Level
	err    error
	fields []byte
}

// New creates a new logger with the given writer and level
func New(writer io.Writer, level Level) *Logger {
	if writer == nil {
		writer = os.Stdout
	}
	return &Logger{
		writer:     writer,
		level:      level,
		buf:        make([]byte, 0, 512),
		timeFormat: defaultTimeFormat,
		noColor:    false,
	}
}

// NewWithConfig creates a new logger with the given configuration
func NewWithConfig(config LoggerConfig) *Logger {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	return &Logger{
		writer:     config.Writer,
		level:      config.Level,
		buf:        make([]byte, 0, 512),
		timeFormat: config.TimeFormat,
		noColor:    config.NoColor,
	}
}

func (l *Logger) newEvent(level Level) *Event {
	if l.level > level {
		return nil
	}
	return &Event{logger: l, level: level}
}

// Debug returns a debug level event
func (l *Logger) Debug() IEvent {
	return l.newEvent(DebugLevel)
}

// Info returns an info level event
func (l *Logger) Info() IEvent {
	return l.newEvent(InfoLevel)
}

// Warn returns a warn level event
func (l *Logger) Warn() IEvent {
	return l.newEvent(WarnLevel)
}

// Error returns an error level event
func (l *Logger) Error() IEvent {
	return l.newEvent(ErrorLevel)
}

// Fatal returns a fatal level event. Fatal events are never filtered.
func (l *Logger) Fatal() IEvent {
	return &Event{logger: l, level: FatalLevel}
}

// Err adds an error to the event
func (e *Event) Err(err error) IEvent {
	if e == nil {
		return e
	}
	e.err = err
	return e
}

// Str adds a string field. Values containing spaces are quoted.
func (e *Event) Str(key, value string) IEvent {
	if e == nil {
		return e
	}
	e.fields = append(e.fields, ' ')
	e.fields = append(e.fields, key...)
	e.fields = append(e.fields, '=')
	if strings.ContainsAny(value, " \t\"") {
		e.fields = strconv.AppendQuote(e.fields, value)
	} else {
		e.fields = append(e.fields, value...)
	}
	return e
}

// Int adds an integer field
func (e *Event) Int(key string, value int) IEvent {
	if e == nil {
		return e
	}
	e.fields = append(e.fields, ' ')
	e.fields = append(e.fields, key...)
	e.fields = append(e.fields, '=')
	e.fields = strconv.AppendInt(e.fields, int64(value), 10)
	return e
}

// Dur adds a duration field
func (e *Event) Dur(key string, value time.Duration) IEvent {
	if e == nil {
		return e
	}
	return e.Str(key, value.String())
}

// Msg logs a message
func (e *Event) Msg(msg string) {
	if e == nil {
		return
	}
	e.write(msg)
}

// Msgf logs a formatted message
func (e *Event) Msgf(format string, v ...interface{}) {
	if e == nil {
		return
	}
	e.write(fmt.Sprintf(format, v...))
}

// write renders "time | LEVEL | msg key=value error=..." as one line.
func (e *Event) write(msg string) {
	l := e.logger
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf = l.buf[:0]
	l.buf = time.Now().AppendFormat(l.buf, l.timeFormat)
	l.buf = append(l.buf, " | "...)
	l.buf = append(l.buf, e.level.String()...)
	l.buf = append(l.buf, " | "...)
	l.buf = append(l.buf, msg...)
	l.buf = append(l.buf, e.fields...)
	if e.err != nil {
		l.buf = append(l.buf, " error="...)
		l.buf = strconv.AppendQuote(l.buf, e.err.Error())
	}
	l.buf = append(l.buf, '\n')

	_, _ = l.writer.Write(l.buf)
}

// Default logger
var defaultLogger = New(DefaultConsoleWriter(os.Stdout), InfoLevel)

// Debug returns a debug level event from the global logger
func Debug() IEvent { return GetLogger().Debug() }

// Info returns an info level event from the global logger
func Info() IEvent { return GetLogger().Info() }

// Warn returns a warn level event from the global logger
func Warn() IEvent { return GetLogger().Warn() }

// Error returns an error level event from the global logger
func Error() IEvent { return GetLogger().Error() }

// Fatal returns a fatal level event from the global logger
func Fatal() IEvent { return GetLogger().Fatal() }

// SetLevel sets the log level for the default logger
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// SetOutput sets the output writer for the default logger
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defaultLogger.writer = w
	defaultLogger.mu.Unlock()
}
