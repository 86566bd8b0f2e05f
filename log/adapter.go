package log

import "sync"

var (
	globalMu     sync.RWMutex
	globalLogger ILogger
)

// SetLogger sets the global logger instance.
// This allows developers to use their own logger implementation.
func SetLogger(l ILogger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// GetLogger returns the global logger instance.
func GetLogger() ILogger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l == nil {
		return defaultLogger
	}
	return l
}

// AdapterLogger wraps an ILogger and tags every event with fixed fields,
// e.g. the component that emits it.
type AdapterLogger struct {
	logger ILogger
	fields [][2]string
}

// NewAdapterLogger creates a new AdapterLogger
func NewAdapterLogger(logger ILogger) *AdapterLogger {
	return &AdapterLogger{
		logger: logger,
	}
}

// With returns a copy of the adapter that adds key=value to every event.
func (l *AdapterLogger) With(key, value string) *AdapterLogger {
	fields := make([][2]string, len(l.fields), len(l.fields)+1)
	copy(fields, l.fields)
	return &AdapterLogger{logger: l.logger, fields: append(fields, [2]string{key, value})}
}

func (l *AdapterLogger) tag(e IEvent) IEvent {
	for _, f := range l.fields {
		e = e.Str(f[0], f[1])
	}
	return e
}

// Debug returns a debug level event
func (l *AdapterLogger) Debug() IEvent {
	return l.tag(l.logger.Debug())
}

// Info returns an info level event
func (l *AdapterLogger) Info() IEvent {
	return l.tag(l.logger.Info())
}

// Warn returns a warn level event
func (l *AdapterLogger) Warn() IEvent {
	return l.tag(l.logger.Warn())
}

// Error returns an error level event
func (l *AdapterLogger) Error() IEvent {
	return l.tag(l.logger.Error())
}

// Fatal returns a fatal level event
func (l *AdapterLogger) Fatal() IEvent {
	return l.tag(l.logger.Fatal())
}

// SetLevel sets the log level
func (l *AdapterLogger) SetLevel(level Level) {
	l.logger.SetLevel(level)
}

// GetLevel returns the current log level
func (l *AdapterLogger) GetLevel() Level {
	return l.logger.GetLevel()
}
