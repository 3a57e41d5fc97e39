package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// NewJSONLogger creates a new JSON logger
func NewJSONLogger(writer io.Writer, level Level) *JSONLogger {
	return &JSONLogger{
		writer: writer,
		level:  &levelVar{level: level},
		mu:     &sync.Mutex{},
	}
}

// NewFromEnv creates a logger writing to w at the level named by the
// LOG_LEVEL environment variable.
func NewFromEnv(w io.Writer) *JSONLogger {
	return NewJSONLogger(w, ParseLevel(os.Getenv("LOG_LEVEL")))
}

func (l *JSONLogger) log(level Level, msg string, fields ...Field) {
	if level < l.level.get() {
		return
	}

	entry := make(map[string]any, 3+len(l.fields)+len(fields))
	for _, f := range l.fields {
		entry[f.Key] = f.Value
	}
	for _, f := range fields {
		entry[f.Key] = f.Value
	}
	entry[TimeKey] = time.Now().UTC().Format(time.RFC3339Nano)
	entry[LevelKey] = level.String()
	entry[MessageKey] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		data = fmt.Appendf(nil, `{"level":"ERROR","msg":"unencodable log entry","error":%q}`, err.Error())
	}
	data = append(data, '\n')

	// children share the parent's mutex so lines never interleave
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write(data)
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields...) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields...) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields...) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields...) }

// With creates a child logger with the given fields pre-set
func (l *JSONLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &JSONLogger{
		writer: l.writer,
		level:  l.level,
		fields: merged,
		mu:     l.mu,
	}
}

// SetLevel sets the minimum log level for this logger and its children
func (l *JSONLogger) SetLevel(level Level) {
	l.level.set(level)
}

// GetLevel returns the current log level
func (l *JSONLogger) GetLevel() Level {
	return l.level.get()
}

var (
	defaultLogger Logger
	defaultMu     sync.RWMutex
	once          sync.Once
)

// DefaultLogger returns the global default logger. It writes to stderr so
// it never collides with command output on stdout.
func DefaultLogger() Logger {
	once.Do(func() {
		defaultMu.Lock()
		if defaultLogger == nil {
			defaultLogger = NewFromEnv(os.Stderr)
		}
		defaultMu.Unlock()
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger replaces the global default logger
func SetDefaultLogger(logger Logger) {
	once.Do(func() {})
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// Named returns a child of the default logger tagged with a component.
func Named(component string) Logger {
	return DefaultLogger().With(Component(component))
}

// OrNop returns logger, or a NopLogger when it is nil.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return NopLogger{}
	}
	return logger
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// Elapsed returns the time since the operation started.
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation at debug level with its duration
func (t *TimedOperation) End(fields ...Field) {
	all := append(append([]Field{}, t.fields...), fields...)
	t.logger.Debug(t.msg, append(all, Latency(t.Elapsed()))...)
}

// EndError logs the operation as a warning with its duration and error
func (t *TimedOperation) EndError(err error, fields ...Field) {
	all := append(append([]Field{}, t.fields...), fields...)
	t.logger.Warn(t.msg, append(all, Latency(t.Elapsed()), Error(err))...)
}
