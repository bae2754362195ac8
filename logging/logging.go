package logging

import (
	"fmt"
	"log"
	"os"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a level name to its Level, defaulting to info.
func ParseLevel(name string) Level {
	switch name {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the structured logging interface used across the storefront.
// Implementations can sit on top of any logging library.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With creates a new logger with the given fields pre-populated.
	With(fields ...Field) Logger
}

// Field is a structured key-value pair attached to a log message.
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand constructor for Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func String(key, value string) Field             { return Field{key, value} }
func Int(key string, value int) Field            { return Field{key, value} }
func Int64(key string, value int64) Field        { return Field{key, value} }
func Bool(key string, value bool) Field          { return Field{key, value} }
func Error(err error) Field                      { return Field{"error", err} }
func Duration(key string, d time.Duration) Field { return Field{key, d} }
func Any(key string, value interface{}) Field    { return Field{key, value} }

// DefaultLogger writes formatted lines through the standard log package.
type DefaultLogger struct {
	logger   *log.Logger
	minLevel Level
	fields   []Field
}

// NewDefaultLogger creates a logger writing to stdout with the given minimum level.
func NewDefaultLogger(minLevel Level) *DefaultLogger {
	return &DefaultLogger{
		logger:   log.New(os.Stdout, "", log.LstdFlags),
		minLevel: minLevel,
	}
}

func (l *DefaultLogger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields...) }
func (l *DefaultLogger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields...) }
func (l *DefaultLogger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields...) }
func (l *DefaultLogger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields...) }

func (l *DefaultLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &DefaultLogger{
		logger:   l.logger,
		minLevel: l.minLevel,
		fields:   merged,
	}
}

func (l *DefaultLogger) log(level Level, msg string, fields ...Field) {
	if level < l.minLevel {
		return
	}
	all := make([]Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)

	formatted := fmt.Sprintf("[%s] %s", level.String(), msg)
	if len(all) > 0 {
		formatted += " |"
		for _, f := range all {
			formatted += fmt.Sprintf(" %s=%v", f.Key, f.Value)
		}
	}
	l.logger.Println(formatted)
}

// NoopLogger discards everything. Useful in tests.
type NoopLogger struct{}

func (NoopLogger) Debug(msg string, fields ...Field) {}
func (NoopLogger) Info(msg string, fields ...Field)  {}
func (NoopLogger) Warn(msg string, fields ...Field)  {}
func (NoopLogger) Error(msg string, fields ...Field) {}
func (n NoopLogger) With(fields ...Field) Logger     { return n }

var defaultLogger Logger = NewDefaultLogger(LevelInfo)

// SetDefault replaces the package-level logger. Nil is ignored.
func SetDefault(logger Logger) {
	if logger == nil {
		return
	}
	defaultLogger = logger
}

// Default returns the package-level logger.
func Default() Logger {
	return defaultLogger
}

func Debug(msg string, fields ...Field) { defaultLogger.Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { defaultLogger.Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { defaultLogger.Warn(msg, fields...) }
func LogError(msg string, fields ...Field) {
	defaultLogger.Error(msg, fields...)
}
