// Package logging provides leveled, field-carrying logging backed by logrus.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLogLevel parses a string into a LogLevel.
// Unknown names fall back to LogLevelInfo.
func ParseLogLevel(s string) LogLevel {
	level, _ := LookupLogLevel(s)
	return level
}

// LookupLogLevel parses a string into a LogLevel and reports whether the name was recognized.
func LookupLogLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, true
	case "info":
		return LogLevelInfo, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "error":
		return LogLevelError, true
	default:
		return LogLevelInfo, false
	}
}

// Format selects the logrus formatter.
type Format string

const (
	// FormatText renders key=value lines.
	FormatText Format = "text"
	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// Logger wraps a logrus entry with printf-style helpers.
type Logger struct {
	entry *logrus.Entry
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum log level to output.
	Level LogLevel
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Prefix is attached to every entry as the "app" field.
	Prefix string
	// Format selects text or JSON output. Defaults to text.
	Format Format
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  LogLevelInfo,
		Output: os.Stderr,
		Prefix: "cmdqueue",
		Format: FormatText,
	}
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	base := logrus.New()
	base.SetOutput(cfg.Output)
	base.SetLevel(cfg.Level.logrus())
	switch cfg.Format {
	case FormatJSON:
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}

	entry := logrus.NewEntry(base)
	if cfg.Prefix != "" {
		entry = entry.WithField("app", cfg.Prefix)
	}
	return &Logger{entry: entry}
}

// WithField returns a new logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a new logger with the given fields added.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// WithError returns a new logger carrying err in the "error" field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// SetLevel sets the minimum log level.
// Loggers derived with WithField share the level.
func (l *Logger) SetLevel(level LogLevel) {
	l.entry.Logger.SetLevel(level.logrus())
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return l.entry.Logger.IsLevelEnabled(level.logrus())
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(LogLevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.log(LogLevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(LogLevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.log(LogLevelError, msg, args...)
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.entry.Log(level.logrus(), msg)
}

// NullLogger is a logger that discards all output.
var NullLogger = NewLogger(LoggerConfig{Level: LogLevelError, Output: io.Discard})

var (
	appLogger     *Logger
	appLoggerOnce sync.Once
	appLoggerMu   sync.Mutex
)

// GetLogger returns the process-wide logger.
// Creates a default logger on first call if none was set.
func GetLogger() *Logger {
	appLoggerOnce.Do(func() {
		appLoggerMu.Lock()
		defer appLoggerMu.Unlock()
		if appLogger == nil {
			appLogger = NewLogger(DefaultLoggerConfig())
		}
	})
	appLoggerMu.Lock()
	defer appLoggerMu.Unlock()
	return appLogger
}

// SetLogger sets the process-wide logger.
// Should be called early in program startup.
func SetLogger(l *Logger) {
	appLoggerMu.Lock()
	defer appLoggerMu.Unlock()
	appLogger = l
}

// OrNull returns l, or NullLogger when l is nil.
func OrNull(l *Logger) *Logger {
	if l == nil {
		return NullLogger
	}
	return l
}
