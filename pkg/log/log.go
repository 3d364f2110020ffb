// Package log is a thin wrapper around logrus used by every smtswitch
// component.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Params are key values attached to a logger.
type Params map[string]interface{}

// Config selects the level and format of a Logger.
type Config struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// Logger for logging
type Logger struct {
	entry *logrus.Entry
}

// NewLogger instantiates a logger based on the config. An unparsable level
// falls back to info.
func NewLogger(c Config) *Logger {
	l := logrus.New()
	if c.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	if c.Output != nil {
		l.SetOutput(c.Output)
	} else {
		l.SetOutput(os.Stderr)
	}
	logger := &Logger{entry: logrus.NewEntry(l)}
	logger.SetLevel(c.Level)
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return &Logger{entry: logrus.NewEntry(l)}
}

// With returns a logger initialized with the parameters
func (l *Logger) With(params Params) *Logger {
	fields := logrus.Fields{}
	for k, v := range params {
		fields[k] = v
	}
	return &Logger{entry: l.entry.WithFields(fields)}
}

// SetLevel sets the level of the logger
func (l *Logger) SetLevel(level string) {
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.entry.Logger.SetLevel(parsed)
}

// Enabled reports whether messages at level would be emitted.
func (l *Logger) Enabled(level logrus.Level) bool {
	return l.entry.Logger.IsLevelEnabled(level)
}

func (l *Logger) DebugEnabled() bool { return l.Enabled(logrus.DebugLevel) }

func (l *Logger) Trace(s string) { l.entry.Trace(s) }
func (l *Logger) Debug(s string) { l.entry.Debug(s) }
func (l *Logger) Info(s string)  { l.entry.Info(s) }
func (l *Logger) Warn(s string)  { l.entry.Warn(s) }
func (l *Logger) Error(s string) { l.entry.Error(s) }
