// Package logging wraps a single logrus.Logger for the whole module.
// Components fetch Default() when they are constructed; a library
// consumer can redirect or silence our logging by calling SetDefault
// before constructing them, without environment variable tricks.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is a thin wrapper around *logrus.Logger. It exists mainly so
// callers outside this module see a small, stable surface instead of all
// of logrus.
type Logger struct {
	*logrus.Logger
}

var std = New(Options{})

// Options configures a Logger. The zero value produces a text-formatted
// logger at info level writing to stderr, matching logrus's own defaults.
type Options struct {
	Level  string // "debug", "info", "warn", "error"; default "info"
	Format string // "text" or "json"; default "text"
	Output io.Writer
}

// New builds a Logger from opts.
func New(opts Options) *Logger {
	l := logrus.New()
	l.SetOutput(resolveOutput(opts.Output))
	l.SetFormatter(resolveFormatter(opts.Format))
	l.SetLevel(resolveLevel(opts.Level))
	return &Logger{Logger: l}
}

func resolveOutput(w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return os.Stderr
}

func resolveFormatter(format string) logrus.Formatter {
	if strings.EqualFold(format, "json") {
		return &logrus.JSONFormatter{}
	}
	return &logrus.TextFormatter{FullTimestamp: true}
}

func resolveLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Default returns the package-wide logger, configured once from the
// process environment by internal/config at startup and otherwise left at
// its text/info defaults.
func Default() *Logger { return std }

// SetDefault replaces the package-wide logger, typically called once by
// internal/config.Load after reading WIP_LOG_LEVEL/WIP_LOG_FORMAT.
func SetDefault(l *Logger) { std = l }

// WithField and WithFields mirror logrus's convenience constructors so
// call sites read like plain logrus usage.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}
