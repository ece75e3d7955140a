// Package log wraps a process-wide zerolog logger so every package logs
// through the same configured output and level.
package log

import (
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger     zerolog.Logger
	loggerLock sync.RWMutex
)

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.Kitchen,
	}).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

// Options controls the logger output.
type Options struct {
	Level       string
	Development bool
	// File enables a rotating JSON log file next to stdout output.
	File string
}

// Setup replaces the global logger according to opts.
func Setup(opts Options) {
	var console io.Writer
	if opts.Development {
		console = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.Kitchen,
		}
	} else {
		console = os.Stdout
	}

	output := console
	if opts.File != "" {
		output = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    64,
			MaxBackups: 8,
			MaxAge:     30,
			Compress:   true,
		})
	}

	loggerLock.Lock()
	logger = zerolog.New(output).
		Level(parseLogLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
	loggerLock.Unlock()
}

func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func current() *zerolog.Logger {
	loggerLock.RLock()
	defer loggerLock.RUnlock()
	l := logger
	return &l
}

// Debug logs a debug message
func Debug() *zerolog.Event {
	return current().Debug()
}

// Info logs an info message
func Info() *zerolog.Event {
	return current().Info()
}

// Warn logs a warning message
func Warn() *zerolog.Event {
	return current().Warn()
}

// Error logs an error message
func Error() *zerolog.Event {
	return current().Error()
}

// Fatal logs a fatal message and exits
func Fatal() *zerolog.Event {
	return current().Fatal()
}

// Logger returns the underlying zerolog.Logger for integrations
func Logger() zerolog.Logger {
	return *current()
}

type zerologWriter struct {
	logger zerolog.Logger
}

func (w zerologWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSuffix(string(p), "\n")
	w.logger.Warn().Msg(msg)
	return len(p), nil
}

// StdErrorLogger returns a standard library *log.Logger that writes to zerolog
// at warn level. Used as http.Server.ErrorLog.
func StdErrorLogger() *stdlog.Logger {
	return stdlog.New(zerologWriter{logger: Logger()}, "", 0)
}
