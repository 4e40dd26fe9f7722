package util

import (
	"io"
	"os"
	"strings"
	"time"

	stdlog "log"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Logger = zerolog.Logger

// LogLevel represents available log levels
type LogLevel = int

// Log levels
const (
	TraceLevel LogLevel = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Log output formats
const (
	TextFormat = "text"
	JSONFormat = "json"
)

// VerbosityLevels maps CLI verbosity 1 (error) through 5 (trace) to a LogLevel.
var VerbosityLevels = [5]LogLevel{ErrorLevel, WarnLevel, InfoLevel, DebugLevel, TraceLevel}

// LevelFromVerbosity clamps v into 1..5 and returns the matching LogLevel.
func LevelFromVerbosity(v int) LogLevel {
	v = max(1, min(v, 5))
	return VerbosityLevels[v-1]
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case TraceLevel:
		return zerolog.TraceLevel
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// InitializeLogger sets up the global logger writing to stdout.
func InitializeLogger(level LogLevel, format string) {
	InitializeLoggerWithWriter(level, format, os.Stdout)
}

// InitializeLoggerWithWriter sets up the global logger with the specified configuration
func InitializeLoggerWithWriter(level LogLevel, format string, out io.Writer) {
	// Set time format to ISO8601
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerologLevel(level))

	var output io.Writer = out
	if format != JSONFormat {
		// Console writer with nice formatting for terminal output
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if level == TraceLevel {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
	log.Debug().Msg("Logger initialized")
}

// GetLogger returns a configured logger for a specific component
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// zerologWriter wraps zerolog to implement io.Writer for stdlog
type zerologWriter struct {
	logger zerolog.Logger
	level  zerolog.Level
}

func (w zerologWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	w.logger.WithLevel(w.level).Msg(msg)

	return len(p), nil
}

// NewLogLogger returns a stdlog.Logger that routes to zerolog, for libraries
// such as net/http that only accept *log.Logger.
func NewLogLogger(component string, lvl LogLevel) *stdlog.Logger {
	logger := GetLogger(component)
	writer := zerologWriter{logger: logger, level: zerologLevel(lvl)}

	return stdlog.New(writer, "", 0)
}
