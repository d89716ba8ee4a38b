package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger
type Logger struct {
	zerolog.Logger
}

// New returns a JSON logger on stdout, or a console logger at debug level
// in development.
func New(serviceName string, environment string) *Logger {
	if environment == "development" {
		console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		l := NewWithWriter(serviceName, console)
		l.Logger = l.Logger.Level(zerolog.DebugLevel)
		return l
	}

	l := NewWithWriter(serviceName, os.Stdout)
	l.Logger = l.Logger.Level(zerolog.InfoLevel)
	return l
}

// NewWithWriter creates a logger writing JSON lines to w.
func NewWithWriter(serviceName string, w io.Writer) *Logger {
	return &Logger{
		Logger: zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger(),
	}
}

// Nop returns a logger that discards everything. Intended for tests.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

func (l *Logger) withStr(key, value string) *Logger {
	return &Logger{Logger: l.Logger.With().Str(key, value).Logger()}
}

// WithComponent tags entries with the emitting component.
func (l *Logger) WithComponent(component string) *Logger {
	return l.withStr("component", component)
}

// WithReportID tags entries with a finalized report's id.
func (l *Logger) WithReportID(reportID string) *Logger {
	return l.withStr("report_id", reportID)
}

// WithQueue tags entries with a broker queue name.
func (l *Logger) WithQueue(queue string) *Logger {
	return l.withStr("queue", queue)
}

// WithCorrelationID tags entries with an event correlation id.
func (l *Logger) WithCorrelationID(correlationID string) *Logger {
	return l.withStr("correlation_id", correlationID)
}
