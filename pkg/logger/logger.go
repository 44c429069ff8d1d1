package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog behind the printf-style API the rest of the
// codebase logs through.
type Logger struct {
	zl zerolog.Logger
}

func New() *Logger {
	return NewWithLevel("info")
}

func NewWithLevel(level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zl := zerolog.New(out).Level(lvl).With().Timestamp().Logger()

	return &Logger{zl: zl}
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}
