package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log     = zerolog.New(os.Stderr).With().Timestamp().Logger()
	logFile *lumberjack.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// Init sets up the global logger: console output on stderr plus a rotated
// log file when logFilePath is not empty.
func Init(logFilePath, level string) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	zerolog.SetGlobalLevel(lvl)

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}}
	if logFilePath != "" {
		logFile = &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		writers = append(writers, logFile)
	}

	log = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return nil
}

// RotateLog starts a fresh log file, keeping the previous one as a backup
func RotateLog() error {
	if logFile == nil {
		return nil
	}
	return logFile.Rotate()
}

// Cleanup closes the log file when the application is done using it
func Cleanup() {
	if logFile != nil {
		logFile.Close()
	}
}

// Logger returns the global logger
func Logger() zerolog.Logger {
	return log
}

// Component returns a child logger tagged with the component name
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// Info logs an informational message
func Info(msg string) {
	log.Info().Msg(msg)
}

// Error logs an error message
func Error(err error, msg string) {
	log.Error().Stack().Err(err).Msg(msg)
}
