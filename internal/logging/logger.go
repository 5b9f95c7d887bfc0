// Package logging holds the process-wide zerolog logger
package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the level (trace..panic, disabled) and format (json or
// console). Output defaults to stderr.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

var current atomic.Pointer[zerolog.Logger]

func init() {
	Init(Config{})
}

// Init replaces the global logger
func Init(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	l := zerolog.New(out).With().Timestamp().Logger()
	current.Store(&l)
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "warning":
		return zerolog.WarnLevel
	case "disabled":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// With starts a child logger, e.g. one carrying the run id
func With() zerolog.Context { return current.Load().With() }

func Debug() *zerolog.Event { return current.Load().Debug() }
func Info() *zerolog.Event  { return current.Load().Info() }
func Warn() *zerolog.Event  { return current.Load().Warn() }
func Error() *zerolog.Event { return current.Load().Error() }

// Fatal logs and then exits with status 1
func Fatal() *zerolog.Event { return current.Load().Fatal() }
