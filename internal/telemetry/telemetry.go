// Package telemetry wraps zerolog with the started/completed/error
// triplet every core operation logs.
package telemetry

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger: pretty console output to stderr when
// attached to a terminal, structured JSON otherwise. stdout is left
// untouched for the JSON-RPC stream.
func Init(level zerolog.Level) {
	if isTerminal(os.Stderr) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(level)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}

	return (fi.Mode() & os.ModeCharDevice) != 0
}

// Start logs the beginning of an operation and returns the start time to
// pass to End.
func Start(op string, fields map[string]string) time.Time {
	e := log.Info().Str("op", op)
	for k, v := range fields {
		e = e.Str(k, v)
	}

	e.Msg("started")

	return time.Now()
}

// End logs the successful completion of an operation.
func End(op string, start time.Time, count int) {
	log.Info().
		Str("op", op).
		Int("count", count).
		Dur("elapsed", time.Since(start)).
		Msg("completed")
}

// Fail logs a failure on the side channel (stderr); it never affects the
// caller's return value.
func Fail(op string, err error, msg string) {
	log.Error().
		Err(err).
		Str("op", op).
		Msg(msg)
}

// Warn logs a non-fatal warning, e.g. overload disambiguation.
func Warn(op string, msg string, fields map[string]string) {
	e := log.Warn().Str("op", op)
	for k, v := range fields {
		e = e.Str(k, v)
	}

	e.Msg(msg)
}
