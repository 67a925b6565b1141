// Package logging configures the structured logger orc uses for its own
// diagnostic output — best-effort steps (plan-file writes, worktree
// creation) that don't fail a command but are worth surfacing to a
// --verbose caller, plus any internal warning not already carried by the
// event bus to task subscribers.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a console-formatted logger writing to w. Quiet mode floors
// the level at Warn so a non-verbose run still surfaces anything logged at
// Warn or above; --verbose lowers the floor to Debug.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: !isTerminal(w)}).
		Level(level).
		With().Timestamp().Str("component", "orc").Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
