// Package logging sets up Flowgger's structured logger. It mirrors the
// level vocabulary and service-scoped logging used elsewhere in the
// codebase this was adapted from, but logs structured fields through
// zerolog instead of hand-formatted strings so the framing/decode
// error taxonomy (spec.md §7) stays queryable.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. Output goes to w (os.Stderr in
// production); a nil w defaults to os.Stderr. Console-friendly color
// formatting is used when w is a terminal, matching the spirit of the
// ANSI console logger this replaces, but the structured fields survive
// underneath.
func New(w io.Writer, component string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var out io.Writer = w
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		out = zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339}
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(out).With().Timestamp().Str("component", component).Logger()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
