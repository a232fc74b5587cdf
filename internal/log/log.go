// Package log provides the broker's leveled logger. Each severity is a
// package-level singleton (F, E, W, I, D, T) so call sites read as
// log.E.F("...") the way the wider orly.dev tree does.
package log

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"crawlbroker.dev/internal/lol"
)

// Logger emits to stderr at a fixed severity, gated by lol's active level.
type Logger struct {
	level  lol.Level
	prefix string
	color  *color.Color
}

var (
	F = &Logger{lol.Fatal, "F", color.New(color.FgHiRed, color.Bold)}
	E = &Logger{lol.Error, "E", color.New(color.FgRed)}
	W = &Logger{lol.Warn, "W", color.New(color.FgYellow)}
	I = &Logger{lol.Info, "I", color.New(color.FgGreen)}
	D = &Logger{lol.Debug, "D", color.New(color.FgCyan)}
	T = &Logger{lol.Trace, "T", color.New(color.FgHiBlack)}
)

func (l *Logger) enabled() bool { return lol.Enabled(l.level) }

func (l *Logger) write(s string) {
	if !l.enabled() {
		return
	}
	ts := time.Now().UTC().Format("15:04:05.000")
	l.color.Fprintf(os.Stderr, "%s [%s] %s\n", ts, l.prefix, s)
	if l.level == lol.Fatal {
		os.Exit(1)
	}
}

// F formats and logs a message at this logger's level.
func (l *Logger) F(format string, a ...any) {
	if !l.enabled() {
		return
	}
	l.write(fmt.Sprintf(format, a...))
}

// Ln logs its arguments space-joined, matching fmt.Sprintln semantics minus
// the trailing newline (write adds one).
func (l *Logger) Ln(a ...any) {
	if !l.enabled() {
		return
	}
	s := fmt.Sprintln(a...)
	l.write(s[:len(s)-1])
}

// C lazily evaluates fn only if this logger's level is enabled, so an
// expensive message (e.g. one that formats a whole event) is never built
// when nothing will read it.
func (l *Logger) C(fn func() string) {
	if !l.enabled() {
		return
	}
	l.write(fn())
}

// Err logs s at this logger's level and returns it wrapped as an error, for
// call sites that need to both report and propagate a failure in one line.
func (l *Logger) Err(s string) error {
	l.write(s)
	return errors.New(s)
}
