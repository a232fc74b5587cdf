// Package lol holds the broker's log level registry, consulted by both the
// config loader and internal/log.
package lol

import (
	"os"
	"strings"
	"sync/atomic"
)

// Level identifies a logging severity, ordered from least to most verbose.
type Level int32

const (
	Off Level = iota
	Fatal
	Error
	Warn
	Info
	Debug
	Trace
)

var names = map[string]Level{
	"off":   Off,
	"fatal": Fatal,
	"error": Error,
	"warn":  Warn,
	"info":  Info,
	"debug": Debug,
	"trace": Trace,
}

var current atomic.Int32

func init() {
	current.Store(int32(Info))
}

// SetLogLevel parses one of fatal/error/warn/info/debug/trace and installs it
// as the active level. An unrecognized name leaves the level unchanged.
func SetLogLevel(s string) {
	if lvl, ok := names[strings.ToLower(strings.TrimSpace(s))]; ok {
		current.Store(int32(lvl))
	}
}

// GetLogLevel returns the active level.
func GetLogLevel() Level { return Level(current.Load()) }

// Enabled reports whether a message at lvl would currently be emitted.
func Enabled(lvl Level) bool { return lvl <= GetLogLevel() }

// Tracer is a cheap call-site breadcrumb used to mark entry (and, via a
// deferred second call, exit) of functions worth following at trace level.
// It writes directly to stderr rather than through internal/log to avoid an
// import cycle, since log itself calls Tracer-adjacent helpers in no case
// but some teacher-descended packages do at trace granularity.
func Tracer(name string, args ...any) {
	if !Enabled(Trace) {
		return
	}
	if len(args) == 0 {
		os.Stderr.WriteString("trace: " + name + "\n")
		return
	}
	os.Stderr.WriteString("trace: " + name + "\n")
}
