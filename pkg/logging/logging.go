// Package logging re-exports pion/logging's leveled-logger factory under a
// single import path for the rest of the module, so every component
// constructs its logger the same way: a factory handed in at construction
// time, never a package-level global.
package logging

import "github.com/pion/logging"

// LeveledLogger is the per-component logger interface: Trace/Debug/Info/
// Warn/Error at both plain and formatted variants.
type LeveledLogger = logging.LeveledLogger

// LoggerFactory constructs a named LeveledLogger for a given scope (e.g.
// "node", "state", "crypto"). Debug-level logs trace stage-by-stage tick
// execution; warn-level logs trace dropped frames/events tagged with their
// error taxonomy kind.
type LoggerFactory = logging.LoggerFactory

// NewDefaultLoggerFactory returns pion/logging's default LoggerFactory,
// which writes to stderr at the Error level unless configured otherwise.
func NewDefaultLoggerFactory() LoggerFactory {
	return logging.NewDefaultLoggerFactory()
}

// NewNopFactory returns a LoggerFactory whose loggers discard everything,
// for tests and call sites that pass no factory.
func NewNopFactory() LoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = logging.LogLevelDisabled
	return f
}
