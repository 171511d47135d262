// Package logging wires zerolog the way the configuration file's
// log.path/log.level settings describe. The level numbering follows
// the source system's own convention (0=notset/trace, 10=debug,
// 20=info, 30=warn, 40=error, 50=critical) rather than zerolog's
// native scale, so a worker's [log] section needs no translation.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New opens (or creates) the log file at path and returns a Logger at
// the given spec-numbered level, also echoing to stderr.
func New(path string, level int) (zerolog.Logger, error) {
	var out io.Writer = os.Stderr

	if path != "" && path != "-" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, err
		}
		out = io.MultiWriter(os.Stderr, f)
	}

	zerolog.SetGlobalLevel(fromSpecLevel(level))
	return zerolog.New(out).With().Timestamp().Logger(), nil
}

// fromSpecLevel maps the 0/10/20/30/40/50 scale onto zerolog's levels.
func fromSpecLevel(level int) zerolog.Level {
	switch {
	case level <= 0:
		return zerolog.TraceLevel
	case level <= 10:
		return zerolog.DebugLevel
	case level <= 20:
		return zerolog.InfoLevel
	case level <= 30:
		return zerolog.WarnLevel
	case level <= 40:
		return zerolog.ErrorLevel
	default:
		return zerolog.FatalLevel
	}
}
