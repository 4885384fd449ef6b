// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug  bool
	Pretty bool
}

// Init replaces the global zerolog logger. Call it once from main before any
// component logs.
func Init(conf Config) {
	log.Logger = New(os.Stdout, conf)
}

// New builds a logger writing to w.
func New(w io.Writer, conf Config) zerolog.Logger {
	if conf.Pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}

	l := zerolog.New(w).With().Timestamp().Logger()
	if conf.Debug {
		l = l.Level(zerolog.DebugLevel)
	} else {
		l = l.Level(zerolog.InfoLevel)
	}
	return l.With().Caller().Logger()
}
