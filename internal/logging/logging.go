// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

// Package logging builds the zerolog loggers used by the control process.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a timestamped logger writing to out.
// Terminals get the colored console format, anything else gets JSON lines.
func New(level string, out *os.File) zerolog.Logger {
	var w io.Writer = out
	if term.IsTerminal(int(out.Fd())) {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}
	return NewWithWriter(level, w)
}

// NewWithWriter returns a timestamped logger writing JSON lines to w
func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// LineSink returns a callback that logs every inbound controller line at
// info level, tagged with source=controller.
func LineSink(l zerolog.Logger) func(line string) {
	ctrl := l.With().Str("source", "controller").Logger()
	return func(line string) {
		ctrl.Info().Msg(line)
	}
}
