// Package logging builds the logrus logger shared by the CLI and the TUI.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const EnvDebug = "CTBOARD_DEBUG"

type Options struct {
	Debug bool
	// File, when set, receives JSON entries instead of Out. The TUI always
	// logs to a file so the alt screen stays clean.
	File string
	Out  io.Writer
}

// New returns the logger and a closer for the file sink, if any.
func New(opts Options) (*log.Logger, func() error, error) {
	l := log.New()
	closer := func() error { return nil }
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, closer, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, closer, err
		}
		l.SetOutput(f)
		l.SetFormatter(&log.JSONFormatter{})
		l.SetLevel(log.InfoLevel)
		closer = f.Close
	} else {
		out := opts.Out
		if out == nil {
			out = os.Stderr
		}
		l.SetOutput(out)
		l.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
		l.SetLevel(log.WarnLevel)
	}
	if opts.Debug || DebugFromEnv() {
		l.SetLevel(log.DebugLevel)
	}
	return l, closer, nil
}

// Discard drops everything; components fall back to it when given no
// logger.
func Discard() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func DebugFromEnv() bool {
	v := strings.TrimSpace(os.Getenv(EnvDebug))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
