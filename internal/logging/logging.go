// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the application logger: text records to stderr
// and to a size-rotated file under the log directory.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// FileName is the active log file inside the log directory.
	FileName = "app.log"

	maxSizeMB  = 1
	maxBackups = 3
)

// Options configures New.
type Options struct {
	// Dir holds the rotating log file. Empty disables file logging.
	Dir string
	// Level is the minimum level written to both sinks.
	Level slog.Level
	// Console receives records in addition to the file. Nil means stderr;
	// use io.Discard to silence it.
	Console io.Writer
}

// New returns a logger and a closer for its file sink. The closer must be
// called before exit to flush the rotating file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	w := console
	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		}
		w = io.MultiWriter(console, file)
		closer = file
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(h), closer, nil
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
