// Package logging builds the process-wide slog logger. Output is JSON on
// stdout, optionally teed into a size-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New. Zero rotation values select lumberjack's defaults
// except MaxSizeMB, which defaults to 10.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Stdout replaces os.Stdout. Tests set it.
	Stdout io.Writer
}

// ParseLevel maps a level name such as "debug" or "WARN" to a slog.Level.
// Unknown names select Info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// New returns the logger and a closer for the log file. The closer is a
// no-op when no file is configured.
func New(opts Options) (*slog.Logger, io.Closer) {
	var w io.Writer = os.Stdout
	if opts.Stdout != nil {
		w = opts.Stdout
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if opts.MaxSizeMB <= 0 {
			opts.MaxSizeMB = 10
		}
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(w, file)
		closer = file
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)}))
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
