// Package logging builds the operational logger. Report lines never go
// through it: they are written by the tap sink on stdout, while these logs
// go to stderr and, optionally, a JSON file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"

	"github.com/roach88/tappedout/internal/config"
)

// Logger is the operational logger with the resources it holds.
type Logger struct {
	*slog.Logger

	level *slog.LevelVar
	file  *os.File
}

// New builds a logger from cfg writing to w. When cfg.File is set, records
// are also appended to that file as JSON.
func New(cfg config.LogConfig, w io.Writer) (*Logger, error) {
	lvl, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	level := new(slog.LevelVar)
	level.Set(lvl)
	opts := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	switch cfg.Format {
	case "json":
		handlers = append(handlers, slog.NewJSONHandler(w, opts))
	case "text", "":
		handlers = append(handlers, slog.NewTextHandler(w, opts))
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	l := &Logger{level: level}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
	}

	if len(handlers) == 1 {
		l.Logger = slog.New(handlers[0])
	} else {
		l.Logger = slog.New(slogmulti.Fanout(handlers...))
	}
	return l, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		level:  new(slog.LevelVar),
	}
}

// SetLevel changes the level of every sink.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Level returns the current level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
