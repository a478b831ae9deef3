// Package logging builds the slog loggers used by the roomlink commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config configures operational logging.
type Config struct {
	// Level is one of debug, info, warn, error (default: info).
	Level string `yaml:"level"`

	// Format is text or json (default: text).
	Format string `yaml:"format"`

	// File additionally writes the log to a rotating file (optional).
	File string `yaml:"file"`

	// MaxSizeMB is the size at which File is rotated (default: 10).
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept (default: 3).
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays removes rotated files older than this (0 keeps them).
	MaxAgeDays int `yaml:"max_age_days"`

	// Compress gzips rotated files.
	Compress bool `yaml:"compress"`
}

// ParseLevel parses a level name (case-insensitive). The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s (use: debug, info, warn, error)", s)
	}
}

// New returns a logger writing to console and, if configured, to a rotating
// file. Close the returned io.Closer on exit.
func New(cfg Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	w := console
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		w = io.MultiWriter(console, rotating)
		closer = rotating
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, nil, fmt.Errorf("invalid log format: %s (use: text, json)", cfg.Format)
	}

	return slog.New(handler), closer, nil
}

// Rotating returns a size-rotated file writer, used for diagnostic captures.
func Rotating(path string, maxSizeMB, maxBackups int) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    orDefault(maxSizeMB, 10),
		MaxBackups: orDefault(maxBackups, 3),
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
