// Package logging builds the zerolog loggers used across wftool.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level, format and optional file output.
type Config struct {
	Level  string
	Format string
	File   string
}

// Formats accepted by Config.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Result is the configured logger plus the file it writes to, if any.
type Result struct {
	Logger zerolog.Logger
	file   *os.File
}

// Close releases the log file handle.
func (r *Result) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// New builds a logger writing to stderr, or to cfg.File when set. An unknown
// level falls back to info.
func New(cfg Config, stderr io.Writer) (*Result, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	out := stderr
	res := &Result{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		res.file = f
		out = f
	}

	if !strings.EqualFold(cfg.Format, FormatJSON) && cfg.File == "" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	res.Logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return res, nil
}

// Component returns a sub-logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
