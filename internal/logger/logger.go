package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LevelFromString parses level name, unknown names fall back to info
func LevelFromString(s string) (l slog.Level, ok bool) {
	switch strings.ToLower(s) {
	case "debug", "dbg":
		return slog.LevelDebug, true
	case "info", "inf":
		return slog.LevelInfo, true
	case "warn", "wrn":
		return slog.LevelWarn, true
	case "error", "err":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New creates text logger writing to w
func New(w io.Writer, level string) *slog.Logger {
	loglevel, _ := LevelFromString(level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: loglevel}))
}

// Init sets default logger. Empty path means stderr.
// Returned closer must be called on exit.
func Init(path, level string) (io.Closer, error) {
	if path == "" {
		slog.SetDefault(New(os.Stderr, level))
		return io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create log directory")
	}
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log file")
	}
	slog.SetDefault(New(logFile, level))
	return logFile, nil
}
