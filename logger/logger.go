package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"ticker-board/config"
)

// ParseLevel maps a config level name to a slog level, unknown names map to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger builds the JSON logger. Records go to cfg.File when set,
// otherwise to fallback. The returned func closes the log file.
func SetupLogger(cfg config.LogConfig, fallback io.Writer) (*slog.Logger, func(), error) {
	options := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	if cfg.File == "" {
		return slog.New(slog.NewJSONHandler(fallback, options)), func() {}, nil
	}

	logDir := filepath.Dir(cfg.File)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	logFile, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
	}

	logger := slog.New(slog.NewJSONHandler(logFile, options))

	cleanup := func() {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
	}

	logger.Debug("Logger initialized", "logFile", cfg.File)
	return logger, cleanup, nil
}
