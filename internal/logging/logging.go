package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the process-wide logger at the given level and installs it
// as the slog default. Unrecognized levels fall back to info. Subsystems
// derive their own loggers from the returned one via With("component", ...).
func Setup(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
	return logger
}
