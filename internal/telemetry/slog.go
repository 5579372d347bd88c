package telemetry

import (
	"log/slog"
	"os"
	"strings"
)

// parseLevel maps a configuration string to a slog level, defaulting to Info
// for empty or unrecognised values.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger installs the global slog default logger from the logging
// section of the application configuration.
//
// format "json" selects the JSON handler (machine readable, production);
// anything else selects the text handler (local development). level accepts
// "debug", "info", "warn", "error" case-insensitively and defaults to "info".
//
// Installing the configured handler as the slog default means the rest of
// the application logs through plain slog.Info/Warn/Error calls without
// threading a *slog.Logger through every constructor.
func SetupLogger(format, level string) {
	lvl := parseLevel(level)

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug, // file:line only when debugging
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialised", "format", format, "level", lvl.String())
}
