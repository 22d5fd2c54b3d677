package observability

import (
	"io"
	"log/slog"
	"strings"

	"github.com/pavel242242/gd-hackathon-2024/pkg/config"
)

// ServiceName tags every log line and metric emitted by the dashboard.
const ServiceName = "gdboard"

// NewLogger builds a text or JSON slog logger from cfg, tagged with the
// service name and target host.
func NewLogger(cfg config.Config, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}
	var handler slog.Handler
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}
	return slog.New(handler).With(
		slog.String("service", ServiceName),
		slog.String("host", cfg.Host),
	)
}

// ParseLevel maps a config level name to slog, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
