package observability

import (
	"io"
	"log/slog"
	"strings"
)

// SetupLogger configures a JSON slog logger tagged with service and env.
// Debug is enabled in dev unless level says otherwise; an unknown level
// falls back to info.
func SetupLogger(out io.Writer, service, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if env == "dev" {
		opts.Level = slog.LevelDebug
	}
	if level != "" {
		var lv slog.Level
		if err := lv.UnmarshalText([]byte(strings.ToUpper(level))); err == nil {
			opts.Level = lv
		}
	}

	h := slog.NewJSONHandler(out, opts)
	return slog.New(h).With(
		slog.String("service", service),
		slog.String("env", env),
	)
}
