package logger

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Config selects the level and output format of the service logger.
type Config struct {
	Level  string
	Format string
}

// New builds the service logger. Format "console" writes human readable
// lines, anything else writes JSON.
func New(cfg Config, serviceName string) *zerolog.Logger {
	return NewWithWriter(cfg, serviceName, os.Stdout)
}

func NewWithWriter(cfg Config, serviceName string, w io.Writer) *zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	return &logger
}

// HTTPMiddleware returns the request logging chain: it binds logger to the
// request context, tags every line with the request id and remote address and
// writes one access line per request.
func HTTPMiddleware(logger *zerolog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		hlog.NewHandler(*logger),
		hlog.RequestIDHandler("request_id", "X-Request-Id"),
		hlog.RemoteAddrHandler("ip"),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			event := hlog.FromRequest(r).Info()
			if status >= http.StatusInternalServerError {
				event = hlog.FromRequest(r).Error()
			} else if status >= http.StatusBadRequest {
				event = hlog.FromRequest(r).Warn()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("http_request")
		}),
	}
}
