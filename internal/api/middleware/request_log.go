package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	apiContext "spaces/internal/api/context"
)

// RequestLog attaches a request-scoped logger carrying a request id and
// writes one access log line per request. It also records the client address
// and user agent for audit entries.
func RequestLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := clientInfo(next)
		h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Stringer("url", r.URL).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		})(h)
		h = hlog.UserAgentHandler("user_agent")(h)
		h = hlog.RemoteAddrHandler("ip")(h)
		h = hlog.RequestIDHandler("request_id", "X-Request-Id")(h)
		return hlog.NewHandler(logger)(h)
	}
}

func clientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := apiContext.ClientInfo{IP: clientIP(r), UserAgent: r.UserAgent()}
		if info.UserAgent == "" {
			info.UserAgent = "unknown"
		}
		ctx := context.WithValue(r.Context(), apiContext.Client, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
