package ratelimit

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vidtube/api/internal/util"
)

// Middleware rejects a request with 429 once key(r) exceeds its limit.
// Limiter failures are logged and the request is let through.
func Middleware(l Limiter, key func(*http.Request) string, onLimited func(*http.Request), logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), key(r))
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				if onLimited != nil {
					onLimited(r)
				}
				w.Header().Set("Retry-After", "60")
				util.WriteError(w, http.StatusTooManyRequests, util.CodeTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
