package auth

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/vidtube/api/internal/util"
)

type ctxKey struct{}

// WithClaims returns a context carrying the viewer's claims.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// ClaimsFrom returns the viewer's claims, or nil for an anonymous request.
func ClaimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(ctxKey{}).(*Claims)
	return c
}

// ViewerID returns the viewer's user id, or "" for an anonymous request.
func ViewerID(ctx context.Context) string {
	if c := ClaimsFrom(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// Identify attaches the bearer token's claims to the request. Requests without
// an Authorization header continue anonymously; a bad token is rejected.
func Identify(v *Validator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := v.Validate(header)
			if err != nil {
				logger.Debug("rejected bearer token", zap.Error(err))
				util.WriteError(w, http.StatusUnauthorized, util.CodeUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireViewer rejects anonymous requests.
func RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ViewerID(r.Context()) == "" {
			util.WriteError(w, http.StatusUnauthorized, util.CodeUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
