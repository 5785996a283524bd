package middleware

import (
	"net/http"

	"webstore-be/internal/auth"
	"webstore-be/internal/logger"

	"go.uber.org/zap"
)

// Authenticate resolves the caller when a valid token is present and
// otherwise lets the request through anonymously.
func Authenticate(v *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := v.ResolveOptionalCaller(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := auth.WithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.CallerFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		if !caller.IsAdmin() {
			logger.FromCtx(r.Context()).Warn("admin route denied",
				zap.String("user_id", caller.UserID.String()),
				zap.String("path", r.URL.Path),
			)
			writeError(w, http.StatusForbidden, "Not authorized as admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}
