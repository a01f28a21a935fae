package middleware

import (
	"context"
	"net/http"
)

const debugKey contextKey = "debug"

// Debug marks requests so that error responses may include internal details.
// Enable only in development.
func Debug(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), debugKey, true)))
		})
	}
}

func DebugFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(debugKey).(bool)
	return v
}
