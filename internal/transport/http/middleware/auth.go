package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/todo-api-nosql/internal/domain"
)

type contextKey string

const principalKey contextKey = "principal"

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Auth returns middleware that requires a valid bearer token and injects the
// caller's Principal into the request context.
func Auth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			u, err := a.Authenticate(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrTokenExpired):
				writeJSONError(w, http.StatusUnauthorized, "Token expired")
				return
			case errors.Is(err, domain.ErrInvalidToken):
				writeJSONError(w, http.StatusUnauthorized, "Invalid token")
				return
			case errors.Is(err, domain.ErrUnauthorized):
				writeJSONError(w, http.StatusUnauthorized, "User not found")
				return
			default:
				slog.Error("authenticate request", "err", err)
				writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			ctx := WithPrincipal(r.Context(), domain.Principal{UserID: u.UserID, Role: u.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}
