package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/todo-api-nosql/internal/domain"
	"github.com/todo-api-nosql/internal/transport/http/middleware"
)

// errorClasses maps sentinels to status codes, first match wins.
var errorClasses = []struct {
	sentinel error
	status   int
	fallback string
}{
	{domain.ErrValidation, http.StatusBadRequest, "Validation failed"},
	{domain.ErrBadRequest, http.StatusBadRequest, "Bad request"},
	{domain.ErrConflict, http.StatusBadRequest, "Resource already exists"},
	{domain.ErrCodeExpired, http.StatusBadRequest, "Verification code expired"},
	{domain.ErrCodeMismatch, http.StatusBadRequest, "Invalid verification code"},
	{domain.ErrTooManyAttempts, http.StatusBadRequest, "Too many failed attempts"},
	{domain.ErrDelivery, http.StatusBadRequest, "Failed to send verification email"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{domain.ErrTokenExpired, http.StatusUnauthorized, "Token expired"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Authentication required"},
	{domain.ErrForbidden, http.StatusForbidden, "Access denied"},
	{domain.ErrNotFound, http.StatusNotFound, "Not found"},
	{domain.ErrRateLimited, http.StatusTooManyRequests, "Too many requests"},
}

// httpError maps a service error to a status code and failure envelope.
// Unrecognised errors become 500s; their text is only exposed to debug requests.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	var rl *domain.RateLimitError
	if errors.As(err, &rl) {
		writeJSON(w, http.StatusTooManyRequests, Envelope{
			Message:    capitalize(rl.Error()),
			RetryAfter: int(math.Ceil(rl.RetryAfter.Seconds())),
		})
		return
	}
	var me *domain.MismatchError
	if errors.As(err, &me) {
		writeError(w, http.StatusBadRequest, capitalize(me.Error()))
		return
	}
	delivery := errors.Is(err, domain.ErrDelivery)
	for _, c := range errorClasses {
		if errors.Is(err, c.sentinel) {
			msg := c.fallback
			if !delivery {
				msg = clientMessage(err, c.sentinel, c.fallback)
			}
			env := Envelope{Message: msg}
			if delivery && middleware.DebugFromContext(r.Context()) {
				env.Error = err.Error()
			}
			writeJSON(w, c.status, env)
			return
		}
	}

	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	env := Envelope{Message: "Internal server error"}
	if middleware.DebugFromContext(r.Context()) {
		env.Error = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, env)
}

// clientMessage strips the trailing sentinel text from a wrapped error,
// e.g. "text is required: validation failed" -> "Text is required".
func clientMessage(err, sentinel error, fallback string) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" || msg == sentinel.Error() {
		return fallback
	}
	return capitalize(msg)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
