package handler

import (
	"net/http"

	"github.com/todo-api-nosql/internal/application/auth"
	"github.com/todo-api-nosql/internal/application/registration"
	"github.com/todo-api-nosql/internal/application/user"
	"github.com/todo-api-nosql/internal/domain"
	"github.com/todo-api-nosql/internal/pkg/metrics"
	"github.com/todo-api-nosql/internal/transport/http/middleware"
)

type AuthHandler struct {
	registrations registration.Service
	auth          auth.Service
	users         user.Service
}

func NewAuthHandler(reg registration.Service, authSvc auth.Service, users user.Service) *AuthHandler {
	return &AuthHandler{registrations: reg, auth: authSvc, users: users}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	email, err := h.registrations.RequestRegistration(r.Context(), req)
	metrics.RegistrationSteps.WithLabelValues("request", metrics.Result(err)).Inc()
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, Envelope{
		Message: "Verification code sent to your email",
		Data:    map[string]string{"email": email},
	})
}

// VerifyOTP handles POST /auth/verify-otp and promotes the pending registration.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyCodeRequest
	if !decode(w, r, &req) {
		return
	}
	u, token, err := h.registrations.VerifyCode(r.Context(), req)
	metrics.RegistrationSteps.WithLabelValues("verify", metrics.Result(err)).Inc()
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, Envelope{
		Message: "Email verified, registration complete",
		Data:    u,
		Token:   token,
	})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendCodeRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.registrations.ResendCode(r.Context(), req)
	metrics.RegistrationSteps.WithLabelValues("resend", metrics.Result(err)).Inc()
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, Envelope{Message: "A new verification code has been sent"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	u, token, err := h.auth.Login(r.Context(), req)
	metrics.LoginAttempts.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, Envelope{Message: "Login successful", Data: u, Token: token})
}

// Me returns the authenticated caller's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	u, err := h.users.Get(r.Context(), p.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, Envelope{Data: u})
}
