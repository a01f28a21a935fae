package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/todo-api-nosql/internal/domain"
	"github.com/todo-api-nosql/internal/transport/http/middleware"
)

type response struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Token      string          `json:"token"`
	RetryAfter int             `json:"retryAfter"`
	Error      string          `json:"error"`
}

func serve(t *testing.T, h http.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var body response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return rr, body
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func newAuthHandler() (*AuthHandler, *mockRegistrationService, *mockAuthService, *mockUserService) {
	reg, authSvc, users := new(mockRegistrationService), new(mockAuthService), new(mockUserService)
	return NewAuthHandler(reg, authSvc, users), reg, authSvc, users
}

func TestRegister_Success(t *testing.T) {
	h, reg, _, _ := newAuthHandler()
	want := domain.RegisterRequest{Name: "Jane", Email: "Jane@X.com", Password: "Passw0rd1"}
	reg.On("RequestRegistration", mock.Anything, want).Return("jane@x.com", nil)

	rr, body := serve(t, h.Register, jsonRequest(http.MethodPost, "/api/auth/register",
		`{"name":"Jane","email":"Jane@X.com","password":"Passw0rd1"}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, body.Success)
	assert.JSONEq(t, `{"email":"jane@x.com"}`, string(body.Data))
	reg.AssertExpectations(t)
}

func TestRegister_MalformedBody(t *testing.T) {
	h, reg, _, _ := newAuthHandler()

	rr, body := serve(t, h.Register, jsonRequest(http.MethodPost, "/api/auth/register", `{"name":`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Invalid request body", body.Message)
	reg.AssertNotCalled(t, "RequestRegistration", mock.Anything, mock.Anything)
}

func TestRegister_ValidationMessage(t *testing.T) {
	h, reg, _, _ := newAuthHandler()
	reg.On("RequestRegistration", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("password must be at least 6 characters: %w", domain.ErrValidation))

	rr, body := serve(t, h.Register, jsonRequest(http.MethodPost, "/", `{"name":"Jane","email":"jane@x.com","password":"abc"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Password must be at least 6 characters", body.Message)
}

func TestRegister_ConflictIs400(t *testing.T) {
	h, reg, _, _ := newAuthHandler()
	reg.On("RequestRegistration", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("email already registered: %w", domain.ErrConflict))

	rr, body := serve(t, h.Register, jsonRequest(http.MethodPost, "/", `{}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Email already registered", body.Message)
}

func TestRegister_DeliveryFailureHidesDetailOutsideDebug(t *testing.T) {
	h, reg, _, _ := newAuthHandler()
	reg.On("RequestRegistration", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("dial tcp: refused: %w", domain.ErrDelivery))

	rr, body := serve(t, h.Register, jsonRequest(http.MethodPost, "/", `{}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Failed to send verification email", body.Message)
	assert.Empty(t, body.Error)

	debug := middleware.Debug(true)(http.HandlerFunc(h.Register))
	rr, body = serve(t, debug.ServeHTTP, jsonRequest(http.MethodPost, "/", `{}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, body.Error, "dial tcp")
}

func TestVerifyOTP_Created(t *testing.T) {
	h, reg, _, _ := newAuthHandler()
	u := &domain.User{UserID: "01HZX", Name: "Jane", Email: "jane@x.com", Role: domain.RoleUser, Active: true}
	reg.On("VerifyCode", mock.Anything, domain.VerifyCodeRequest{Email: "jane@x.com", OTP: "123456"}).
		Return(u, "signed.jwt", nil)

	rr, body := serve(t, h.VerifyOTP, jsonRequest(http.MethodPost, "/", `{"email":"jane@x.com","otp":"123456"}`))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, body.Success)
	assert.Equal(t, "signed.jwt", body.Token)
	assert.Contains(t, string(body.Data), `"id":"01HZX"`)
	assert.NotContains(t, string(body.Data), "password")
}

func TestVerifyOTP_MismatchReportsRemaining(t *testing.T) {
	h, reg, _, _ := newAuthHandler()
	reg.On("VerifyCode", mock.Anything, mock.Anything).Return(nil, "", &domain.MismatchError{Remaining: 2})

	rr, body := serve(t, h.VerifyOTP, jsonRequest(http.MethodPost, "/", `{"email":"jane@x.com","otp":"000000"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid verification code, 2 attempts remaining", body.Message)
}

func TestVerifyOTP_OTPErrorsAre400(t *testing.T) {
	for _, sentinel := range []error{domain.ErrCodeExpired, domain.ErrTooManyAttempts} {
		h, reg, _, _ := newAuthHandler()
		reg.On("VerifyCode", mock.Anything, mock.Anything).Return(nil, "", fmt.Errorf("register again: %w", sentinel))

		rr, _ := serve(t, h.VerifyOTP, jsonRequest(http.MethodPost, "/", `{}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code, sentinel.Error())
	}
}

func TestResendOTP_RateLimited(t *testing.T) {
	h, reg, _, _ := newAuthHandler()
	reg.On("ResendCode", mock.Anything, domain.ResendCodeRequest{Email: "jane@x.com"}).
		Return(&domain.RateLimitError{RetryAfter: 41500 * time.Millisecond})

	rr, body := serve(t, h.ResendOTP, jsonRequest(http.MethodPost, "/", `{"email":"jane@x.com"}`))

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, 42, body.RetryAfter)
	assert.Contains(t, body.Message, "Please wait")
}

func TestResendOTP_NotFound(t *testing.T) {
	h, reg, _, _ := newAuthHandler()
	reg.On("ResendCode", mock.Anything, mock.Anything).
		Return(fmt.Errorf("no pending registration for this email: %w", domain.ErrNotFound))

	rr, body := serve(t, h.ResendOTP, jsonRequest(http.MethodPost, "/", `{"email":"jane@x.com"}`))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "No pending registration for this email", body.Message)
}

func TestLogin(t *testing.T) {
	h, _, authSvc, _ := newAuthHandler()
	u := &domain.User{UserID: "01HZX", Email: "jane@x.com", Role: domain.RoleUser, Active: true}
	authSvc.On("Login", mock.Anything, domain.LoginRequest{Email: "jane@x.com", Password: "Passw0rd1"}).Return(u, "tok", nil)
	authSvc.On("Login", mock.Anything, domain.LoginRequest{Email: "jane@x.com", Password: "wrong"}).
		Return(nil, "", fmt.Errorf("invalid email or password: %w", domain.ErrInvalidCredentials))

	rr, body := serve(t, h.Login, jsonRequest(http.MethodPost, "/", `{"email":"jane@x.com","password":"Passw0rd1"}`))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tok", body.Token)

	rr, body = serve(t, h.Login, jsonRequest(http.MethodPost, "/", `{"email":"jane@x.com","password":"wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid email or password", body.Message)
}

func TestMe(t *testing.T) {
	h, _, _, users := newAuthHandler()
	users.On("Get", mock.Anything, "01HZX").Return(&domain.User{UserID: "01HZX", Name: "Jane"}, nil)

	rr, _ := serve(t, h.Me, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), domain.Principal{UserID: "01HZX", Role: domain.RoleUser}))
	rr, body := serve(t, h.Me, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, string(body.Data), `"name":"Jane"`)
}

func TestHTTPError_InternalIsGeneric(t *testing.T) {
	h, _, authSvc, _ := newAuthHandler()
	authSvc.On("Login", mock.Anything, mock.Anything).Return(nil, "", errors.New("dynamodb: connection reset"))

	rr, body := serve(t, h.Login, jsonRequest(http.MethodPost, "/", `{}`))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal server error", body.Message)
	assert.Empty(t, body.Error)
}
