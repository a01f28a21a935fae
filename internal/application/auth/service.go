package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/todo-api-nosql/internal/domain"
	jwtinfra "github.com/todo-api-nosql/internal/infrastructure/jwt"
	"github.com/todo-api-nosql/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type tokenProvider interface {
	Sign(userID, role string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type service struct {
	users  userStore
	tokens tokenProvider
	now    func() time.Time
}

type ServiceDeps struct {
	Users  userStore
	Tokens tokenProvider
	Now    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{users: deps.Users, tokens: deps.Tokens, now: deps.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, "", err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", fmt.Errorf("invalid email or password: %w", domain.ErrInvalidCredentials)
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", fmt.Errorf("invalid email or password: %w", domain.ErrInvalidCredentials)
	}
	if !u.Active {
		return nil, "", fmt.Errorf("account is deactivated: %w", domain.ErrForbidden)
	}

	now := s.now().UTC()
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{"last_login_at": now}); err != nil {
		slog.Warn("failed to record last login", "user_id", u.UserID, "err", err)
	} else {
		u.LastLoginAt = &now
	}

	token, err := s.tokens.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Authenticate resolves a bearer token to an active user. Token errors keep
// their ErrInvalidToken/ErrTokenExpired identity.
func (s *service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("user not found: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if !u.Active {
		return nil, fmt.Errorf("user not found: %w", domain.ErrUnauthorized)
	}
	return u, nil
}
