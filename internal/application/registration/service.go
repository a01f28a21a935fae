package registration

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/todo-api-nosql/internal/domain"
	"github.com/todo-api-nosql/internal/pkg/code"
	"github.com/todo-api-nosql/internal/pkg/id"
	"github.com/todo-api-nosql/internal/pkg/validate"
	"go.uber.org/multierr"
	"golang.org/x/crypto/bcrypt"
)

const (
	CodeTTL        = 10 * time.Minute
	MaxAttempts    = 5
	ResendCooldown = 60 * time.Second

	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

type Service interface {
	RequestRegistration(ctx context.Context, req domain.RegisterRequest) (string, error)
	VerifyCode(ctx context.Context, req domain.VerifyCodeRequest) (*domain.User, string, error)
	ResendCode(ctx context.Context, req domain.ResendCodeRequest) error
	PurgeExpired(ctx context.Context) (int, error)
}

type registrationStore interface {
	Put(ctx context.Context, p *domain.PendingRegistration) error
	Get(ctx context.Context, email string) (*domain.PendingRegistration, error)
	Delete(ctx context.Context, email string) error
	IncrementAttempts(ctx context.Context, email string) (int, error)
	MarkVerified(ctx context.Context, email, code string) error
	ResetVerified(ctx context.Context, email string) error
	Reissue(ctx context.Context, email, code string, expiresAt int64, now time.Time) error
	ListExpired(ctx context.Context, now time.Time) ([]string, error)
}

type userStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *domain.User) error
}

type notifier interface {
	SendVerificationCode(ctx context.Context, email, name, code string) error
	AnnounceRegistration(ctx context.Context, u *domain.User) error
}

type tokenSigner interface {
	Sign(userID, role string) (string, error)
}

type service struct {
	registrations registrationStore
	users         userStore
	notifier      notifier
	signer        tokenSigner
	now           func() time.Time
	newCode       func() (string, error)
	bcryptCost    int
	admins        map[string]bool
}

type ServiceDeps struct {
	Registrations registrationStore
	Users         userStore
	Notifier      notifier
	Signer        tokenSigner
	// AdminEmails are promoted with the admin role instead of user.
	AdminEmails []string
	// Optional; default to time.Now, code.NewNumeric and bcrypt.DefaultCost.
	Now        func() time.Time
	NewCode    func() (string, error)
	BcryptCost int
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		registrations: deps.Registrations,
		users:         deps.Users,
		notifier:      deps.Notifier,
		signer:        deps.Signer,
		now:           deps.Now,
		newCode:       deps.NewCode,
		bcryptCost:    deps.BcryptCost,
		admins:        make(map[string]bool, len(deps.AdminEmails)),
	}
	for _, e := range deps.AdminEmails {
		s.admins[NormalizeEmail(e)] = true
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newCode == nil {
		s.newCode = code.NewNumeric
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = bcrypt.DefaultCost
	}
	return s
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) RequestRegistration(ctx context.Context, req domain.RegisterRequest) (string, error) {
	req.Email = NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return "", err
	}
	if len(req.Password) > MaxPasswordBytes {
		return "", fmt.Errorf("password must be at most %d bytes: %w", MaxPasswordBytes, domain.ErrValidation)
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}

	otp, err := s.newCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	p := &domain.PendingRegistration{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Code:         otp,
		ExpiresAt:    now.Add(CodeTTL).Unix(),
		CreatedAt:    now,
	}
	if err := s.registrations.Put(ctx, p); err != nil {
		return "", err
	}

	if err := s.notifier.SendVerificationCode(ctx, p.Email, p.Name, otp); err != nil {
		return "", deliveryError(err)
	}
	return p.Email, nil
}

func (s *service) VerifyCode(ctx context.Context, req domain.VerifyCodeRequest) (*domain.User, string, error) {
	req.Email = NormalizeEmail(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)
	if err := validate.Struct(req); err != nil {
		return nil, "", err
	}

	p, err := s.pending(ctx, req.Email)
	if err != nil {
		return nil, "", err
	}
	now := s.now()
	if p.Expired(now) {
		s.discard(ctx, p.Email)
		return nil, "", fmt.Errorf("request a new code: %w", domain.ErrCodeExpired)
	}
	if p.Attempts >= MaxAttempts {
		s.discard(ctx, p.Email)
		return nil, "", fmt.Errorf("register again: %w", domain.ErrTooManyAttempts)
	}

	if subtle.ConstantTimeCompare([]byte(p.Code), []byte(req.OTP)) != 1 {
		attempts, err := s.registrations.IncrementAttempts(ctx, p.Email)
		if err != nil {
			return nil, "", err
		}
		if attempts >= MaxAttempts {
			s.discard(ctx, p.Email)
			return nil, "", fmt.Errorf("register again: %w", domain.ErrTooManyAttempts)
		}
		return nil, "", &domain.MismatchError{Remaining: MaxAttempts - attempts}
	}

	// Only one caller can flip verified for a given code.
	if err := s.registrations.MarkVerified(ctx, p.Email, p.Code); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", fmt.Errorf("verification code already used: %w", domain.ErrNotFound)
		}
		return nil, "", err
	}

	created := now.UTC()
	role := domain.RoleUser
	if s.admins[p.Email] {
		role = domain.RoleAdmin
	}
	u := &domain.User{
		UserID:       id.New(),
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.discard(ctx, p.Email)
			return nil, "", fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		if rerr := s.registrations.ResetVerified(ctx, p.Email); rerr != nil {
			slog.Warn("failed to reset verified flag", "email", p.Email, "err", rerr)
		}
		return nil, "", err
	}

	s.discard(ctx, p.Email)
	if err := s.notifier.AnnounceRegistration(ctx, u); err != nil {
		slog.Warn("failed to announce registration", "user_id", u.UserID, "err", err)
	}

	token, err := s.signer.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) ResendCode(ctx context.Context, req domain.ResendCodeRequest) error {
	req.Email = NormalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return err
	}

	p, err := s.pending(ctx, req.Email)
	if err != nil {
		return err
	}
	now := s.now()
	if p.LastResendAt != nil {
		if elapsed := now.Sub(*p.LastResendAt); elapsed < ResendCooldown {
			return &domain.RateLimitError{RetryAfter: ResendCooldown - elapsed}
		}
	}

	otp, err := s.newCode()
	if err != nil {
		return err
	}
	if err := s.registrations.Reissue(ctx, p.Email, otp, now.Add(CodeTTL).Unix(), now.UTC()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errNoPending
		}
		return err
	}
	if err := s.notifier.SendVerificationCode(ctx, p.Email, p.Name, otp); err != nil {
		return deliveryError(err)
	}
	return nil
}

// PurgeExpired deletes every pending registration past its expiry and
// returns how many were removed.
func (s *service) PurgeExpired(ctx context.Context) (int, error) {
	emails, err := s.registrations.ListExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	var errs error
	purged := 0
	for _, email := range emails {
		if err := s.registrations.Delete(ctx, email); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete registration %s: %w", email, err))
			continue
		}
		purged++
	}
	return purged, errs
}

var errNoPending = fmt.Errorf("no pending registration for this email: %w", domain.ErrNotFound)

func (s *service) pending(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	p, err := s.registrations.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errNoPending
	}
	return p, err
}

func (s *service) discard(ctx context.Context, email string) {
	if err := s.registrations.Delete(ctx, email); err != nil {
		slog.Warn("failed to delete pending registration", "email", email, "err", err)
	}
}

func deliveryError(err error) error {
	if errors.Is(err, domain.ErrDelivery) {
		return err
	}
	return fmt.Errorf("%v: %w", err, domain.ErrDelivery)
}
