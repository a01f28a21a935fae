package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/todo-api-nosql/internal/domain"
)

const EventUserRegistered = "user.registered"

type Service interface {
	SendVerificationCode(ctx context.Context, email, name, code string) error
	AnnounceRegistration(ctx context.Context, u *domain.User) error
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

type service struct {
	mailer    mailer
	publisher publisher
	appName   string
	codeTTL   time.Duration
}

type ServiceDeps struct {
	Mailer    mailer
	Publisher publisher
	AppName   string
	CodeTTL   time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		mailer:    deps.Mailer,
		publisher: deps.Publisher,
		appName:   deps.AppName,
		codeTTL:   deps.CodeTTL,
	}
}

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Welcome to {{.AppName}}, {{.Name}}!</h2>
  <p>Use the code below to verify your email address:</p>
  <p style="font-size: 32px; font-weight: bold; letter-spacing: 8px;">{{.Code}}</p>
  <p>This code expires in {{.Minutes}} minutes.</p>
  <p style="font-size: 12px; color: #888;">If you did not create an account, you can safely ignore this email. Never share this code with anyone.</p>
</body>
</html>`))

func renderVerification(appName, name, code string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, struct {
		AppName, Name, Code string
		Minutes             int
	}{appName, name, code, int(ttl.Minutes())})
	return buf.String(), err
}

// SendVerificationCode emails the code. Any failure wraps domain.ErrDelivery.
func (s *service) SendVerificationCode(ctx context.Context, email, name, code string) error {
	body, err := renderVerification(s.appName, name, code, s.codeTTL)
	if err != nil {
		return fmt.Errorf("render verification email: %v: %w", err, domain.ErrDelivery)
	}
	subject := fmt.Sprintf("Your %s verification code", s.appName)
	if err := s.mailer.SendEmail(ctx, email, subject, body); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrDelivery)
	}
	return nil
}

type registeredEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *service) AnnounceRegistration(ctx context.Context, u *domain.User) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Publish(ctx, EventUserRegistered, registeredEvent{
		UserID:    u.UserID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	})
}
