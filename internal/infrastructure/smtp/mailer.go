package smtp

import (
	"context"
	"fmt"

	"github.com/todo-api-nosql/internal/config"
	"gopkg.in/gomail.v2"
)

// Mailer sends HTML emails.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer builds a gomail-backed Mailer. Authentication is only attempted
// when a username is configured (local catchers like MailHog accept none).
func NewMailer(cfg *config.Config) Mailer {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	if cfg.SMTPUsername == "" {
		d = &gomail.Dialer{Host: cfg.SMTPHost, Port: cfg.SMTPPort}
	}
	return &mailer{dialer: d, from: cfg.SMTPFrom}
}

func newMessage(from, to, subject, htmlBody string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return m
}

// SendEmail delivers one message. gomail dials with its own 10s timeout; the
// call returns early if ctx is cancelled first.
func (m *mailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := newMessage(m.from, to, subject, htmlBody)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
