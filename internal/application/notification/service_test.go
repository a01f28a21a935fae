package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/todo-api-nosql/internal/domain"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	return m.Called(ctx, eventType, payload).Error(0)
}

func TestSendVerificationCode_RendersCode(t *testing.T) {
	mailer := new(mockMailer)
	mailer.On("SendEmail", mock.Anything, "a@b.com", "Your Todo App verification code",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "012345") &&
				strings.Contains(body, "10 minutes") &&
				strings.Contains(body, "Al &lt;3")
		})).Return(nil)

	svc := NewService(ServiceDeps{Mailer: mailer, AppName: "Todo App", CodeTTL: 10 * time.Minute})
	require.NoError(t, svc.SendVerificationCode(context.Background(), "a@b.com", "Al <3", "012345"))
	mailer.AssertExpectations(t)
}

func TestSendVerificationCode_FailureIsDeliveryError(t *testing.T) {
	mailer := new(mockMailer)
	mailer.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection refused"))

	svc := NewService(ServiceDeps{Mailer: mailer, AppName: "Todo App", CodeTTL: 10 * time.Minute})
	err := svc.SendVerificationCode(context.Background(), "a@b.com", "Al", "123456")
	assert.ErrorIs(t, err, domain.ErrDelivery)
	assert.ErrorContains(t, err, "connection refused")
}

func TestAnnounceRegistration(t *testing.T) {
	pub := new(mockPublisher)
	u := &domain.User{UserID: "u1", Email: "a@b.com", Name: "Al"}
	pub.On("Publish", mock.Anything, EventUserRegistered, registeredEvent{UserID: "u1", Email: "a@b.com", Name: "Al"}).Return(nil)

	svc := NewService(ServiceDeps{Publisher: pub})
	require.NoError(t, svc.AnnounceRegistration(context.Background(), u))
	pub.AssertExpectations(t)
}

func TestAnnounceRegistration_NoPublisher(t *testing.T) {
	svc := NewService(ServiceDeps{})
	assert.NoError(t, svc.AnnounceRegistration(context.Background(), &domain.User{UserID: "u1"}))
}
