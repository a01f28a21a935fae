package http

import (
	"context"
	"time"

	"github.com/todo-api-nosql/internal/application/auth"
	"github.com/todo-api-nosql/internal/application/notification"
	"github.com/todo-api-nosql/internal/application/registration"
	"github.com/todo-api-nosql/internal/application/todo"
	"github.com/todo-api-nosql/internal/application/user"
	"github.com/todo-api-nosql/internal/domain"
	jwtinfra "github.com/todo-api-nosql/internal/infrastructure/jwt"
	"github.com/todo-api-nosql/internal/infrastructure/smtp"
	"github.com/todo-api-nosql/internal/infrastructure/sns"
	"github.com/todo-api-nosql/internal/transport/http/middleware"
)

// UserStore is implemented by dynamo.UserRepo and memory.UserStore.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Delete(ctx context.Context, u *domain.User) error
}

// RegistrationStore holds pending registrations keyed by normalized email.
type RegistrationStore interface {
	Put(ctx context.Context, p *domain.PendingRegistration) error
	Get(ctx context.Context, email string) (*domain.PendingRegistration, error)
	Delete(ctx context.Context, email string) error
	IncrementAttempts(ctx context.Context, email string) (int, error)
	MarkVerified(ctx context.Context, email, code string) error
	ResetVerified(ctx context.Context, email string) error
	Reissue(ctx context.Context, email, code string, expiresAt int64, now time.Time) error
	ListExpired(ctx context.Context, now time.Time) ([]string, error)
}

type TodoStore interface {
	Put(ctx context.Context, t *domain.Todo) error
	Get(ctx context.Context, todoID string) (*domain.Todo, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Todo, error)
	Update(ctx context.Context, todoID string, updates map[string]interface{}) (*domain.Todo, error)
	Delete(ctx context.Context, todoID string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// Archiver stores JSON snapshots, implemented by s3infra.Store.
type Archiver interface {
	PutJSON(ctx context.Context, key string, body []byte) (string, error)
}

type TokenProvider interface {
	Sign(userID, role string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

// Deps holds all infrastructure dependencies for the router.
// Publisher, Archiver, AuthLimiter and HealthCheck are optional.
type Deps struct {
	Users         UserStore
	Registrations RegistrationStore
	Todos         TodoStore
	Mailer        smtp.Mailer
	Publisher     sns.EventPublisher
	Archiver      Archiver
	Tokens        TokenProvider
	Counters      middleware.CounterStore
	AuthLimiter   *middleware.RateLimiter
	HealthCheck   func(ctx context.Context) error
	AppName       string
	AdminEmails   []string
}

// Services are the application services built from Deps.
type Services struct {
	Registration registration.Service
	Auth         auth.Service
	Todo         todo.Service
	User         user.Service
}

func NewServices(deps *Deps) *Services {
	appName := deps.AppName
	if appName == "" {
		appName = "Todo App"
	}
	notifier := notification.NewService(notification.ServiceDeps{
		Mailer:    deps.Mailer,
		Publisher: deps.Publisher,
		AppName:   appName,
		CodeTTL:   registration.CodeTTL,
	})
	return &Services{
		Registration: registration.NewService(registration.ServiceDeps{
			Registrations: deps.Registrations,
			Users:         deps.Users,
			Notifier:      notifier,
			Signer:        deps.Tokens,
			AdminEmails:   deps.AdminEmails,
		}),
		Auth: auth.NewService(auth.ServiceDeps{Users: deps.Users, Tokens: deps.Tokens}),
		Todo: todo.NewService(deps.Todos),
		User: user.NewService(user.ServiceDeps{Users: deps.Users, Todos: deps.Todos, Archiver: deps.Archiver}),
	}
}
