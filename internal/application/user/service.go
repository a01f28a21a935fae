package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/todo-api-nosql/internal/domain"
	"github.com/todo-api-nosql/internal/pkg/id"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
	GrantAdmin(ctx context.Context, email string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Delete(ctx context.Context, u *domain.User) error
}

type todoStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Todo, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

type archiver interface {
	PutJSON(ctx context.Context, key string, body []byte) (string, error)
}

type service struct {
	users    userStore
	todos    todoStore
	archiver archiver
	now      func() time.Time
}

type ServiceDeps struct {
	Users    userStore
	Todos    todoStore
	Archiver archiver // optional
}

func NewService(deps ServiceDeps) Service {
	return &service{users: deps.Users, todos: deps.Todos, archiver: deps.Archiver, now: time.Now}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return u, err
}

// GrantAdmin gives an existing account the admin role. Accounts registered
// later with a configured admin email are promoted at verification instead.
func (s *service) GrantAdmin(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return err
	}
	if u.Role == domain.RoleAdmin {
		return nil
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{"role": domain.RoleAdmin}); err != nil {
		return err
	}
	slog.Info("granted admin role", "user_id", u.UserID)
	return nil
}

type archive struct {
	User       *domain.User  `json:"user"`
	Todos      []domain.Todo `json:"todos"`
	ArchivedAt time.Time     `json:"archived_at"`
}

// Delete removes a user and everything they own. Todos are archived first
// when an archiver is configured; an archive failure aborts the delete.
func (s *service) Delete(ctx context.Context, userID string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	if s.archiver != nil {
		todos, err := s.todos.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		body, err := json.Marshal(archive{User: u, Todos: todos, ArchivedAt: s.now().UTC()})
		if err != nil {
			return fmt.Errorf("marshal archive: %w", err)
		}
		uri, err := s.archiver.PutJSON(ctx, fmt.Sprintf("archives/%s/%s.json", userID, id.New()), body)
		if err != nil {
			return fmt.Errorf("archive todos: %w", err)
		}
		slog.Info("archived user todos", "user_id", userID, "count", len(todos), "uri", uri)
	}

	n, err := s.todos.DeleteByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete todos of %s: %w", userID, err)
	}
	if err := s.users.Delete(ctx, u); err != nil {
		return err
	}
	slog.Info("deleted user", "user_id", userID, "todos_deleted", n)
	return nil
}
