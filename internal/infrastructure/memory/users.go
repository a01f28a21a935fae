// Package memory holds process-local stores with the same semantics as the
// DynamoDB repositories. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/todo-api-nosql/internal/domain"
)

type UserStore struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{byID: map[string]domain.User{}, byEmail: map[string]string{}}
}

func (s *UserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[u.Email]; taken {
		return fmt.Errorf("email %s: %w", u.Email, domain.ErrConflict)
	}
	if _, taken := s.byID[u.UserID]; taken {
		return fmt.Errorf("user %s: %w", u.UserID, domain.ErrConflict)
	}
	s.byID[u.UserID] = *u
	s.byEmail[u.Email] = u.UserID
	return nil
}

func (s *UserStore) Get(_ context.Context, userID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	id, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("email %s: %w", email, domain.ErrNotFound)
	}
	return s.Get(ctx, id)
}

func (s *UserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byEmail[email]
	return ok, nil
}

// Update supports the fields the services write: role and last_login_at.
func (s *UserStore) Update(_ context.Context, userID string, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	for k, v := range updates {
		switch k {
		case "role":
			u.Role = v.(string)
		case "last_login_at":
			t := v.(time.Time)
			u.LastLoginAt = &t
		default:
			return fmt.Errorf("unsupported user field %q", k)
		}
	}
	u.UpdatedAt = time.Now().UTC()
	s.byID[userID] = u
	return nil
}

func (s *UserStore) Delete(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.UserID]; !ok {
		return fmt.Errorf("user %s: %w", u.UserID, domain.ErrNotFound)
	}
	delete(s.byID, u.UserID)
	delete(s.byEmail, u.Email)
	return nil
}
