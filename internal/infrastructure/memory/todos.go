package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/todo-api-nosql/internal/domain"
)

type TodoStore struct {
	mu    sync.Mutex
	todos map[string]domain.Todo
}

func NewTodoStore() *TodoStore {
	return &TodoStore{todos: map[string]domain.Todo{}}
}

func (s *TodoStore) Put(_ context.Context, t *domain.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos[t.TodoID] = *t
	return nil
}

func (s *TodoStore) Get(_ context.Context, todoID string) (*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[todoID]
	if !ok {
		return nil, fmt.Errorf("todo %s: %w", todoID, domain.ErrNotFound)
	}
	return &t, nil
}

func (s *TodoStore) ListByUser(_ context.Context, userID string) ([]domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Todo{}
	for _, t := range s.todos {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *TodoStore) Update(_ context.Context, todoID string, updates map[string]interface{}) (*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[todoID]
	if !ok {
		return nil, fmt.Errorf("todo %s: %w", todoID, domain.ErrNotFound)
	}
	for k, v := range updates {
		switch k {
		case "text":
			t.Text = v.(string)
		case "completed":
			t.Completed = v.(bool)
		case "due_date":
			t.DueDate = v.(string)
		case "priority":
			t.Priority = v.(string)
		case "category":
			t.Category = v.(string)
		default:
			return nil, fmt.Errorf("unsupported todo field %q", k)
		}
	}
	t.UpdatedAt = time.Now().UTC()
	s.todos[todoID] = t
	return &t, nil
}

func (s *TodoStore) Delete(_ context.Context, todoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.todos[todoID]; !ok {
		return fmt.Errorf("todo %s: %w", todoID, domain.ErrNotFound)
	}
	delete(s.todos, todoID)
	return nil
}

func (s *TodoStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, t := range s.todos {
		if t.UserID == userID {
			delete(s.todos, id)
			n++
		}
	}
	return n, nil
}
