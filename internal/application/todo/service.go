package todo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/todo-api-nosql/internal/domain"
	"github.com/todo-api-nosql/internal/pkg/id"
)

const MaxTextLength = 500

// Attribute names written by Update.
const (
	fieldText      = "text"
	fieldCompleted = "completed"
	fieldDueDate   = "due_date"
	fieldPriority  = "priority"
	fieldCategory  = "category"
)

var errTodoNotFound = fmt.Errorf("todo not found: %w", domain.ErrNotFound)

type Service interface {
	List(ctx context.Context, ownerID string, caller domain.Principal) ([]domain.Todo, error)
	Create(ctx context.Context, req domain.CreateTodoRequest, caller domain.Principal) (*domain.Todo, error)
	Update(ctx context.Context, todoID string, req domain.UpdateTodoRequest, caller domain.Principal) (*domain.Todo, error)
	Delete(ctx context.Context, todoID string, caller domain.Principal) error
}

type todoStore interface {
	Put(ctx context.Context, t *domain.Todo) error
	Get(ctx context.Context, todoID string) (*domain.Todo, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Todo, error)
	Update(ctx context.Context, todoID string, updates map[string]interface{}) (*domain.Todo, error)
	Delete(ctx context.Context, todoID string) error
}

type service struct {
	repo todoStore
	now  func() time.Time
}

func NewService(repo todoStore) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) List(ctx context.Context, ownerID string, caller domain.Principal) ([]domain.Todo, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("userId is required: %w", domain.ErrValidation)
	}
	if !caller.CanAccess(ownerID) {
		return nil, fmt.Errorf("cannot view another user's todos: %w", domain.ErrForbidden)
	}
	todos, err := s.repo.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(todos, func(i, j int) bool {
		if todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].TodoID > todos[j].TodoID
		}
		return todos[i].CreatedAt.After(todos[j].CreatedAt)
	})
	return todos, nil
}

func (s *service) Create(ctx context.Context, req domain.CreateTodoRequest, caller domain.Principal) (*domain.Todo, error) {
	text, err := checkText(req.Text)
	if err != nil {
		return nil, err
	}
	priority := domain.PriorityMedium
	if req.Priority != nil {
		if !domain.ValidPriority(*req.Priority) {
			return nil, fmt.Errorf("priority must be one of: low, medium, high: %w", domain.ErrValidation)
		}
		priority = *req.Priority
	}

	owner := req.UserID
	if owner == "" {
		owner = caller.UserID
	}
	if !caller.CanAccess(owner) {
		return nil, fmt.Errorf("cannot create todos for another user: %w", domain.ErrForbidden)
	}

	now := s.now().UTC()
	t := &domain.Todo{
		TodoID:    id.New(),
		UserID:    owner,
		Text:      text,
		Priority:  priority,
		Category:  domain.DefaultCategory,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.DueDate != nil {
		t.DueDate = *req.DueDate
	}
	if req.Category != nil {
		t.Category = *req.Category
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update applies only the fields present in req; zero values count as present.
func (s *service) Update(ctx context.Context, todoID string, req domain.UpdateTodoRequest, caller domain.Principal) (*domain.Todo, error) {
	current, err := s.authorize(ctx, todoID, caller)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Text != nil {
		text, err := checkText(*req.Text)
		if err != nil {
			return nil, err
		}
		updates[fieldText] = text
	}
	if req.Priority != nil {
		if !domain.ValidPriority(*req.Priority) {
			return nil, fmt.Errorf("priority must be one of: low, medium, high: %w", domain.ErrValidation)
		}
		updates[fieldPriority] = *req.Priority
	}
	if req.Completed != nil {
		updates[fieldCompleted] = *req.Completed
	}
	if req.DueDate != nil {
		updates[fieldDueDate] = *req.DueDate
	}
	if req.Category != nil {
		updates[fieldCategory] = *req.Category
	}
	if len(updates) == 0 {
		return current, nil
	}
	t, err := s.repo.Update(ctx, todoID, updates)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errTodoNotFound
	}
	return t, err
}

func (s *service) Delete(ctx context.Context, todoID string, caller domain.Principal) error {
	if _, err := s.authorize(ctx, todoID, caller); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, todoID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errTodoNotFound
		}
		return err
	}
	return nil
}

// authorize loads the todo and checks the caller may modify it.
// Malformed ids are reported as not found.
func (s *service) authorize(ctx context.Context, todoID string, caller domain.Principal) (*domain.Todo, error) {
	if !id.Valid(todoID) {
		return nil, errTodoNotFound
	}
	t, err := s.repo.Get(ctx, todoID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errTodoNotFound
	}
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(t.UserID) {
		return nil, fmt.Errorf("todo belongs to another user: %w", domain.ErrForbidden)
	}
	return t, nil
}

func checkText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("text is required: %w", domain.ErrValidation)
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", fmt.Errorf("text must be at most %d characters: %w", MaxTextLength, domain.ErrValidation)
	}
	return text, nil
}
