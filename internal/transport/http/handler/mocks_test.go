package handler

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/todo-api-nosql/internal/domain"
)

type mockRegistrationService struct{ mock.Mock }

func (m *mockRegistrationService) RequestRegistration(ctx context.Context, req domain.RegisterRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockRegistrationService) VerifyCode(ctx context.Context, req domain.VerifyCodeRequest) (*domain.User, string, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*domain.User)
	return u, args.String(1), args.Error(2)
}

func (m *mockRegistrationService) ResendCode(ctx context.Context, req domain.ResendCodeRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockRegistrationService) PurgeExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*domain.User)
	return u, args.String(1), args.Error(2)
}

func (m *mockAuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

type mockUserService struct{ mock.Mock }

func (m *mockUserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserService) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockTodoService struct{ mock.Mock }

func (m *mockTodoService) List(ctx context.Context, ownerID string, caller domain.Principal) ([]domain.Todo, error) {
	args := m.Called(ctx, ownerID, caller)
	todos, _ := args.Get(0).([]domain.Todo)
	return todos, args.Error(1)
}

func (m *mockTodoService) Create(ctx context.Context, req domain.CreateTodoRequest, caller domain.Principal) (*domain.Todo, error) {
	args := m.Called(ctx, req, caller)
	t, _ := args.Get(0).(*domain.Todo)
	return t, args.Error(1)
}

func (m *mockTodoService) Update(ctx context.Context, todoID string, req domain.UpdateTodoRequest, caller domain.Principal) (*domain.Todo, error) {
	args := m.Called(ctx, todoID, req, caller)
	t, _ := args.Get(0).(*domain.Todo)
	return t, args.Error(1)
}

func (m *mockTodoService) Delete(ctx context.Context, todoID string, caller domain.Principal) error {
	return m.Called(ctx, todoID, caller).Error(0)
}

func (m *mockUserService) GrantAdmin(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
