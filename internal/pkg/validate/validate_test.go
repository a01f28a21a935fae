package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/todo-api-nosql/internal/domain"
)

func TestStruct_Valid(t *testing.T) {
	err := Struct(domain.RegisterRequest{Name: "Jane", Email: "jane@x.com", Password: "Passw0rd1"})
	assert.NoError(t, err)
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(domain.RegisterRequest{Name: "Jane", Email: "not-an-email", Password: "abc"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.Contains(t, err.Error(), "password must be at least 6 characters")
}

func TestStruct_PriorityEnum(t *testing.T) {
	bad := "urgent"
	err := Struct(domain.UpdateTodoRequest{Priority: &bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority must be one of: low, medium, high")

	good := domain.PriorityHigh
	assert.NoError(t, Struct(domain.UpdateTodoRequest{Priority: &good}))
	assert.NoError(t, Struct(domain.UpdateTodoRequest{}))
}
