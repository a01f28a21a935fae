package domain

import "time"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	DefaultCategory = "general"
)

type Todo struct {
	TodoID    string    `json:"id" dynamodbav:"todo_id"`
	UserID    string    `json:"userId" dynamodbav:"user_id"`
	Text      string    `json:"text" dynamodbav:"text"`
	Completed bool      `json:"completed" dynamodbav:"completed"`
	DueDate   string    `json:"dueDate" dynamodbav:"due_date"`
	Priority  string    `json:"priority" dynamodbav:"priority"`
	Category  string    `json:"category" dynamodbav:"category"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

type CreateTodoRequest struct {
	Text      string  `json:"text" validate:"required,max=500"`
	UserID    string  `json:"userId"`
	DueDate   *string `json:"dueDate"`
	Priority  *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category  *string `json:"category"`
	Completed *bool   `json:"completed"`
}

// UpdateTodoRequest is a partial update: nil fields are left untouched,
// non-nil fields are applied even when they hold a zero value.
type UpdateTodoRequest struct {
	Text      *string `json:"text" validate:"omitempty,max=500"`
	Completed *bool   `json:"completed"`
	DueDate   *string `json:"dueDate"`
	Priority  *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category  *string `json:"category"`
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
