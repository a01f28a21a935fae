package dynamo

// Attribute names shared by keys, conditions and update expressions.
const (
	fieldUserID       = "user_id"
	fieldTodoID       = "todo_id"
	fieldEmail        = "email"
	fieldCode         = "code"
	fieldVerified     = "verified"
	fieldAttempts     = "attempts"
	fieldExpiresAt    = "expires_at"
	fieldLastResendAt = "last_resend_at"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"

	indexTodosByUser = "user_id-created_at-index"
)
