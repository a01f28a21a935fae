package domain

import "time"

// PendingRegistration stages a signup until its emailed code is verified.
// PK: email. ExpiresAt is a Unix timestamp also used as DynamoDB TTL.
type PendingRegistration struct {
	Email        string     `json:"email" dynamodbav:"email"`
	Name         string     `json:"name" dynamodbav:"name"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Code         string     `json:"-" dynamodbav:"code"`
	ExpiresAt    int64      `json:"expires_at" dynamodbav:"expires_at"`
	Verified     bool       `json:"verified" dynamodbav:"verified"`
	Attempts     int        `json:"attempts" dynamodbav:"attempts"`
	LastResendAt *time.Time `json:"last_resend_at,omitempty" dynamodbav:"last_resend_at,omitempty"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
}

// Expired reports whether now is past the code's expiry.
func (p *PendingRegistration) Expired(now time.Time) bool {
	return now.Unix() > p.ExpiresAt
}
