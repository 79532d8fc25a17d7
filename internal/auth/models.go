package auth

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAvatar is assigned to users created on their first sign-in request.
const DefaultAvatar = "/images/avatar.png"

// User represents an application user document. Created on the first OTP
// request for an unknown email and immutable afterwards.
type User struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	AccountID uuid.UUID `json:"account_id"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginCode is a pending one-time email code, stored hashed.
type LoginCode struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	CodeHash  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Session binds an opaque secret to a user. Only the HMAC hash of the secret
// is persisted.
type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	SecretHash string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}
