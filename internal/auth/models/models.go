package models

import (
	"time"

	"github.com/google/uuid"
)

// This file contains pure domain models for authentication: entities
// that should not depend on transport or storage concerns.

// User represents an operator account in the case-management backend.
type User struct {
	ID       uuid.UUID
	Username string
	Email    string

	// PasswordHash and PasswordSalt are hex-encoded and always written
	// together; a user never carries one without the other.
	PasswordHash string
	PasswordSalt string

	Role        Role
	IsActive    bool
	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// Session represents an authenticated session. The ID is an opaque token
// generated exactly once at creation; logout deletes the row rather than
// mutating it, and there is no renew operation.
type Session struct {
	ID         string
	UserID     uuid.UUID
	CreatedAt  time.Time
	ExpiresAt  time.Time
	IPAddress  string
	UserAgent  string
	DeviceName string
	RememberMe bool
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
