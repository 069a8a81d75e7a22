package models

import (
	"strings"
	"time"
)

// NormalizeIdentity canonicalizes a username for lockout tracking:
// trimmed and lowercased, so "Alice", "alice " and "ALICE" share one
// bucket. Every map read and write in the limiter goes through this
// single function.
func NormalizeIdentity(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// LoginAttempt tracks failed logins for one normalized identity. Records
// are ephemeral: they live only in process memory and are never persisted.
type LoginAttempt struct {
	Identity       string
	Count          int
	FirstAttemptAt time.Time
	LastAttemptAt  time.Time
	LockedUntil    *time.Time
}

// IsLocked reports whether the identity is actively locked at the given time.
func (a *LoginAttempt) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// WindowExpired reports whether the sliding window anchored at the first
// attempt has fully elapsed.
func (a *LoginAttempt) WindowExpired(now time.Time, window time.Duration) bool {
	return now.Sub(a.FirstAttemptAt) > window
}

// Stale reports whether the record can be discarded: any lock has expired
// and the last attempt fell out of the window. Actively locked records are
// never stale.
func (a *LoginAttempt) Stale(now time.Time, window time.Duration) bool {
	if a.IsLocked(now) {
		return false
	}
	return now.Sub(a.LastAttemptAt) > window
}

// Clone returns a copy safe to hand outside the store's lock.
func (a *LoginAttempt) Clone() *LoginAttempt {
	if a == nil {
		return nil
	}
	out := *a
	if a.LockedUntil != nil {
		lu := *a.LockedUntil
		out.LockedUntil = &lu
	}
	return &out
}

// Result is the outcome of a rate-limit check.
type Result struct {
	Allowed bool

	// AttemptsRemaining is how many more failures are tolerated before
	// lockout. Only meaningful when Allowed.
	AttemptsRemaining int

	// RetryAfter is the remaining lockout time in seconds. Only set when
	// not Allowed.
	RetryAfter int

	// LockedUntil is the absolute unlock time, when locked.
	LockedUntil *time.Time
}
