package config

import "time"

// LockoutConfig holds the brute-force lockout policy. The values mirror
// the product's account-lockout behavior and should not be loosened
// without a security review.
type LockoutConfig struct {
	// MaxAttempts is the number of failed logins tolerated inside one window.
	MaxAttempts int

	// Window is the sliding failure window, anchored to the first failed
	// attempt rather than to wall-clock boundaries.
	Window time.Duration

	// LockDuration is how long an identity stays locked after crossing
	// MaxAttempts.
	LockDuration time.Duration

	// CleanupInterval is the period of the background sweep that removes
	// stale records.
	CleanupInterval time.Duration
}

// Default returns the production lockout policy.
func Default() LockoutConfig {
	return LockoutConfig{
		MaxAttempts:     5,
		Window:          15 * time.Minute,
		LockDuration:    15 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}
