package config

import (
	"os"
	"time"
)

// Server captures process-level configuration for the auth backend.
type Server struct {
	Addr           string
	DatabaseURL    string
	SessionTTL     time.Duration
	RememberMeTTL  time.Duration
	SessionSweep   time.Duration
	LockoutSweep   time.Duration
	PersistencePth string
}

// Defaults. Session TTLs follow the product behavior: a plain login lives
// a day, a remembered login survives restarts for a month.
var (
	SessionTTL    = 24 * time.Hour
	RememberMeTTL = 30 * 24 * time.Hour
	SessionSweep  = 5 * time.Minute
	LockoutSweep  = 5 * time.Minute
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CASEFILE_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8137"
	}

	cfg := Server{
		Addr:           addr,
		DatabaseURL:    os.Getenv("CASEFILE_DATABASE_URL"),
		SessionTTL:     SessionTTL,
		RememberMeTTL:  RememberMeTTL,
		SessionSweep:   SessionSweep,
		LockoutSweep:   LockoutSweep,
		PersistencePth: os.Getenv("CASEFILE_SESSION_FILE"),
	}

	if v := os.Getenv("CASEFILE_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}
	if v := os.Getenv("CASEFILE_REMEMBER_ME_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RememberMeTTL = d
		}
	}
	if v := os.Getenv("CASEFILE_SESSION_SWEEP"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionSweep = d
		}
	}
	if v := os.Getenv("CASEFILE_LOCKOUT_SWEEP"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.LockoutSweep = d
		}
	}

	return cfg
}
