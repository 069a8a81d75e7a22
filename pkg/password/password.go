// Package password derives and verifies password hashes using scrypt
// with a per-user random salt. Derivation is CPU and memory bound, so the
// Hasher bounds the number of concurrent derivations with a weighted
// semaphore instead of letting every login serialize behind one core or
// pile up unbounded goroutines.
package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"runtime"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/sync/semaphore"

	dErrors "casefile/pkg/domain-errors"
)

const (
	// SaltLength is the number of random salt bytes generated per user.
	SaltLength = 16

	// KeyLength is the derived key length in bytes.
	KeyLength = 64

	// scrypt cost parameters. Interactive-login profile.
	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

// Hasher derives scrypt keys with a bounded level of concurrency.
type Hasher struct {
	sem *semaphore.Weighted
}

// Option configures the Hasher.
type Option func(*Hasher)

// WithMaxConcurrent bounds the number of in-flight derivations.
// Values below one are ignored.
func WithMaxConcurrent(n int64) Option {
	return func(h *Hasher) {
		if n > 0 {
			h.sem = semaphore.NewWeighted(n)
		}
	}
}

// NewHasher constructs a Hasher. By default at most GOMAXPROCS
// derivations run concurrently.
func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{
		sem: semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// GenerateSalt returns a fresh hex-encoded random salt.
func GenerateSalt() (string, error) {
	buf := make([]byte, SaltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate salt")
	}
	return hex.EncodeToString(buf), nil
}

// Hash derives a hex-encoded key from the password and hex-encoded salt.
// It blocks while the concurrency limit is saturated; ctx cancellation
// releases waiters.
func (h *Hasher) Hash(ctx context.Context, password, saltHex string) (string, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "malformed salt")
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "hash dispatch cancelled")
	}
	defer h.sem.Release(1)

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, KeyLength)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not derive key")
	}
	return hex.EncodeToString(key), nil
}

// Verify derives a candidate key for the password and compares it to the
// stored hex hash in constant time. A lexicographic or early-exit compare
// would leak the position of the first differing byte.
func (h *Hasher) Verify(ctx context.Context, password, saltHex, hashHex string) (bool, error) {
	stored, err := hex.DecodeString(hashHex)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "malformed stored hash")
	}

	candidateHex, err := h.Hash(ctx, password, saltHex)
	if err != nil {
		return false, err
	}
	candidate, err := hex.DecodeString(candidateHex)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "malformed derived hash")
	}

	return subtle.ConstantTimeCompare(stored, candidate) == 1, nil
}
