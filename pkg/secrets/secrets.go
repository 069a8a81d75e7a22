// Package secrets generates opaque random tokens for session identifiers.
package secrets

import (
	"crypto/rand"
	"encoding/base64"

	dErrors "casefile/pkg/domain-errors"
)

// Generate creates a cryptographically secure random token.
// Returns a base64-encoded string suitable for use as a session identifier:
// opaque to callers and infeasible to predict or enumerate. Each call mints
// a brand-new value; identifiers are never derived from prior ones.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
