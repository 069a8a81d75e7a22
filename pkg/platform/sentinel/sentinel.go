// Package sentinel defines shared sentinel errors used by store
// implementations so callers can branch with errors.Is regardless of
// which backend is wired in.
package sentinel

import "errors"

var (
	// ErrNotFound keeps storage-specific lookups consistent across implementations.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists signals a uniqueness violation on create.
	ErrAlreadyExists = errors.New("already exists")
)
