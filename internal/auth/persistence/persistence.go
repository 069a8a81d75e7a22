// Package persistence stores the single "remembered" session id across
// application restarts. Implementations are platform capabilities; every
// call is best-effort from the auth service's perspective and failures
// must never break a login or logout.
package persistence

import "context"

// Handler is the storage boundary for the remembered session id.
type Handler interface {
	StoreSessionID(ctx context.Context, id string) error
	RetrieveSessionID(ctx context.Context) (string, error)
	ClearSession(ctx context.Context) error
	HasStoredSession(ctx context.Context) (bool, error)

	// IsAvailable reports whether the backing store can be used at all
	// on this platform (e.g. no writable config directory).
	IsAvailable() bool
}
