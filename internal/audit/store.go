package audit

import (
	"context"

	"casefile/pkg/platform/sentinel"
)

// ErrNotFound keeps storage-specific lookups consistent across implementations.
var ErrNotFound = sentinel.ErrNotFound

// Store is the append-only persistence boundary for audit events. The
// on-disk format is owned by the host application; this subsystem only
// appends and lists.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}
