package domain

import (
	"context"
	"time"
)

// RelayMapping links an origin thread root to its mirrored post in the
// timeline channel.
type RelayMapping struct {
	RootTS    string    // origin root message ts
	RelayTS   string    // timeline message ts of the mirrored root
	CreatedAt time.Time
}

// RelayStore holds the root→relay mapping. A mapping entry exists if and
// only if the root was successfully mirrored; implementations must make a
// Put visible to any Get that starts after the Put returns.
type RelayStore interface {
	// Get returns the relay ts for a root ts, or "" when unmapped.
	Get(ctx context.Context, rootTS string) (string, error)
	// Put records a mapping. Called only after the timeline post succeeded.
	Put(ctx context.Context, rootTS, relayTS string) error
	// Prune removes mappings created before the cutoff and returns how
	// many were removed. Replies to pruned roots are dropped afterwards,
	// the same accepted loss as a process restart with a memory store.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
	// Len returns the number of live mappings.
	Len(ctx context.Context) (int64, error)
	Close() error
}
