// Package store persists geocode outcomes between runs.
package store

import (
	"context"

	"github.com/sells-group/praxis-map/pkg/geocode"
)

// Store is a geocode cache with lifecycle management.
type Store interface {
	geocode.Cache

	// DeleteExpired removes entries older than the TTL. Returns rows removed.
	DeleteExpired(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
