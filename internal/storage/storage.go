package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a snapshot key has never been written or was removed.
var ErrNotFound = errors.New("not found")

// Snapshot represents a persisted JSON document stored under a fixed key.
type Snapshot struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// Store defines the key-value persistence used by the portal.
type Store interface {
	Close() error
	Migrate(ctx context.Context) error

	GetSnapshot(ctx context.Context, key string) (*Snapshot, error)
	PutSnapshot(ctx context.Context, snapshot *Snapshot) error
	DeleteSnapshot(ctx context.Context, key string) error
}
