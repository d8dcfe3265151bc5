// Package snapshot persists JSON documents under fixed keys and shields callers
// from storage and decoding failures.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fenggwsx/StudyShelf/internal/storage"
)

// Adapter reads and writes JSON snapshots through a storage.Store.
type Adapter struct {
	store storage.Store
	now   func() time.Time
}

// NewAdapter wraps the provided store.
func NewAdapter(store storage.Store) *Adapter {
	return &Adapter{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Load decodes the snapshot under key into a T. A missing key, a storage error
// or a malformed document yields fallback; failures are logged, never returned.
func Load[T any](ctx context.Context, a *Adapter, key string, fallback T) T {
	value, err := a.read(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("snapshot load failed key=%s err=%v", key, err)
		}
		return fallback
	}
	var decoded T
	if err := json.Unmarshal(value, &decoded); err != nil {
		log.Printf("snapshot decode failed key=%s err=%v", key, err)
		return fallback
	}
	return decoded
}

// Exists reports whether a snapshot is currently stored under key.
func (a *Adapter) Exists(ctx context.Context, key string) bool {
	_, err := a.read(ctx, key)
	return err == nil
}

// Save encodes value as JSON and stores it under key.
func (a *Adapter) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("snapshot encode failed key=%s err=%v", key, err)
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := a.store.PutSnapshot(ctx, &storage.Snapshot{Key: key, Value: data, UpdatedAt: a.now()}); err != nil {
		log.Printf("snapshot save failed key=%s err=%v", key, err)
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Remove deletes the snapshot stored under key.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if err := a.store.DeleteSnapshot(ctx, key); err != nil {
		log.Printf("snapshot remove failed key=%s err=%v", key, err)
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) read(ctx context.Context, key string) ([]byte, error) {
	snap, err := a.store.GetSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	if snap == nil || len(snap.Value) == 0 {
		return nil, storage.ErrNotFound
	}
	return snap.Value, nil
}
