package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/StudyShelf/internal/config"
	"github.com/fenggwsx/StudyShelf/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "shelf.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestGetSnapshotMissingKey(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSnapshot(context.Background(), "abes_users")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPutSnapshotUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutSnapshot(ctx, &storage.Snapshot{Key: "abes_liked_ids", Value: []byte(`["m1"]`)}))
	require.NoError(t, store.PutSnapshot(ctx, &storage.Snapshot{Key: "abes_liked_ids", Value: []byte(`["m1","m2"]`)}))

	got, err := store.GetSnapshot(ctx, "abes_liked_ids")
	require.NoError(t, err)
	require.JSONEq(t, `["m1","m2"]`, string(got.Value))
	require.False(t, got.UpdatedAt.IsZero())
}

func TestDeleteSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutSnapshot(ctx, &storage.Snapshot{Key: "abes_current_user", Value: []byte(`{"id":"u1"}`)}))
	require.NoError(t, store.DeleteSnapshot(ctx, "abes_current_user"))
	require.NoError(t, store.DeleteSnapshot(ctx, "abes_current_user"))

	_, err := store.GetSnapshot(ctx, "abes_current_user")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPutSnapshotRejectsEmptyKey(t *testing.T) {
	store := newTestStore(t)

	require.Error(t, store.PutSnapshot(context.Background(), &storage.Snapshot{Value: []byte(`{}`)}))
	require.Error(t, store.PutSnapshot(context.Background(), nil))
}
