package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/StudyShelf/internal/config"
	"github.com/fenggwsx/StudyShelf/internal/storage"
	"github.com/fenggwsx/StudyShelf/internal/storage/sqlite"
)

type brokenStore struct {
	err error
}

func (b brokenStore) Close() error { return nil }
func (b brokenStore) Migrate(ctx context.Context) error { return nil }
func (b brokenStore) GetSnapshot(ctx context.Context, key string) (*storage.Snapshot, error) {
	return nil, b.err
}
func (b brokenStore) PutSnapshot(ctx context.Context, snapshot *storage.Snapshot) error {
	return b.err
}
func (b brokenStore) DeleteSnapshot(ctx context.Context, key string) error { return b.err }

func newSQLiteAdapter(t *testing.T) (*Adapter, storage.Store) {
	t.Helper()
	store, err := sqlite.NewStore(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "snap.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return NewAdapter(store), store
}

func TestLoadMissingKeyReturnsFallback(t *testing.T) {
	adapter, _ := newSQLiteAdapter(t)

	got := Load(context.Background(), adapter, "abes_liked_ids", []string{"seed"})
	require.Equal(t, []string{"seed"}, got)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	adapter, _ := newSQLiteAdapter(t)
	ctx := context.Background()

	type record struct {
		ID    string `json:"id"`
		Likes int    `json:"likes"`
	}
	want := []record{{ID: "m1", Likes: 3}, {ID: "m2"}}
	require.NoError(t, adapter.Save(ctx, "abes_materials", want))
	require.True(t, adapter.Exists(ctx, "abes_materials"))

	got := Load(ctx, adapter, "abes_materials", []record(nil))
	require.Equal(t, want, got)
}

func TestLoadCorruptSnapshotReturnsFallback(t *testing.T) {
	adapter, store := newSQLiteAdapter(t)
	ctx := context.Background()

	require.NoError(t, store.PutSnapshot(ctx, &storage.Snapshot{Key: "abes_users", Value: []byte(`{"oops"`)}))

	got := Load(ctx, adapter, "abes_users", []string{"fallback"})
	require.Equal(t, []string{"fallback"}, got)
}

func TestRemoveDeletesSnapshot(t *testing.T) {
	adapter, _ := newSQLiteAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Save(ctx, "abes_current_user", map[string]string{"id": "u1"}))
	require.NoError(t, adapter.Remove(ctx, "abes_current_user"))
	require.False(t, adapter.Exists(ctx, "abes_current_user"))
}

func TestStorageFailuresAreContained(t *testing.T) {
	adapter := NewAdapter(brokenStore{err: errors.New("disk gone")})
	ctx := context.Background()

	require.Equal(t, 7, Load(ctx, adapter, "abes_users", 7))
	require.Error(t, adapter.Save(ctx, "abes_users", []int{1}))
	require.Error(t, adapter.Remove(ctx, "abes_users"))
	require.False(t, adapter.Exists(ctx, "abes_users"))
}

func TestSaveRejectsUnencodableValue(t *testing.T) {
	adapter, _ := newSQLiteAdapter(t)

	err := adapter.Save(context.Background(), "abes_users", map[string]any{"ch": make(chan int)})
	require.Error(t, err)
}
