package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fenggwsx/StudyShelf/internal/config"
	"github.com/fenggwsx/StudyShelf/internal/storage"
)

// Store is a GORM-backed SQLite implementation of storage.Store.
type Store struct {
	db *gorm.DB
}

type snapshotModel struct {
	Key       string         `gorm:"column:snapshot_key;primaryKey;size:190"`
	Value     datatypes.JSON `gorm:"column:value;not null"`
	UpdatedAt time.Time
}

// TableName provides the explicit table binding for GORM.
func (snapshotModel) TableName() string {
	return "snapshots"
}

// NewStore opens a SQLite database at the provided path.
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate applies schema updates.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&snapshotModel{})
}

// GetSnapshot retrieves the document stored under key.
func (s *Store) GetSnapshot(ctx context.Context, key string) (*storage.Snapshot, error) {
	var model snapshotModel
	if err := s.db.WithContext(ctx).Where("snapshot_key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &storage.Snapshot{
		Key:       model.Key,
		Value:     []byte(model.Value),
		UpdatedAt: model.UpdatedAt,
	}, nil
}

// PutSnapshot inserts or replaces the document stored under the snapshot key.
func (s *Store) PutSnapshot(ctx context.Context, snapshot *storage.Snapshot) error {
	if snapshot == nil {
		return errors.New("nil snapshot")
	}
	if snapshot.Key == "" {
		return errors.New("empty snapshot key")
	}
	updatedAt := snapshot.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	model := snapshotModel{
		Key:       snapshot.Key,
		Value:     datatypes.JSON(snapshot.Value),
		UpdatedAt: updatedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "snapshot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model).Error
}

// DeleteSnapshot removes the document stored under key. Removing a missing key is not an error.
func (s *Store) DeleteSnapshot(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("snapshot_key = ?", key).Delete(&snapshotModel{}).Error
}
