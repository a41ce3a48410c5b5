package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SessionEntry is one persisted key-value pair.
type SessionEntry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:64"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName pins the table name.
func (SessionEntry) TableName() string {
	return "session_entries"
}

// SQLStore persists entries through gorm.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	// One connection: SQLite allows a single writer and ":memory:" is per connection.
	sqlDB.SetMaxOpenConns(1)
	return NewSQLStore(db)
}

// NewSQLStore wraps db and migrates the session table.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&SessionEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var entry SessionEntry
	if err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return entry.Value, nil
}

func (s *SQLStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	entries := make([]SessionEntry, 0, len(values))
	for k, v := range values {
		entries = append(entries, SessionEntry{Key: k, Value: v})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entries).Error
	})
}

func (s *SQLStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("entry_key IN ?", keys).Delete(&SessionEntry{}).Error
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
