package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var StateTableName = "state"

// StateEntry is one key/value row
type StateEntry struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StateEntry) TableName() string {
	return StateTableName
}

// DB stores values in the state table
type DB struct {
	db *gorm.DB
}

// NewDB migrates the state table and returns a store over it
func NewDB(db *gorm.DB) (*DB, error) {
	if err := db.AutoMigrate(&StateEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", StateTableName, err)
	}
	return &DB{db: db}, nil
}

func (s *DB) Get(ctx context.Context, key string) (string, error) {
	var entry StateEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return entry.Value, nil
}

func (s *DB) Set(ctx context.Context, key, value string) error {
	entry := StateEntry{Key: key, Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *DB) Remove(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&StateEntry{}).Error
}
