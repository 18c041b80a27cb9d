// Package storage persists the editor state in a single string-keyed slot.
package storage

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KV is an opaque key-value slot store.
type KV interface {
	// Get returns the value stored under key; ok is false when nothing was stored.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Entry is the row backing one slot.
type Entry struct {
	Key       string `gorm:"column:slot;primaryKey;size:255"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName pins the table name regardless of naming strategy.
func (Entry) TableName() string { return "kv_entries" }

// GormKV stores slots in the kv_entries table.
type GormKV struct {
	db *gorm.DB
}

// NewGormKV returns a KV backed by db. The kv_entries table must exist (see db.Migrate).
func NewGormKV(db *gorm.DB) *GormKV {
	return &GormKV{db: db}
}

// Get implements KV.
func (s *GormKV) Get(ctx context.Context, key string) (string, bool, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("slot = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "read slot %q", key)
	}
	return e.Value, true, nil
}

// Set implements KV. Writes are upserts so the slot holds a single row.
func (s *GormKV) Set(ctx context.Context, key, value string) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return errors.Wrapf(err, "write slot %q", key)
	}
	return nil
}
