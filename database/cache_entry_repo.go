package database

import (
	"context"
	"time"

	"github.com/consolelogkochan/dev-cockpit/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CacheEntryRepo struct {
	db *gorm.DB
}

func NewCacheEntryRepo(db *gorm.DB) *CacheEntryRepo {
	return &CacheEntryRepo{db}
}

// FindLive returns the entry for key unless it has expired at now.
func (r *CacheEntryRepo) FindLive(ctx context.Context, key string, now time.Time) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	err := r.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, now).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put inserts or overwrites the entry for entry.Key.
func (r *CacheEntryRepo) Put(ctx context.Context, entry *models.CacheEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(entry).Error
}

func (r *CacheEntryRepo) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&models.CacheEntry{}, "key = ?", key).Error
}

// PurgeExpired removes every entry that expired before now.
func (r *CacheEntryRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}
