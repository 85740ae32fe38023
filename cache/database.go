package cache

import (
	"context"
	"errors"
	"time"

	"github.com/consolelogkochan/dev-cockpit/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EntryStore is the persistence used by the database driver.
// database.CacheEntryRepo satisfies it.
type EntryStore interface {
	FindLive(ctx context.Context, key string, now time.Time) (*models.CacheEntry, error)
	Put(ctx context.Context, entry *models.CacheEntry) error
	Delete(ctx context.Context, key string) error
}

// Database keeps entries in the cache_entries table so they survive restarts
// and are shared between instances.
type Database struct {
	store EntryStore
	now   func() time.Time
}

func NewDatabase(store EntryStore) *Database {
	return &Database{store: store, now: time.Now}
}

func (d *Database) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := d.store.FindLive(ctx, key, d.now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Value, true, nil
}

func (d *Database) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return d.store.Put(ctx, &models.CacheEntry{
		Key:       key,
		Value:     datatypes.JSON(value),
		ExpiresAt: d.now().Add(ttl),
	})
}

func (d *Database) Delete(ctx context.Context, key string) error {
	return d.store.Delete(ctx, key)
}
