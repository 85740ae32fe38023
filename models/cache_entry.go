package models

import (
	"time"

	"gorm.io/datatypes"
)

// CacheEntry backs the database cache driver.
type CacheEntry struct {
	Key       string         `json:"key" db:"key" gorm:"type:text;primaryKey"`
	Value     datatypes.JSON `json:"value" db:"value" gorm:"type:jsonb;not null"`
	ExpiresAt time.Time      `json:"expires_at" db:"expires_at" gorm:"not null;index:idx_cache_entry_expires_at"`
}
