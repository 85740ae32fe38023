// Package cache stores short-lived serialized values under string keys.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cache is implemented by the memory and database drivers.
type Cache interface {
	// Get returns the stored value and true, or false on a miss or expired entry.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// WikiSummaryTTL is how long a project's Notion page summaries stay cached.
const WikiSummaryTTL = time.Hour

// WikiSummaryKey is the cache key of a project's Notion page summaries.
func WikiSummaryKey(projectID uuid.UUID) string {
	return fmt.Sprintf("project:%s:wiki-summary", projectID)
}
