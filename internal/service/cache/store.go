package cache

import (
	"context"
	"time"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

// Store persists cache entries keyed by content hash.
type Store interface {
	// Get returns nil, nil when the hash is unknown.
	Get(ctx context.Context, hash string) (*domain.CacheEntry, error)
	// Upsert inserts or replaces an entry. Use count and creation time of an existing row survive.
	Upsert(ctx context.Context, entry *domain.CacheEntry) error
	// Touch increments the use count and refreshes last-used in one statement.
	Touch(ctx context.Context, hash string, at time.Time) error
	// Candidates lists greeting or common-phrase entries for a language pair, most recently used first.
	Candidates(ctx context.Context, sourceLanguage, targetLanguage string, limit int) ([]*domain.CacheEntry, error)
	// DeleteStale removes entries last used before the cutoff with fewer than minUses uses.
	DeleteStale(ctx context.Context, before time.Time, minUses int64) (int64, error)
	Stats(ctx context.Context) (StoreStats, error)
	Close() error
}

type StoreStats struct {
	Entries       int64 `json:"entries"`
	Greetings     int64 `json:"greetings"`
	CommonPhrases int64 `json:"common_phrases"`
	TotalUses     int64 `json:"total_uses"`
}
