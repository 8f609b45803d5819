package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

// MemoryStore keeps entries in process. Used in tests and when no database is reachable.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*domain.CacheEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*domain.CacheEntry)}
}

func (m *MemoryStore) Get(_ context.Context, hash string) (*domain.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[hash]
	if !ok {
		return nil, nil
	}
	clone := *entry
	return &clone, nil
}

func (m *MemoryStore) Upsert(_ context.Context, entry *domain.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *entry
	clone.Similarity = 0
	if existing, ok := m.entries[entry.Hash]; ok {
		clone.UseCount = existing.UseCount
		clone.CreatedAt = existing.CreatedAt
	}
	m.entries[entry.Hash] = &clone
	return nil
}

func (m *MemoryStore) Touch(_ context.Context, hash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[hash]; ok {
		entry.UseCount++
		entry.LastUsed = at
	}
	return nil
}

func (m *MemoryStore) Candidates(_ context.Context, sourceLanguage, targetLanguage string, limit int) ([]*domain.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.CacheEntry
	for _, entry := range m.entries {
		if entry.SourceLanguage != sourceLanguage || entry.TargetLanguage != targetLanguage {
			continue
		}
		if !entry.IsGreeting && !entry.IsCommonPhrase {
			continue
		}
		clone := *entry
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LastUsed.After(result[j].LastUsed)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MemoryStore) DeleteStale(_ context.Context, before time.Time, minUses int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for hash, entry := range m.entries {
		if entry.LastUsed.Before(before) && entry.UseCount < minUses {
			delete(m.entries, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) Stats(context.Context) (StoreStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats StoreStats
	for _, entry := range m.entries {
		stats.Entries++
		stats.TotalUses += entry.UseCount
		if entry.IsGreeting {
			stats.Greetings++
		}
		if entry.IsCommonPhrase {
			stats.CommonPhrases++
		}
	}
	return stats, nil
}

func (m *MemoryStore) Close() error { return nil }
