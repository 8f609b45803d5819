package cache

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/constants"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/util"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/pkg/errors"
)

type Options struct {
	MaxAge              time.Duration
	CleanupInterval     time.Duration
	SimilarityThreshold float64
	SimilaritySample    int
}

func (o Options) withDefaults() Options {
	if o.MaxAge <= 0 {
		o.MaxAge = constants.CacheConfig.MaxAge
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = constants.CacheConfig.CleanupInterval
	}
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = constants.CacheConfig.SimilarityThreshold
	}
	if o.SimilaritySample <= 0 {
		o.SimilaritySample = constants.CacheConfig.SimilaritySample
	}
	return o
}

type HitStats struct {
	Exact    int64 `json:"exact"`
	Greeting int64 `json:"greeting"`
	Similar  int64 `json:"similar"`
}

type Stats struct {
	StoreStats
	Hits   HitStats `json:"hits"`
	Misses int64    `json:"misses"`
}

// Service is the conversation cache: exact, greeting and similarity tiers over a Store,
// with an optional hot layer for exact hits.
type Service struct {
	store   Store
	hot     HotLayer
	phrases *Phrases
	opts    Options
	logger  *zap.Logger
	now     func() time.Time

	exactHits    atomic.Int64
	greetingHits atomic.Int64
	similarHits  atomic.Int64
	misses       atomic.Int64
}

// NewService builds the cache. hot may be nil.
func NewService(store Store, hot HotLayer, opts Options, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		hot:     hot,
		phrases: DefaultPhrases(),
		opts:    opts.withDefaults(),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Lookup returns the first hit of the exact, greeting and similarity tiers. A storage
// failure is returned as a CACHE_UNAVAILABLE error alongside whatever the remaining
// tiers could still answer.
func (s *Service) Lookup(ctx context.Context, text, sourceLanguage, targetLanguage string) (*domain.CacheEntry, domain.CacheHitKind, error) {
	return s.lookup(ctx, text, sourceLanguage, targetLanguage, true)
}

// Peek is Lookup without counting a miss, for callers that fall back to a full Lookup
// of the same utterance.
func (s *Service) Peek(ctx context.Context, text, sourceLanguage, targetLanguage string) (*domain.CacheEntry, domain.CacheHitKind, error) {
	return s.lookup(ctx, text, sourceLanguage, targetLanguage, false)
}

func (s *Service) lookup(ctx context.Context, text, sourceLanguage, targetLanguage string, countMiss bool) (*domain.CacheEntry, domain.CacheHitKind, error) {
	if util.Normalize(text) == "" {
		return nil, domain.CacheHitNone, nil
	}

	hash := Key(text, sourceLanguage, targetLanguage)

	entry, storeErr := s.lookupExact(ctx, hash)
	if entry != nil {
		s.exactHits.Add(1)
		return entry, domain.CacheHitExact, nil
	}

	if response, ok := s.phrases.MatchGreeting(text, sourceLanguage, targetLanguage); ok {
		s.greetingHits.Add(1)
		now := s.now()
		return &domain.CacheEntry{
			Hash:             hash,
			OriginalText:     strings.TrimSpace(text),
			TranslatedText:   response,
			SourceLanguage:   sourceLanguage,
			TargetLanguage:   targetLanguage,
			EmotionalContext: domain.ToneFriendly,
			CreatedAt:        now,
			LastUsed:         now,
			IsGreeting:       true,
		}, domain.CacheHitGreeting, nil
	}

	if storeErr == nil {
		entry, storeErr = s.lookupSimilar(ctx, text, sourceLanguage, targetLanguage)
		if entry != nil {
			s.similarHits.Add(1)
			return entry, domain.CacheHitSimilar, nil
		}
	}

	if countMiss {
		s.misses.Add(1)
	}
	if storeErr != nil {
		return nil, domain.CacheHitNone, storeErr
	}
	return nil, domain.CacheHitNone, nil
}

func (s *Service) lookupExact(ctx context.Context, hash string) (*domain.CacheEntry, error) {
	if s.hot != nil {
		entry, err := s.hot.GetEntry(ctx, hash)
		if err != nil {
			s.logger.Debug("Hot cache unavailable, using store", zap.Error(err))
		}
		if entry != nil {
			if err := s.touch(ctx, entry); err != nil {
				return nil, err
			}
			// The hot copy lags the row when other tiers or processes touch it.
			if stored, err := s.store.Get(ctx, hash); err == nil && stored != nil {
				entry.UseCount = stored.UseCount
			}
			s.refreshHot(ctx, entry)
			return entry, nil
		}
	}

	entry, err := s.store.Get(ctx, hash)
	if err != nil {
		return nil, errors.NewCacheError("exact lookup failed", "get", hash, err)
	}
	if entry == nil {
		return nil, nil
	}
	if err := s.touch(ctx, entry); err != nil {
		return nil, err
	}
	s.refreshHot(ctx, entry)
	return entry, nil
}

func (s *Service) lookupSimilar(ctx context.Context, text, sourceLanguage, targetLanguage string) (*domain.CacheEntry, error) {
	candidates, err := s.store.Candidates(ctx, sourceLanguage, targetLanguage, s.opts.SimilaritySample)
	if err != nil {
		return nil, errors.NewCacheError("similarity lookup failed", "candidates", sourceLanguage+"|"+targetLanguage, err)
	}

	for _, candidate := range candidates {
		score := Similarity(text, candidate.OriginalText)
		if score < s.opts.SimilarityThreshold {
			continue
		}
		if err := s.touch(ctx, candidate); err != nil {
			return nil, err
		}
		candidate.Similarity = score
		return candidate, nil
	}
	return nil, nil
}

func (s *Service) touch(ctx context.Context, entry *domain.CacheEntry) error {
	now := s.now()
	if err := s.store.Touch(ctx, entry.Hash, now); err != nil {
		return errors.NewCacheError("touch failed", "touch", entry.Hash, err)
	}
	entry.UseCount++
	entry.LastUsed = now
	return nil
}

func (s *Service) refreshHot(ctx context.Context, entry *domain.CacheEntry) {
	if s.hot == nil {
		return
	}
	if err := s.hot.SetEntry(ctx, entry); err != nil {
		s.logger.Debug("Hot cache refresh failed", zap.Error(err))
	}
}

// Store upserts entry under its content hash, classifying it as greeting and/or common
// phrase. The caller's struct is not modified.
func (s *Service) Store(ctx context.Context, entry *domain.CacheEntry) error {
	if entry == nil || strings.TrimSpace(entry.OriginalText) == "" || strings.TrimSpace(entry.TranslatedText) == "" {
		return errors.NewValidationError("cache entry needs original and translated text", "entry", nil)
	}

	now := s.now()
	record := *entry
	record.OriginalText = strings.TrimSpace(record.OriginalText)
	record.Hash = Key(record.OriginalText, record.SourceLanguage, record.TargetLanguage)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.LastUsed = now
	if record.UseCount < 1 {
		record.UseCount = 1
	}
	record.Similarity = 0
	record.IsGreeting = s.phrases.IsGreeting(record.OriginalText, record.SourceLanguage)
	record.IsCommonPhrase = s.phrases.IsCommonPhrase(record.OriginalText)

	if err := s.store.Upsert(ctx, &record); err != nil {
		return errors.NewCacheError("store failed", "upsert", record.Hash, err)
	}

	if s.hot != nil {
		if err := s.hot.Delete(ctx, record.Hash); err != nil {
			s.logger.Debug("Hot cache invalidation failed", zap.Error(err))
		}
	}

	s.logger.Debug("Cache entry stored",
		zap.String("hash", record.Hash[:12]),
		zap.Bool("greeting", record.IsGreeting),
		zap.Bool("common_phrase", record.IsCommonPhrase),
	)
	return nil
}

// Cleanup deletes entries unused for longer than MaxAge unless they were used at least twice.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.opts.MaxAge)
	deleted, err := s.store.DeleteStale(ctx, cutoff, constants.CacheConfig.MinProtectedUses)
	if err != nil {
		return 0, errors.NewCacheError("cleanup failed", "delete", "", err)
	}
	if deleted > 0 {
		s.logger.Info("Cache cleanup removed stale entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return deleted, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	storeStats, err := s.store.Stats(ctx)
	if err != nil {
		return Stats{}, errors.NewCacheError("stats failed", "stats", "", err)
	}
	return Stats{
		StoreStats: storeStats,
		Hits: HitStats{
			Exact:    s.exactHits.Load(),
			Greeting: s.greetingHits.Load(),
			Similar:  s.similarHits.Load(),
		},
		Misses: s.misses.Load(),
	}, nil
}

// RunCleanupLoop runs Cleanup every CleanupInterval until ctx is cancelled.
func (s *Service) RunCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, constants.DatabaseConfig.QueryTimeout)
			if _, err := s.Cleanup(runCtx); err != nil {
				s.logger.Warn("Cache cleanup failed", zap.Error(err))
			}
			cancel()
		}
	}
}

func (s *Service) Close() error {
	return s.store.Close()
}
