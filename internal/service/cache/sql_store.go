package cache

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/database"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/util"
)

const cacheTable = "translation_cache"

var entryColumns = []string{
	"hash", "original_text", "translated_text", "source_language", "target_language",
	"emotional_context", "customer_name", "customer_phone", "visit_reason", "notes",
	"audio_duration_ms", "processing_time_ms", "created_at", "last_used", "use_count",
	"is_greeting", "is_common_phrase",
}

// use_count and created_at are left alone on conflict.
const upsertSuffix = `ON CONFLICT(hash) DO UPDATE SET
    original_text = excluded.original_text,
    translated_text = excluded.translated_text,
    emotional_context = excluded.emotional_context,
    customer_name = excluded.customer_name,
    customer_phone = excluded.customer_phone,
    visit_reason = excluded.visit_reason,
    notes = excluded.notes,
    audio_duration_ms = excluded.audio_duration_ms,
    processing_time_ms = excluded.processing_time_ms,
    last_used = excluded.last_used,
    is_greeting = excluded.is_greeting,
    is_common_phrase = excluded.is_common_phrase`

// SQLStore keeps entries in the translation_cache table of PostgreSQL or SQLite.
type SQLStore struct {
	db *sql.DB
	sq sq.StatementBuilderType
}

func NewSQLStore(db *sql.DB, dialect database.Dialect) *SQLStore {
	return &SQLStore{db: db, sq: dialect.Builder().RunWith(db)}
}

func (s *SQLStore) Get(ctx context.Context, hash string) (*domain.CacheEntry, error) {
	row := s.sq.Select(entryColumns...).
		From(cacheTable).
		Where(sq.Eq{"hash": hash}).
		QueryRowContext(ctx)

	entry, err := scanEntry(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select cache entry: %w", err)
	}
	return entry, nil
}

func (s *SQLStore) Upsert(ctx context.Context, entry *domain.CacheEntry) error {
	if _, err := s.upsertQuery(entry).ExecContext(ctx); err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (s *SQLStore) upsertQuery(entry *domain.CacheEntry) sq.InsertBuilder {
	useCount := entry.UseCount
	if useCount < 1 {
		useCount = 1
	}
	return s.sq.Insert(cacheTable).
		Columns(entryColumns...).
		Values(
			entry.Hash,
			entry.OriginalText,
			entry.TranslatedText,
			entry.SourceLanguage,
			entry.TargetLanguage,
			string(entry.EmotionalContext),
			entry.CustomerAttributes.Name,
			entry.CustomerAttributes.Phone,
			entry.CustomerAttributes.VisitReason,
			entry.CustomerAttributes.Notes,
			entry.AudioDuration.Milliseconds(),
			entry.ProcessingTime.Milliseconds(),
			util.UnixMillis(entry.CreatedAt),
			util.UnixMillis(entry.LastUsed),
			useCount,
			entry.IsGreeting,
			entry.IsCommonPhrase,
		).
		Suffix(upsertSuffix)
}

func (s *SQLStore) Touch(ctx context.Context, hash string, at time.Time) error {
	if _, err := s.touchQuery(hash, at).ExecContext(ctx); err != nil {
		return fmt.Errorf("touch cache entry: %w", err)
	}
	return nil
}

func (s *SQLStore) touchQuery(hash string, at time.Time) sq.UpdateBuilder {
	return s.sq.Update(cacheTable).
		Set("use_count", sq.Expr("use_count + 1")).
		Set("last_used", util.UnixMillis(at)).
		Where(sq.Eq{"hash": hash})
}

func (s *SQLStore) Candidates(ctx context.Context, sourceLanguage, targetLanguage string, limit int) ([]*domain.CacheEntry, error) {
	rows, err := s.candidatesQuery(sourceLanguage, targetLanguage, limit).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select cache candidates: %w", err)
	}
	defer rows.Close()

	var entries []*domain.CacheEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cache candidate: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLStore) candidatesQuery(sourceLanguage, targetLanguage string, limit int) sq.SelectBuilder {
	q := s.sq.Select(entryColumns...).
		From(cacheTable).
		Where(sq.Eq{"source_language": sourceLanguage, "target_language": targetLanguage}).
		Where(sq.Or{sq.Eq{"is_greeting": true}, sq.Eq{"is_common_phrase": true}}).
		OrderBy("last_used DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q
}

func (s *SQLStore) DeleteStale(ctx context.Context, before time.Time, minUses int64) (int64, error) {
	res, err := s.deleteStaleQuery(before, minUses).ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete stale cache entries: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) deleteStaleQuery(before time.Time, minUses int64) sq.DeleteBuilder {
	return s.sq.Delete(cacheTable).
		Where(sq.Lt{"last_used": util.UnixMillis(before)}).
		Where(sq.Lt{"use_count": minUses})
}

func (s *SQLStore) Stats(ctx context.Context) (StoreStats, error) {
	var stats StoreStats
	err := s.sq.Select(
		"COUNT(*)",
		"COALESCE(SUM(CASE WHEN is_greeting THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN is_common_phrase THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(use_count), 0)",
	).
		From(cacheTable).
		QueryRowContext(ctx).
		Scan(&stats.Entries, &stats.Greetings, &stats.CommonPhrases, &stats.TotalUses)
	if err != nil {
		return StoreStats{}, fmt.Errorf("select cache stats: %w", err)
	}
	return stats, nil
}

// Close is a no-op; the database service owns the connection.
func (s *SQLStore) Close() error { return nil }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.CacheEntry, error) {
	var (
		entry                 domain.CacheEntry
		tone                  string
		audioMs, processingMs int64
		createdAt, lastUsed   int64
	)
	err := row.Scan(
		&entry.Hash,
		&entry.OriginalText,
		&entry.TranslatedText,
		&entry.SourceLanguage,
		&entry.TargetLanguage,
		&tone,
		&entry.CustomerAttributes.Name,
		&entry.CustomerAttributes.Phone,
		&entry.CustomerAttributes.VisitReason,
		&entry.CustomerAttributes.Notes,
		&audioMs,
		&processingMs,
		&createdAt,
		&lastUsed,
		&entry.UseCount,
		&entry.IsGreeting,
		&entry.IsCommonPhrase,
	)
	if err != nil {
		return nil, err
	}
	entry.EmotionalContext = domain.EmotionalTone(tone)
	entry.AudioDuration = time.Duration(audioMs) * time.Millisecond
	entry.ProcessingTime = time.Duration(processingMs) * time.Millisecond
	entry.CreatedAt = util.FromUnixMillis(createdAt)
	entry.LastUsed = util.FromUnixMillis(lastUsed)
	return &entry, nil
}
