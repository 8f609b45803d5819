package cache

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/pkg/errors"
)

type fakeHot struct {
	entries map[string]domain.CacheEntry
	gets    int
}

func newFakeHot() *fakeHot {
	return &fakeHot{entries: make(map[string]domain.CacheEntry)}
}

func (f *fakeHot) GetEntry(_ context.Context, hash string) (*domain.CacheEntry, error) {
	f.gets++
	entry, ok := f.entries[hash]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (f *fakeHot) SetEntry(_ context.Context, entry *domain.CacheEntry) error {
	f.entries[entry.Hash] = *entry
	return nil
}

func (f *fakeHot) Delete(_ context.Context, hash string) error {
	delete(f.entries, hash)
	return nil
}

type failingStore struct {
	*MemoryStore
}

func (failingStore) Get(context.Context, string) (*domain.CacheEntry, error) {
	return nil, stderrors.New("database is locked")
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(store Store, hot HotLayer) (*Service, *clock) {
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewService(store, hot, Options{}, zap.NewNop())
	svc.now = c.now
	return svc, c
}

func storeTranslation(t *testing.T, svc *Service, original, translated string) {
	t.Helper()
	err := svc.Store(context.Background(), &domain.CacheEntry{
		OriginalText:     original,
		TranslatedText:   translated,
		SourceLanguage:   "en",
		TargetLanguage:   "es",
		EmotionalContext: domain.ToneProfessional,
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
}

func TestLookupMissOnEmptyCache(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore(), nil)

	entry, kind, err := svc.Lookup(context.Background(), "Hello, I need help with my account balance", "en", "es")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil || kind.IsHit() {
		t.Fatalf("expected miss, got %v %+v", kind, entry)
	}
	stats, _ := svc.Stats(context.Background())
	if stats.Misses != 1 {
		t.Fatalf("expected one miss, got %+v", stats)
	}
}

func TestExactHitIncrementsUseCount(t *testing.T) {
	store := NewMemoryStore()
	svc, c := newTestService(store, nil)
	ctx := context.Background()

	text := "Hello, I need help with my account balance"
	storeTranslation(t, svc, text, "Hola, necesito ayuda con el saldo de mi cuenta")

	before, _ := store.Get(ctx, Key(text, "en", "es"))
	if before == nil || before.UseCount != 1 {
		t.Fatalf("expected stored entry with use count 1, got %+v", before)
	}

	c.t = c.t.Add(time.Minute)
	entry, kind, err := svc.Lookup(ctx, "  hello, I NEED help with my account balance ", "en", "es")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if kind != domain.CacheHitExact {
		t.Fatalf("expected exact hit, got %q", kind)
	}
	if entry.UseCount != before.UseCount+1 {
		t.Fatalf("expected use count %d, got %d", before.UseCount+1, entry.UseCount)
	}

	after, _ := store.Get(ctx, entry.Hash)
	if after.UseCount != 2 || !after.LastUsed.Equal(c.t) {
		t.Fatalf("store not touched: %+v", after)
	}
}

func TestStorePreservesUseCountOnUpsert(t *testing.T) {
	store := NewMemoryStore()
	svc, _ := newTestService(store, nil)
	ctx := context.Background()

	storeTranslation(t, svc, "Please sign here", "Firme aquí, por favor")
	if _, _, err := svc.Lookup(ctx, "Please sign here", "en", "es"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	storeTranslation(t, svc, "Please sign here", "Por favor, firme aquí")

	got, _ := store.Get(ctx, Key("Please sign here", "en", "es"))
	if got.UseCount != 2 {
		t.Fatalf("expected use count to survive upsert, got %d", got.UseCount)
	}
	if got.TranslatedText != "Por favor, firme aquí" {
		t.Fatalf("expected last write to win, got %q", got.TranslatedText)
	}
	if !got.IsCommonPhrase {
		t.Fatalf("expected common phrase classification")
	}
}

func TestGreetingTier(t *testing.T) {
	store := NewMemoryStore()
	svc, _ := newTestService(store, nil)

	entry, kind, err := svc.Lookup(context.Background(), "Good morning!", "en", "es")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if kind != domain.CacheHitGreeting || entry.TranslatedText != "Buenos días" {
		t.Fatalf("expected greeting hit, got %q %+v", kind, entry)
	}
	if stats, _ := store.Stats(context.Background()); stats.Entries != 0 {
		t.Fatalf("greeting hits must not be persisted")
	}
}

func TestSimilarityTier(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore(), nil)
	ctx := context.Background()

	storeTranslation(t, svc, "Thank you so much for your help today", "Muchas gracias por su ayuda hoy")
	storeTranslation(t, svc, "The wire transfer arrived yesterday", "La transferencia llegó ayer")

	entry, kind, err := svc.Lookup(ctx, "thank you so much for your help", "en", "es")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if kind != domain.CacheHitSimilar {
		t.Fatalf("expected similarity hit, got %q", kind)
	}
	if entry.Similarity < 0.8 || entry.UseCount != 2 {
		t.Fatalf("unexpected similar entry: %+v", entry)
	}

	// Not flagged greeting or common phrase, so never a similarity candidate.
	_, kind, _ = svc.Lookup(ctx, "The wire transfer arrived", "en", "es")
	if kind.IsHit() {
		t.Fatalf("expected miss, got %q", kind)
	}
}

func TestCleanupKeepsFrequentlyUsedEntries(t *testing.T) {
	store := NewMemoryStore()
	svc, c := newTestService(store, nil)
	ctx := context.Background()

	storeTranslation(t, svc, "I lost my debit card", "Perdí mi tarjeta de débito")
	storeTranslation(t, svc, "Where is the nearest branch", "Dónde está la sucursal más cercana")
	for i := 0; i < 2; i++ {
		if _, kind, _ := svc.Lookup(ctx, "Where is the nearest branch", "en", "es"); kind != domain.CacheHitExact {
			t.Fatalf("expected exact hit, got %q", kind)
		}
	}

	c.t = c.t.Add(25 * time.Hour)
	storeTranslation(t, svc, "I would like a new checkbook", "Quisiera una chequera nueva")

	deleted, err := svc.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted entry, got %d", deleted)
	}
	if got, _ := store.Get(ctx, Key("I lost my debit card", "en", "es")); got != nil {
		t.Fatalf("stale single-use entry should be gone")
	}
	if got, _ := store.Get(ctx, Key("Where is the nearest branch", "en", "es")); got == nil {
		t.Fatalf("frequently used entry must survive cleanup")
	}
}

func TestHotLayerServesExactHits(t *testing.T) {
	store := NewMemoryStore()
	hot := newFakeHot()
	svc, _ := newTestService(store, hot)
	ctx := context.Background()

	text := "Can I help you"
	storeTranslation(t, svc, text, "¿Le puedo ayudar?")
	hash := Key(text, "en", "es")
	if _, ok := hot.entries[hash]; ok {
		t.Fatalf("store must invalidate the hot entry")
	}

	if _, kind, _ := svc.Lookup(ctx, text, "en", "es"); kind != domain.CacheHitExact {
		t.Fatalf("expected exact hit from store")
	}
	if _, ok := hot.entries[hash]; !ok {
		t.Fatalf("exact hit should populate the hot layer")
	}

	entry, kind, _ := svc.Lookup(ctx, text, "en", "es")
	if kind != domain.CacheHitExact || entry.UseCount != 3 {
		t.Fatalf("expected hot exact hit with use count 3, got %q %+v", kind, entry)
	}
	persisted, _ := store.Get(ctx, hash)
	if persisted.UseCount != 3 {
		t.Fatalf("hot hits must still touch the store, got %d", persisted.UseCount)
	}
}

func TestLookupDegradesWhenStoreFails(t *testing.T) {
	svc, _ := newTestService(failingStore{NewMemoryStore()}, nil)
	ctx := context.Background()

	_, kind, err := svc.Lookup(ctx, "Hello", "en", "es")
	if err != nil || kind != domain.CacheHitGreeting {
		t.Fatalf("greeting tier should answer without storage, got %q %v", kind, err)
	}

	_, kind, err = svc.Lookup(ctx, "I need a cashier's check", "en", "es")
	if kind.IsHit() {
		t.Fatalf("expected miss")
	}
	if !errors.Is(err, errors.KindCacheUnavailable) {
		t.Fatalf("expected CACHE_UNAVAILABLE, got %v", err)
	}
}

func TestStoreRejectsEmptyText(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore(), nil)
	err := svc.Store(context.Background(), &domain.CacheEntry{OriginalText: "  ", TranslatedText: "x"})
	if !errors.Is(err, errors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStatsCountsTiers(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore(), nil)
	ctx := context.Background()

	storeTranslation(t, svc, "Thank you", "Gracias")
	_, _, _ = svc.Lookup(ctx, "thank you", "en", "es")
	_, _, _ = svc.Lookup(ctx, "Hi", "en", "es")
	_, _, _ = svc.Lookup(ctx, "Where do I sign the loan papers", "en", "es")

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Entries != 1 || stats.Greetings != 1 || stats.CommonPhrases != 1 || stats.TotalUses != 2 {
		t.Fatalf("unexpected store stats: %+v", stats.StoreStats)
	}
	if stats.Hits.Exact != 1 || stats.Hits.Greeting != 1 || stats.Misses != 1 {
		t.Fatalf("unexpected hit stats: %+v", stats)
	}
}

func TestPeekDoesNotCountMisses(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore(), nil)
	ctx := context.Background()

	storeTranslation(t, svc, "Thank you", "Gracias")
	text := "Where do I sign the loan papers"
	if _, kind, _ := svc.Peek(ctx, text, "en", "es"); kind.IsHit() {
		t.Fatalf("expected miss, got %q", kind)
	}
	if _, kind, _ := svc.Lookup(ctx, text, "en", "es"); kind.IsHit() {
		t.Fatalf("expected miss, got %q", kind)
	}
	if _, kind, _ := svc.Peek(ctx, "thank you", "en", "es"); kind != domain.CacheHitExact {
		t.Fatalf("expected exact hit, got %q", kind)
	}

	stats, _ := svc.Stats(ctx)
	if stats.Misses != 1 || stats.Hits.Exact != 1 {
		t.Fatalf("expected one miss and one exact hit, got %+v", stats)
	}
}

func TestHotHitReportsStoredUseCount(t *testing.T) {
	store := NewMemoryStore()
	hot := newFakeHot()
	svc, _ := newTestService(store, hot)
	ctx := context.Background()

	text := "Can I help you"
	storeTranslation(t, svc, text, "¿Le puedo ayudar?")
	hash := Key(text, "en", "es")
	if _, kind, _ := svc.Lookup(ctx, text, "en", "es"); kind != domain.CacheHitExact {
		t.Fatalf("expected exact hit from store")
	}

	// Another process bumps the row behind the hot copy.
	for i := 0; i < 5; i++ {
		if err := store.Touch(ctx, hash, time.Now()); err != nil {
			t.Fatalf("Touch: %v", err)
		}
	}
	if hot.entries[hash].UseCount != 2 {
		t.Fatalf("expected stale hot copy with use count 2, got %d", hot.entries[hash].UseCount)
	}

	entry, kind, _ := svc.Lookup(ctx, text, "en", "es")
	if kind != domain.CacheHitExact {
		t.Fatalf("expected exact hit, got %q", kind)
	}
	persisted, _ := store.Get(ctx, hash)
	if persisted.UseCount != 8 || entry.UseCount != persisted.UseCount {
		t.Fatalf("expected use count %d from store, got %d", persisted.UseCount, entry.UseCount)
	}
	if hot.entries[hash].UseCount != 8 {
		t.Fatalf("hot copy not refreshed, got %d", hot.entries[hash].UseCount)
	}
}
