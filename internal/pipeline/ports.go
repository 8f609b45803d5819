package pipeline

import (
	"context"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (*domain.TranscriptionResult, error)
	TranscribeFast(ctx context.Context, audio []byte, language string) (*domain.TranscriptionResult, error)
}

type ConversationCache interface {
	Lookup(ctx context.Context, text, sourceLanguage, targetLanguage string) (*domain.CacheEntry, domain.CacheHitKind, error)
	// Peek is Lookup without counting a miss.
	Peek(ctx context.Context, text, sourceLanguage, targetLanguage string) (*domain.CacheEntry, domain.CacheHitKind, error)
	Store(ctx context.Context, entry *domain.CacheEntry) error
}

type EntityMasker interface {
	Detect(ctx context.Context, text string) []domain.Entity
	Mask(text string, entities []domain.Entity) (string, *domain.MaskingMap)
	Unmask(text string, maskingMap *domain.MaskingMap) string
	Validate(text string) bool
}

type Translator interface {
	Translate(ctx context.Context, maskedText, sourceLanguage, targetLanguage string, tone domain.EmotionalTone) (string, error)
}

type EmotionAnalyzer interface {
	Analyze(ctx context.Context, audio []byte) domain.EmotionAnalysis
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, language string, tone domain.EmotionalTone) ([]byte, error)
}
