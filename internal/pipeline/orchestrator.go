package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/constants"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/util"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/pkg/errors"
)

// Request is one utterance to translate. EmotionHint, when set, replaces emotion analysis.
type Request struct {
	Audio          []byte
	SourceLanguage string
	TargetLanguage string
	EmotionHint    domain.EmotionalTone
	SessionID      string
	SpeakerRole    domain.SpeakerRole
}

type Options struct {
	FastPathMaxBytes  int
	BatchConcurrency  int
	CacheStoreTimeout time.Duration
}

type Dependencies struct {
	Transcriber Transcriber
	Cache       ConversationCache
	Masker      EntityMasker
	Translator  Translator
	Emotion     EmotionAnalyzer
	Synthesizer SpeechSynthesizer
}

const (
	confidenceTranslated = 0.9
	confidenceDegraded   = 0.6
)

// Orchestrator runs one utterance through transcription, cache, masking, translation and
// synthesis. It never returns an error: every failure becomes a typed result.
type Orchestrator struct {
	deps   Dependencies
	opts   Options
	logger *zap.Logger

	// observe, when set, sees every state transition.
	observe func(State)
}

func NewOrchestrator(deps Dependencies, opts Options, logger *zap.Logger) *Orchestrator {
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = constants.PipelineConfig.BatchConcurrency
	}
	if opts.CacheStoreTimeout <= 0 {
		opts.CacheStoreTimeout = constants.PipelineConfig.CacheStoreTimeout
	}
	return &Orchestrator{deps: deps, opts: opts, logger: logger}
}

// OnStateChange registers fn to see every state transition. It is not safe to call while
// requests are in flight.
func (o *Orchestrator) OnStateChange(fn func(State)) {
	o.observe = fn
}

type run struct {
	o      *Orchestrator
	req    Request
	start  time.Time
	state  State
	logger *zap.Logger
	result *domain.TranslationResult
}

func (r *run) enter(state State) {
	r.state = state
	r.logger.Debug("Pipeline state", zap.String("state", string(state)))
	if r.o.observe != nil {
		r.o.observe(state)
	}
}

func (r *run) warn(kind errors.Kind, detail string) {
	warning := kind.String()
	if detail != "" {
		warning += ": " + detail
	}
	for _, w := range r.result.Warnings {
		if w == warning {
			return
		}
	}
	r.result.AddWarning(warning)
}

func (r *run) finish() *domain.TranslationResult {
	r.result.TotalLatency = time.Since(r.start)
	r.result.TotalLatencyMs = r.result.TotalLatency.Milliseconds()
	return r.result
}

func (r *run) done() *domain.TranslationResult {
	r.enter(StateDone)
	r.result.Success = true
	res := r.finish()
	r.logger.Info("Utterance translated",
		zap.String("provider", res.TranscriptionProvider),
		zap.String("cache_hit", string(res.CacheHit)),
		zap.String("original", util.RedactedPreview(res.OriginalText)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Int64("latency_ms", res.TotalLatencyMs),
	)
	return res
}

func (r *run) noSpeech() *domain.TranslationResult {
	r.enter(StateDone)
	r.result.Success = false
	r.result.ErrorKind = errors.KindNoSpeechDetected.String()
	r.result.Message = "No speech detected"
	return r.finish()
}

func (r *run) fail(err error) *domain.TranslationResult {
	failedAt := r.state
	r.enter(StateErrored)
	kind := errors.KindOf(err)
	r.result.Success = false
	r.result.ErrorKind = kind.String()
	r.result.Message = userMessage(err)
	r.logger.Error("Utterance failed",
		zap.String("state", string(failedAt)),
		zap.String("kind", kind.String()),
		zap.Error(err),
	)
	return r.finish()
}

func userMessage(err error) string {
	switch errors.KindOf(err) {
	case errors.KindAllProvidersFailed:
		return "Speech could not be transcribed; please try again"
	case errors.KindTranslationFailed, errors.KindProviderTimeout, errors.KindProviderError:
		return "Translation is temporarily unavailable; please try again"
	case errors.KindValidation:
		return err.Error()
	default:
		return "Unexpected error while translating"
	}
}

// Process translates one utterance.
func (o *Orchestrator) Process(ctx context.Context, req Request) *domain.TranslationResult {
	r := &run{
		o:     o,
		req:   req,
		start: time.Now(),
		logger: o.logger.With(
			zap.String("session", req.SessionID),
			zap.String("speaker", string(req.SpeakerRole)),
			zap.String("pair", req.SourceLanguage+"->"+req.TargetLanguage),
		),
		result: &domain.TranslationResult{
			SourceLanguage: req.SourceLanguage,
			TargetLanguage: req.TargetLanguage,
		},
	}
	r.enter(StateReceived)

	if req.SourceLanguage == "" || req.TargetLanguage == "" {
		return r.fail(errors.NewValidationError("source and target language are required", "language", nil))
	}
	if req.EmotionHint != "" && !req.EmotionHint.Valid() {
		return r.fail(errors.NewValidationError(fmt.Sprintf("unknown emotional tone %q", req.EmotionHint), "tone", req.EmotionHint))
	}

	if len(req.Audio) > 0 && len(req.Audio) < o.opts.FastPathMaxBytes {
		if res := o.fastPath(ctx, r); res != nil {
			return res
		}
	}

	return o.canonicalPath(ctx, r)
}

// fastPath returns nil when the short segment cannot be answered from the cache.
func (o *Orchestrator) fastPath(ctx context.Context, r *run) *domain.TranslationResult {
	r.enter(StateFastCacheProbe)

	transcript, err := o.deps.Transcriber.TranscribeFast(ctx, r.req.Audio, r.req.SourceLanguage)
	if err != nil || transcript == nil || transcript.Text == "" {
		r.logger.Debug("Fast path transcription unavailable", zap.Error(err))
		return nil
	}

	// A miss here is counted by the canonical lookup.
	entry, kind, err := o.deps.Cache.Peek(ctx, transcript.Text, r.req.SourceLanguage, r.req.TargetLanguage)
	if err != nil {
		r.logger.Debug("Fast path cache lookup failed", zap.Error(err))
	}
	if entry == nil || !kind.IsHit() {
		return nil
	}

	tone := r.req.EmotionHint
	if tone == "" {
		tone = entry.EmotionalContext
	}
	if !tone.Valid() {
		tone = domain.ToneProfessional
	}

	r.result.OriginalText = transcript.Text
	r.result.TranslatedText = entry.TranslatedText
	r.result.TranscriptionProvider = transcript.Provider
	r.result.CacheHit = kind
	r.result.EmotionalContext = tone
	r.result.CustomerAttributes = ExtractAttributes(transcript.Text, nil)
	if kind == domain.CacheHitExact {
		r.result.CustomerAttributes = r.result.CustomerAttributes.Merge(entry.CustomerAttributes)
	}
	r.result.Confidence = 1.0
	if kind == domain.CacheHitSimilar {
		r.result.Confidence = entry.Similarity
	}

	o.synthesize(ctx, r, entry.TranslatedText, tone)
	return r.done()
}

func (o *Orchestrator) canonicalPath(ctx context.Context, r *run) *domain.TranslationResult {
	r.enter(StateTranscribing)

	analysis := domain.EmotionAnalysis{Primary: "hint", Tone: r.req.EmotionHint}
	emotionCtx, cancelEmotion := context.WithCancel(ctx)
	defer cancelEmotion()

	var wg conc.WaitGroup
	if r.req.EmotionHint == "" {
		wg.Go(func() {
			analysis = o.deps.Emotion.Analyze(emotionCtx, r.req.Audio)
		})
	}

	transcript, err := o.deps.Transcriber.Transcribe(ctx, r.req.Audio, r.req.SourceLanguage)
	if err != nil {
		cancelEmotion()
	}
	wg.Wait()

	r.enter(StateEmptyCheck)
	if err != nil {
		if errors.Is(err, errors.KindNoSpeechDetected) {
			return r.noSpeech()
		}
		return r.fail(err)
	}
	text := strings.TrimSpace(transcript.Text)
	if text == "" {
		return r.noSpeech()
	}

	tone := analysis.Tone
	if !tone.Valid() {
		tone = domain.ToneProfessional
	}
	r.result.OriginalText = text
	r.result.TranscriptionProvider = transcript.Provider
	r.result.EmotionalContext = tone

	// The lookup only contributes metadata; the utterance is always translated afresh.
	r.enter(StateCacheProbe)
	var cachedAttrs domain.CustomerAttributes
	entry, kind, err := o.deps.Cache.Lookup(ctx, text, r.req.SourceLanguage, r.req.TargetLanguage)
	if err != nil {
		r.logger.Warn("Cache lookup failed, continuing without cache", zap.Error(err))
		r.warn(errors.KindCacheUnavailable, "")
	}
	if entry != nil && kind.IsHit() {
		r.result.CacheHit = kind
		// Other tiers match a different utterance, possibly another customer's.
		if kind == domain.CacheHitExact {
			cachedAttrs = entry.CustomerAttributes
		}
	}

	r.enter(StateMasking)
	entities := o.deps.Masker.Detect(ctx, text)
	masked, maskingMap := o.deps.Masker.Mask(text, entities)

	r.enter(StateTranslating)
	translated, err := o.deps.Translator.Translate(ctx, masked, r.req.SourceLanguage, r.req.TargetLanguage, tone)
	if err != nil {
		return r.fail(err)
	}

	r.enter(StateUnmasking)
	final := o.deps.Masker.Unmask(translated, maskingMap)
	r.result.TranslatedText = final
	r.result.Confidence = confidenceTranslated
	intact := o.deps.Masker.Validate(final)
	if !intact {
		r.logger.Warn("Placeholders left after unmasking", zap.Int("entities", maskingMap.Len()))
		r.warn(errors.KindMaskingIntegrity, "placeholder left in translation")
		r.result.Confidence = confidenceDegraded
	}

	r.result.CustomerAttributes = ExtractAttributes(text, entities).Merge(cachedAttrs)

	o.synthesize(ctx, r, final, tone)

	r.enter(StateCached)
	if intact {
		o.store(ctx, r, transcript)
	}

	return r.done()
}

// synthesize keeps the text result when audio fails.
func (o *Orchestrator) synthesize(ctx context.Context, r *run, text string, tone domain.EmotionalTone) {
	r.enter(StateSynthesizing)
	audio, err := o.deps.Synthesizer.Synthesize(ctx, text, r.req.TargetLanguage, tone)
	if err != nil {
		r.logger.Warn("Speech synthesis failed, returning text only", zap.Error(err))
		r.warn(errors.KindSynthesisFailed, "")
		return
	}
	if len(audio) == 0 {
		r.warn(errors.KindSynthesisFailed, "disabled")
		return
	}
	r.result.Audio = audio
}

// store is skipped once the caller has gone away, so abandoned requests leave no trace.
func (o *Orchestrator) store(ctx context.Context, r *run, transcript *domain.TranscriptionResult) {
	if ctx.Err() != nil {
		r.logger.Debug("Request abandoned, skipping cache write")
		return
	}

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.CacheStoreTimeout)
	defer cancel()

	err := o.deps.Cache.Store(storeCtx, &domain.CacheEntry{
		OriginalText:       r.result.OriginalText,
		TranslatedText:     r.result.TranslatedText,
		SourceLanguage:     r.req.SourceLanguage,
		TargetLanguage:     r.req.TargetLanguage,
		EmotionalContext:   r.result.EmotionalContext,
		CustomerAttributes: r.result.CustomerAttributes,
		AudioDuration:      transcript.Duration,
		ProcessingTime:     time.Since(r.start),
	})
	if err != nil {
		r.logger.Warn("Cache store failed", zap.Error(err))
		r.warn(errors.KindCacheUnavailable, "")
	}
}

// ProcessBatch translates requests concurrently, at most BatchConcurrency at a time.
// Results keep the order of reqs.
func (o *Orchestrator) ProcessBatch(ctx context.Context, reqs []Request) []*domain.TranslationResult {
	results := make([]*domain.TranslationResult, len(reqs))

	p := pool.New().WithMaxGoroutines(o.opts.BatchConcurrency)
	for i := range reqs {
		p.Go(func() {
			results[i] = o.Process(ctx, reqs[i])
		})
	}
	p.Wait()

	return results
}
