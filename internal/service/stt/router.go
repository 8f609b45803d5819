package stt

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/constants"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/pkg/errors"
)

// Router tries providers in order. Each provider gets one attempt bounded by a timeout;
// the first success wins.
type Router struct {
	providers   []Provider
	timeout     time.Duration
	fastTimeout time.Duration
	logger      *zap.Logger
}

func NewRouter(providers []Provider, timeout, fastTimeout time.Duration, logger *zap.Logger) *Router {
	if timeout <= 0 {
		timeout = constants.STTConfig.ProviderTimeout
	}
	if fastTimeout <= 0 {
		fastTimeout = constants.STTConfig.FastTimeout
	}
	return &Router{
		providers:   providers,
		timeout:     timeout,
		fastTimeout: fastTimeout,
		logger:      logger,
	}
}

// Providers returns the provider names in routing order.
func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}

// Transcribe returns NO_SPEECH_DETECTED when the winning transcript is blank and
// ALL_PROVIDERS_FAILED, carrying every attempt, when no provider succeeds.
func (r *Router) Transcribe(ctx context.Context, audio []byte, language string) (*domain.TranscriptionResult, error) {
	return r.route(ctx, r.providers, r.timeout, audio, language)
}

// TranscribeFast asks only the first provider with the short timeout.
func (r *Router) TranscribeFast(ctx context.Context, audio []byte, language string) (*domain.TranscriptionResult, error) {
	if len(r.providers) == 0 {
		return r.route(ctx, nil, r.fastTimeout, audio, language)
	}
	return r.route(ctx, r.providers[:1], r.fastTimeout, audio, language)
}

func (r *Router) route(ctx context.Context, providers []Provider, timeout time.Duration, audio []byte, language string) (*domain.TranscriptionResult, error) {
	if len(audio) == 0 {
		return nil, errors.NoSpeechDetected()
	}

	start := time.Now()
	attempts := make([]error, 0, len(providers))

	for _, provider := range providers {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, errors.NewProviderError(provider.Name(), "transcribe", err))
			break
		}

		transcript, err := r.attempt(ctx, provider, timeout, audio, language)
		if err != nil {
			r.logger.Warn("STT provider failed, trying next",
				zap.String("provider", provider.Name()),
				zap.String("kind", errors.KindOf(err).String()),
				zap.Error(err),
			)
			attempts = append(attempts, err)
			continue
		}

		text := strings.TrimSpace(transcript.Text)
		latency := time.Since(start)
		if text == "" {
			r.logger.Info("No speech detected", zap.String("provider", provider.Name()))
			return nil, errors.NoSpeechDetected().WithContext("provider", provider.Name())
		}

		detected := transcript.Language
		if detected == "" {
			detected = language
		}

		r.logger.Info("Transcribed segment",
			zap.String("provider", provider.Name()),
			zap.Int("chars", len([]rune(text))),
			zap.Duration("latency", latency),
		)

		return &domain.TranscriptionResult{
			Text:     text,
			Language: detected,
			Provider: provider.Name(),
			Latency:  latency,
			Duration: transcript.Duration,
			Segments: transcript.Segments,
		}, nil
	}

	return nil, errors.NewAllProvidersFailed("transcription", attempts)
}

type attemptResult struct {
	transcript *ProviderTranscript
	err        error
}

// attempt waits for the provider or its deadline. A provider that ignores cancellation
// finishes into a buffered channel nobody reads.
func (r *Router) attempt(ctx context.Context, provider Provider, timeout time.Duration, audio []byte, language string) (*ProviderTranscript, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		transcript, err := provider.Transcribe(callCtx, audio, language)
		done <- attemptResult{transcript: transcript, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if stderrors.Is(res.err, context.DeadlineExceeded) {
				return nil, errors.NewProviderTimeout(provider.Name(), "transcribe", res.err)
			}
			return nil, errors.NewProviderError(provider.Name(), "transcribe", res.err)
		}
		if res.transcript == nil {
			return nil, errors.NewProviderError(provider.Name(), "transcribe", stderrors.New("empty response"))
		}
		return res.transcript, nil
	case <-callCtx.Done():
		if stderrors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, errors.NewProviderTimeout(provider.Name(), "transcribe", callCtx.Err())
		}
		return nil, errors.NewProviderError(provider.Name(), "transcribe", callCtx.Err())
	}
}
