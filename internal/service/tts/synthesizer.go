package tts

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

type Options struct {
	Speed       float64
	AudioFormat string
	Timeout     time.Duration
}

// Synthesizer renders text with the voice chosen for (language, tone). Speed and format
// are fixed at construction.
type Synthesizer struct {
	provider Provider
	voices   *VoiceTable
	opts     Options
	logger   *zap.Logger
}

// NewSynthesizer accepts a nil provider, which turns synthesis off.
func NewSynthesizer(provider Provider, voices *VoiceTable, opts Options, logger *zap.Logger) *Synthesizer {
	if voices == nil {
		voices = DefaultVoiceTable()
	}
	if opts.Speed <= 0 {
		opts.Speed = constants.TTSConfig.DefaultSpeed
	}
	if opts.AudioFormat == "" {
		opts.AudioFormat = "mp3"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.TTSConfig.Timeout
	}
	return &Synthesizer{provider: provider, voices: voices, opts: opts, logger: logger}
}

func (s *Synthesizer) Enabled() bool {
	return s.provider != nil
}

// Synthesize returns nil audio without error when synthesis is disabled, which the
// pipeline reports as a warning. Provider failures come back as SYNTHESIS_FAILED.
func (s *Synthesizer) Synthesize(ctx context.Context, text, language string, tone domain.EmotionalTone) ([]byte, error) {
	if s.provider == nil {
		return nil, nil
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewValidationError("nothing to synthesize", "text", "")
	}

	voice := VoiceConfig{
		Voice:       s.voices.Lookup(language, tone),
		Speed:       s.opts.Speed,
		AudioFormat: s.opts.AudioFormat,
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	audio, err := s.provider.Synthesize(ctx, text, voice)
	if err != nil {
		message := "speech synthesis failed"
		if stderrors.Is(err, context.DeadlineExceeded) {
			message = "speech synthesis timed out"
		}
		return nil, errors.New(errors.KindSynthesisFailed, message, 502).
			WithCause(err).
			WithContext("provider", s.provider.Name())
	}
	if len(audio) == 0 {
		return nil, errors.New(errors.KindSynthesisFailed, "speech synthesis returned no audio", 502).
			WithContext("provider", s.provider.Name())
	}

	s.logger.Debug("Synthesized speech",
		zap.String("provider", s.provider.Name()),
		zap.String("voice", voice.Voice.Name),
		zap.Int("bytes", len(audio)),
		zap.Duration("latency", time.Since(start)),
	)
	return audio, nil
}
