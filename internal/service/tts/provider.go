package tts

import "context"

// VoiceConfig is everything a provider needs besides the text.
type VoiceConfig struct {
	Voice       Voice
	Speed       float64
	AudioFormat string
}

type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string, voice VoiceConfig) ([]byte, error)
}
