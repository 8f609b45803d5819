package tts

import (
	"context"
	"encoding/base64"
	"fmt"

	texttospeech "google.golang.org/api/texttospeech/v1"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/gcloud"
)

// GoogleProvider calls Cloud Text-to-Speech.
type GoogleProvider struct {
	service *texttospeech.Service
}

func NewGoogleProvider(ctx context.Context, apiKey string) (*GoogleProvider, error) {
	opts, err := gcloud.ClientOptions(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	service, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Text-to-Speech service: %w", err)
	}
	return &GoogleProvider{service: service}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) Synthesize(ctx context.Context, text string, voice VoiceConfig) ([]byte, error) {
	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: voice.Voice.LanguageCode,
			Name:         voice.Voice.Name,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: googleEncoding(voice.AudioFormat),
			SpeakingRate:  voice.Speed,
			Pitch:         voice.Voice.Pitch,
		},
	}

	resp, err := p.service.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio content: %w", err)
	}
	return audio, nil
}

func googleEncoding(format string) string {
	switch format {
	case "wav", "pcm":
		return "LINEAR16"
	case "ogg", "opus":
		return "OGG_OPUS"
	default:
		return "MP3"
	}
}
