package stt

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	speech "google.golang.org/api/speech/v1"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/gcloud"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/util"
)

// GoogleProvider calls Cloud Speech-to-Text synchronous recognition.
type GoogleProvider struct {
	service *speech.Service
	logger  *zap.Logger
}

func NewGoogleProvider(ctx context.Context, apiKey string, logger *zap.Logger) (*GoogleProvider, error) {
	opts, err := gcloud.ClientOptions(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	service, err := speech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Speech-to-Text service: %w", err)
	}
	return &GoogleProvider{service: service, logger: logger}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) Transcribe(ctx context.Context, audio []byte, language string) (*ProviderTranscript, error) {
	req := &speech.RecognizeRequest{
		Config: recognitionConfig(audio, language),
		Audio: &speech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
		},
	}

	resp, err := p.service.Speech.Recognize(req).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	out := &ProviderTranscript{Language: language}
	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		parts = append(parts, strings.TrimSpace(result.Alternatives[0].Transcript))
		if result.LanguageCode != "" {
			out.Language = result.LanguageCode
		}
	}
	out.Text = strings.Join(parts, " ")
	if billed, err := time.ParseDuration(resp.TotalBilledTime); err == nil {
		out.Duration = billed
	}
	return out, nil
}

// recognitionConfig lets the service read WAV and FLAC headers; Opus containers need
// the encoding spelled out.
func recognitionConfig(audio []byte, language string) *speech.RecognitionConfig {
	config := &speech.RecognitionConfig{
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
		Model:                      "latest_short",
	}
	switch util.DetectAudioFormat(audio) {
	case util.FormatOGG:
		config.Encoding = "OGG_OPUS"
		config.SampleRateHertz = 48000
	case util.FormatWebM:
		config.Encoding = "WEBM_OPUS"
		config.SampleRateHertz = 48000
	}
	return config
}
