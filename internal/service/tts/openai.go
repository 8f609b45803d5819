package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format,omitempty"`
	Speed          float64 `json:"speed,omitempty"`
}

// OpenAIProvider calls an OpenAI-compatible POST {baseURL}/v1/audio/speech endpoint.
type OpenAIProvider struct {
	baseURL string
	model   string
	http    *resty.Client
}

func NewOpenAIProvider(baseURL, apiKey, model string, timeout time.Duration) *OpenAIProvider {
	client := resty.New().SetTimeout(timeout)
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &OpenAIProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    client,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Synthesize(ctx context.Context, text string, voice VoiceConfig) ([]byte, error) {
	name := voice.Voice.OpenAIVoice
	if name == "" {
		name = "alloy"
	}

	rr, err := p.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(speechRequest{
			Model:          p.model,
			Input:          text,
			Voice:          name,
			ResponseFormat: voice.AudioFormat,
			Speed:          voice.Speed,
		}).
		Post(p.baseURL + "/v1/audio/speech")
	if err != nil {
		return nil, err
	}
	if rr.IsError() {
		return nil, fmt.Errorf("openai speech: %s; body: %s", rr.Status(), rr.String())
	}
	return rr.Body(), nil
}
