package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/prompt"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/ai"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/util"
)

const geminiTranscribeInstruction = `You are a speech-to-text engine. Transcribe the audio verbatim in the language it is spoken.
Output only the transcript text: no labels, no quotes, no commentary, no translation.
If the audio contains no intelligible speech, output nothing.`

// GeminiProvider sends the segment inline to a Gemini model.
type GeminiProvider struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGeminiProvider(client *genai.Client, model string, logger *zap.Logger) *GeminiProvider {
	return &GeminiProvider{client: client, model: model, logger: logger}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Transcribe(ctx context.Context, audio []byte, language string) (*ProviderTranscript, error) {
	if p.client == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}

	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: geminiTranscribeInstruction}},
		},
	}

	hint := fmt.Sprintf("Expected language: %s (%s).", prompt.LanguageName(language), language)
	resp, err := p.client.Models.GenerateContent(ctx, p.model, []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: hint},
				{InlineData: &genai.Blob{MIMEType: util.DetectAudioFormat(audio).MIME, Data: audio}},
			},
		},
	}, config)
	if err != nil {
		return nil, err
	}

	return &ProviderTranscript{
		Text:     ai.ExtractGeminiText(resp),
		Language: language,
	}, nil
}
