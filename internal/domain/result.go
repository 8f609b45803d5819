package domain

import "time"

type TranslationResult struct {
	Success               bool               `json:"success"`
	OriginalText          string             `json:"original_text"`
	TranslatedText        string             `json:"translated_text"`
	Audio                 []byte             `json:"audio,omitempty"`
	SourceLanguage        string             `json:"source_language"`
	TargetLanguage        string             `json:"target_language"`
	EmotionalContext      EmotionalTone      `json:"emotional_context,omitempty"`
	Confidence            float64            `json:"confidence"`
	TranscriptionProvider string             `json:"transcription_provider,omitempty"`
	CacheHit              CacheHitKind       `json:"cache_hit,omitempty"`
	CustomerAttributes    CustomerAttributes `json:"customer_attributes,omitzero"`
	Warnings              []string           `json:"warnings,omitempty"`
	TotalLatency          time.Duration      `json:"-"`
	TotalLatencyMs        int64              `json:"total_latency_ms"`
	ErrorKind             string             `json:"error_kind,omitempty"`
	Message               string             `json:"message,omitempty"`
}

func (r *TranslationResult) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}
