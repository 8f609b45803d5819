package tts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

// Voice carries the provider-specific voice identifiers for one (language, tone) slot.
type Voice struct {
	Name         string  `yaml:"name"`
	LanguageCode string  `yaml:"language_code"`
	Pitch        float64 `yaml:"pitch"`
	OpenAIVoice  string  `yaml:"openai_voice"`
}

type languageVoices struct {
	Default Voice                          `yaml:"default"`
	Tones   map[domain.EmotionalTone]Voice `yaml:"tones"`
}

// VoiceTable resolves (language, tone) to a voice, then the language default, then the
// global default.
type VoiceTable struct {
	Default   Voice                     `yaml:"default"`
	Languages map[string]languageVoices `yaml:"languages"`
}

func (t *VoiceTable) Lookup(language string, tone domain.EmotionalTone) Voice {
	voices, ok := t.Languages[baseLanguage(language)]
	if !ok {
		return t.Default
	}
	if voice, ok := voices.Tones[tone]; ok {
		return voice
	}
	if voices.Default.Name != "" || voices.Default.OpenAIVoice != "" {
		return voices.Default
	}
	return t.Default
}

// LoadVoiceTable overlays the YAML file at path onto the built-in table.
func LoadVoiceTable(path string) (*VoiceTable, error) {
	table := DefaultVoiceTable()
	if path == "" {
		return table, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read voice table %s: %w", path, err)
	}

	var override VoiceTable
	if err := yaml.Unmarshal(content, &override); err != nil {
		return nil, fmt.Errorf("decode voice table %s: %w", path, err)
	}

	if override.Default.Name != "" || override.Default.OpenAIVoice != "" {
		table.Default = override.Default
	}
	for lang, voices := range override.Languages {
		lang = baseLanguage(lang)
		existing := table.Languages[lang]
		if voices.Default.Name != "" || voices.Default.OpenAIVoice != "" {
			existing.Default = voices.Default
		}
		if existing.Tones == nil {
			existing.Tones = make(map[domain.EmotionalTone]Voice)
		}
		for tone, voice := range voices.Tones {
			existing.Tones[tone] = voice
		}
		table.Languages[lang] = existing
	}
	return table, nil
}

func DefaultVoiceTable() *VoiceTable {
	soft := []domain.EmotionalTone{domain.ToneEmpathetic, domain.ToneCalming, domain.ToneReassuring, domain.TonePatient}
	bright := []domain.EmotionalTone{domain.ToneFriendly, domain.ToneEnthusiastic, domain.TonePositive}

	withTones := func(def, softVoice, brightVoice Voice) languageVoices {
		lv := languageVoices{Default: def, Tones: make(map[domain.EmotionalTone]Voice)}
		for _, tone := range soft {
			lv.Tones[tone] = softVoice
		}
		for _, tone := range bright {
			lv.Tones[tone] = brightVoice
		}
		return lv
	}
	plain := func(name, code string) languageVoices {
		return languageVoices{Default: Voice{Name: name, LanguageCode: code, OpenAIVoice: "alloy"}}
	}

	return &VoiceTable{
		Default: Voice{Name: "en-US-Neural2-F", LanguageCode: "en-US", OpenAIVoice: "alloy"},
		Languages: map[string]languageVoices{
			"en": withTones(
				Voice{Name: "en-US-Neural2-F", LanguageCode: "en-US", OpenAIVoice: "alloy"},
				Voice{Name: "en-US-Neural2-C", LanguageCode: "en-US", Pitch: -2, OpenAIVoice: "shimmer"},
				Voice{Name: "en-US-Neural2-H", LanguageCode: "en-US", Pitch: 1, OpenAIVoice: "nova"},
			),
			"es": withTones(
				Voice{Name: "es-US-Neural2-A", LanguageCode: "es-US", OpenAIVoice: "alloy"},
				Voice{Name: "es-US-Neural2-A", LanguageCode: "es-US", Pitch: -2, OpenAIVoice: "shimmer"},
				Voice{Name: "es-US-Neural2-A", LanguageCode: "es-US", Pitch: 1, OpenAIVoice: "nova"},
			),
			"fr": withTones(
				Voice{Name: "fr-FR-Neural2-A", LanguageCode: "fr-FR", OpenAIVoice: "alloy"},
				Voice{Name: "fr-FR-Neural2-C", LanguageCode: "fr-FR", Pitch: -2, OpenAIVoice: "shimmer"},
				Voice{Name: "fr-FR-Neural2-A", LanguageCode: "fr-FR", Pitch: 1, OpenAIVoice: "nova"},
			),
			"pt": withTones(
				Voice{Name: "pt-BR-Neural2-A", LanguageCode: "pt-BR", OpenAIVoice: "alloy"},
				Voice{Name: "pt-BR-Neural2-C", LanguageCode: "pt-BR", Pitch: -2, OpenAIVoice: "shimmer"},
				Voice{Name: "pt-BR-Neural2-A", LanguageCode: "pt-BR", Pitch: 1, OpenAIVoice: "nova"},
			),
			"zh": plain("cmn-CN-Wavenet-A", "cmn-CN"),
			"vi": plain("vi-VN-Wavenet-A", "vi-VN"),
			"ar": plain("ar-XA-Wavenet-A", "ar-XA"),
			"ru": plain("ru-RU-Wavenet-A", "ru-RU"),
			"ko": plain("ko-KR-Neural2-A", "ko-KR"),
			"ja": plain("ja-JP-Neural2-B", "ja-JP"),
			"de": plain("de-DE-Neural2-A", "de-DE"),
			"it": plain("it-IT-Neural2-A", "it-IT"),
			"hi": plain("hi-IN-Neural2-A", "hi-IN"),
			"pl": plain("pl-PL-Wavenet-A", "pl-PL"),
			"tl": plain("fil-PH-Wavenet-A", "fil-PH"),
		},
	}
}

func baseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		return code[:idx]
	}
	return code
}
