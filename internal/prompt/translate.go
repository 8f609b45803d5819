package prompt

import (
	"strings"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"pt": "Portuguese",
	"zh": "Chinese",
	"vi": "Vietnamese",
	"ar": "Arabic",
	"so": "Somali",
	"ru": "Russian",
	"ht": "Haitian Creole",
	"ko": "Korean",
	"ja": "Japanese",
	"de": "German",
	"it": "Italian",
	"tl": "Tagalog",
	"hi": "Hindi",
	"pl": "Polish",
}

var toneGuidance = map[domain.EmotionalTone]string{
	domain.ToneFriendly:     "warm and friendly, as a welcoming branch employee would speak",
	domain.ToneEmpathetic:   "gentle and empathetic; the speaker may be upset",
	domain.ToneCalming:      "calm and measured; the speaker may be angry, so avoid sharp wording",
	domain.ToneReassuring:   "reassuring and steady; the speaker may be worried",
	domain.ToneClarifying:   "clear and simple; the speaker may be confused",
	domain.ToneEnthusiastic: "upbeat while staying professional",
	domain.TonePatient:      "patient and polite; the speaker may be frustrated",
	domain.TonePositive:     "positive and appreciative",
	domain.ToneProfessional: "neutral and professional, as in a bank branch",
}

// LanguageName maps an ISO 639-1 code (optionally with a region, "es-MX") to an English name.
func LanguageName(code string) string {
	base := strings.ToLower(code)
	if idx := strings.IndexAny(base, "-_"); idx > 0 {
		base = base[:idx]
	}
	if name, ok := languageNames[base]; ok {
		return name
	}
	return code
}

func ToneGuidance(tone domain.EmotionalTone) string {
	if guidance, ok := toneGuidance[tone]; ok {
		return guidance
	}
	return toneGuidance[domain.ToneProfessional]
}

type TranslateData struct {
	SourceCode   string
	SourceName   string
	TargetCode   string
	TargetName   string
	ToneGuidance string
	Text         string
}

func NewTranslateData(text, source, target string, tone domain.EmotionalTone) TranslateData {
	return TranslateData{
		SourceCode:   source,
		SourceName:   LanguageName(source),
		TargetCode:   target,
		TargetName:   LanguageName(target),
		ToneGuidance: ToneGuidance(tone),
		Text:         text,
	}
}
