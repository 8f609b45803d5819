package emotion

import (
	"strings"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

var toneTable = map[string]domain.EmotionalTone{
	"joy":          domain.ToneFriendly,
	"happiness":    domain.ToneFriendly,
	"happy":        domain.ToneFriendly,
	"sadness":      domain.ToneEmpathetic,
	"sad":          domain.ToneEmpathetic,
	"anger":        domain.ToneCalming,
	"angry":        domain.ToneCalming,
	"fear":         domain.ToneReassuring,
	"anxiety":      domain.ToneReassuring,
	"confusion":    domain.ToneClarifying,
	"surprise":     domain.ToneClarifying,
	"excitement":   domain.ToneEnthusiastic,
	"frustration":  domain.TonePatient,
	"disgust":      domain.TonePatient,
	"satisfaction": domain.TonePositive,
	"neutral":      domain.ToneProfessional,
}

// ToneFor maps a classifier label to a tone; unknown labels are professional.
func ToneFor(label string) domain.EmotionalTone {
	if tone, ok := toneTable[strings.ToLower(strings.TrimSpace(label))]; ok {
		return tone
	}
	return domain.ToneProfessional
}

// Default is the analysis used whenever no classifier result is available.
func Default() domain.EmotionAnalysis {
	return domain.EmotionAnalysis{
		Emotions: []domain.EmotionScore{{Label: "neutral", Score: 1.0, Confidence: 0}},
		Primary:  "neutral",
		Tone:     domain.ToneProfessional,
		Fallback: true,
	}
}
