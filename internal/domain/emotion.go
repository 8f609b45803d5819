package domain

// EmotionalTone is the closed vocabulary that steers wording register and voice choice.
type EmotionalTone string

const (
	ToneFriendly     EmotionalTone = "friendly"
	ToneEmpathetic   EmotionalTone = "empathetic"
	ToneCalming      EmotionalTone = "calming"
	ToneReassuring   EmotionalTone = "reassuring"
	ToneClarifying   EmotionalTone = "clarifying"
	ToneEnthusiastic EmotionalTone = "enthusiastic"
	TonePatient      EmotionalTone = "patient"
	TonePositive     EmotionalTone = "positive"
	ToneProfessional EmotionalTone = "professional"
)

var allTones = []EmotionalTone{
	ToneFriendly, ToneEmpathetic, ToneCalming, ToneReassuring, ToneClarifying,
	ToneEnthusiastic, TonePatient, TonePositive, ToneProfessional,
}

func (t EmotionalTone) Valid() bool {
	for _, tone := range allTones {
		if t == tone {
			return true
		}
	}
	return false
}

// ParseTone accepts a tone name and falls back to professional when unrecognised.
func ParseTone(value string) (EmotionalTone, bool) {
	tone := EmotionalTone(value)
	if tone.Valid() {
		return tone, true
	}
	return ToneProfessional, false
}

type EmotionScore struct {
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

type EmotionAnalysis struct {
	Emotions []EmotionScore `json:"emotions"`
	Primary  string         `json:"primary"`
	Tone     EmotionalTone  `json:"tone"`
	Fallback bool           `json:"fallback,omitempty"`
}
