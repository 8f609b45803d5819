package domain

import "time"

// SpeakerRole identifies who produced an utterance.
type SpeakerRole string

const (
	SpeakerStaff    SpeakerRole = "staff"
	SpeakerCustomer SpeakerRole = "customer"
)

// SpeechSegment is one bounded span of captured speech for a single speaker turn.
type SpeechSegment struct {
	Audio          []byte
	SourceLanguage string
	TargetLanguage string
	SessionID      string
	SpeakerRole    SpeakerRole
	EmotionHint    EmotionalTone
}

type TranscriptSegment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

type TranscriptionResult struct {
	Text     string
	Language string
	Provider string
	Latency  time.Duration
	Duration time.Duration
	Segments []TranscriptSegment
}
