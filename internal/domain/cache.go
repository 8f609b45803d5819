package domain

import "time"

// CacheHitKind reports which lookup tier produced a hit.
type CacheHitKind string

const (
	CacheHitNone     CacheHitKind = ""
	CacheHitExact    CacheHitKind = "exact"
	CacheHitGreeting CacheHitKind = "greeting"
	CacheHitSimilar  CacheHitKind = "similar"
)

func (k CacheHitKind) IsHit() bool {
	return k != CacheHitNone
}

type CustomerAttributes struct {
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	VisitReason string `json:"visit_reason,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

func (a CustomerAttributes) IsEmpty() bool {
	return a.Name == "" && a.Phone == "" && a.VisitReason == "" && a.Notes == ""
}

// Merge fills empty fields of a from other.
func (a CustomerAttributes) Merge(other CustomerAttributes) CustomerAttributes {
	if a.Name == "" {
		a.Name = other.Name
	}
	if a.Phone == "" {
		a.Phone = other.Phone
	}
	if a.VisitReason == "" {
		a.VisitReason = other.VisitReason
	}
	if a.Notes == "" {
		a.Notes = other.Notes
	}
	return a
}

type CacheEntry struct {
	Hash               string
	OriginalText       string
	TranslatedText     string
	SourceLanguage     string
	TargetLanguage     string
	EmotionalContext   EmotionalTone
	CustomerAttributes CustomerAttributes
	AudioDuration      time.Duration
	ProcessingTime     time.Duration
	CreatedAt          time.Time
	LastUsed           time.Time
	UseCount           int64
	IsGreeting         bool
	IsCommonPhrase     bool
	// Similarity is set only on similarity-tier hits.
	Similarity float64
}
