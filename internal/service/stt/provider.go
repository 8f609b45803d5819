package stt

import (
	"context"
	"strings"
	"time"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

// Provider is one speech-to-text backend. Implementations should honour ctx, but the
// router does not depend on it.
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, language string) (*ProviderTranscript, error)
}

type ProviderTranscript struct {
	Text     string
	Language string
	Duration time.Duration
	Segments []domain.TranscriptSegment
}

// wireSegment is the segment shape shared by the Whisper-style HTTP and WebSocket servers.
type wireSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type wireTranscript struct {
	Text     string        `json:"text"`
	Language string        `json:"language"`
	Duration float64       `json:"duration"`
	Segments []wireSegment `json:"segments"`
	Error    string        `json:"error,omitempty"`
}

func (w wireTranscript) toTranscript() *ProviderTranscript {
	out := &ProviderTranscript{
		Text:     w.Text,
		Language: w.Language,
		Duration: seconds(w.Duration),
	}
	for _, s := range w.Segments {
		out.Segments = append(out.Segments, domain.TranscriptSegment{
			Text:  s.Text,
			Start: seconds(s.Start),
			End:   seconds(s.End),
		})
	}
	if out.Text == "" && len(out.Segments) > 0 {
		parts := make([]string, 0, len(out.Segments))
		for _, s := range out.Segments {
			parts = append(parts, strings.TrimSpace(s.Text))
		}
		out.Text = strings.Join(parts, " ")
	}
	return out
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
