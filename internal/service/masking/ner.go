package masking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

// NamedEntityProvider is an optional recognizer that contributes PERSON spans.
type NamedEntityProvider interface {
	Detect(ctx context.Context, text string) ([]domain.Entity, error)
}

type nerRequest struct {
	Text string `json:"text"`
}

type nerEntity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	StartPos   int     `json:"start_pos"`
	EndPos     int     `json:"end_pos"`
	Confidence float64 `json:"confidence"`
}

type nerResponse struct {
	Text     string      `json:"text"`
	Entities []nerEntity `json:"entities"`
}

// HTTPRecognizer calls a PII/NER sidecar at POST {baseURL}/detect.
type HTTPRecognizer struct {
	baseURL       string
	minConfidence float64
	http          *resty.Client
}

func NewHTTPRecognizer(baseURL string, timeout time.Duration) *HTTPRecognizer {
	return &HTTPRecognizer{
		baseURL:       strings.TrimRight(baseURL, "/"),
		minConfidence: 0.5,
		http:          resty.New().SetTimeout(timeout),
	}
}

func (r *HTTPRecognizer) Detect(ctx context.Context, text string) ([]domain.Entity, error) {
	var resp nerResponse
	rr, err := r.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(nerRequest{Text: text}).
		SetResult(&resp).
		Post(r.baseURL + "/detect")
	if err != nil {
		return nil, err
	}
	if rr.IsError() {
		return nil, fmt.Errorf("ner detect: %s; body: %s", rr.Status(), rr.String())
	}

	out := make([]domain.Entity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		if e.Confidence > 0 && e.Confidence < r.minConfidence {
			continue
		}
		entityType, ok := labelToType(e.Label)
		if !ok {
			continue
		}
		entity, ok := anchor(text, e.Text, e.StartPos, e.EndPos)
		if !ok {
			continue
		}
		entity.Type = entityType
		out = append(out, entity)
	}
	return out, nil
}

func labelToType(label string) (domain.EntityType, bool) {
	switch strings.ToUpper(label) {
	case "PERSON", "PER", "NAME", "FIRSTNAME", "SURNAME":
		return domain.EntityPerson, true
	case "ACCOUNTNUM", "ACCOUNT":
		return domain.EntityAccountNumber, true
	case "SOCIALNUM", "SSN":
		return domain.EntitySSN, true
	case "DATE", "DATEOFBIRTH":
		return domain.EntityDate, true
	}
	return domain.ParseEntityType(strings.ToUpper(label))
}

// anchor reconciles recognizer offsets with the text, which may count runes instead of bytes.
func anchor(text, literal string, start, end int) (domain.Entity, bool) {
	if literal == "" {
		return domain.Entity{}, false
	}
	if start >= 0 && end <= len(text) && start < end && text[start:end] == literal {
		return domain.Entity{Text: literal, Start: start, End: end}, true
	}
	idx := strings.Index(text, literal)
	if idx < 0 {
		return domain.Entity{}, false
	}
	return domain.Entity{Text: literal, Start: idx, End: idx + len(literal)}, true
}
