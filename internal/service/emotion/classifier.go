package emotion

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/util"
)

// Classifier scores the vocal emotion of an audio segment.
type Classifier interface {
	Classify(ctx context.Context, audio []byte) (*Classification, error)
}

type Classification struct {
	Emotions        []domain.EmotionScore `json:"emotions"`
	DominantEmotion string                `json:"dominant_emotion"`
}

// HTTPClassifier uploads the segment to POST {baseURL}/detect as multipart "file".
type HTTPClassifier struct {
	baseURL string
	http    *resty.Client
}

func NewHTTPClassifier(baseURL string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    resty.New().SetTimeout(timeout),
	}
}

func (c *HTTPClassifier) Classify(ctx context.Context, audio []byte) (*Classification, error) {
	var out Classification
	rr, err := c.http.R().SetContext(ctx).
		SetFileReader("file", "segment"+util.DetectAudioFormat(audio).Extension, bytes.NewReader(audio)).
		SetResult(&out).
		Post(c.baseURL + "/detect")
	if err != nil {
		return nil, err
	}
	if rr.IsError() {
		return nil, fmt.Errorf("emotion detect: %s; body: %s", rr.Status(), rr.String())
	}
	return &out, nil
}
