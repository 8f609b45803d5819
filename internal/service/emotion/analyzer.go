package emotion

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/constants"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

// Analyzer never fails: without a usable classifier result it returns Default().
type Analyzer struct {
	classifier Classifier
	timeout    time.Duration
	logger     *zap.Logger
}

// NewAnalyzer accepts a nil classifier, which disables classification.
func NewAnalyzer(classifier Classifier, timeout time.Duration, logger *zap.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = constants.EmotionConfig.Timeout
	}
	return &Analyzer{classifier: classifier, timeout: timeout, logger: logger}
}

func (a *Analyzer) Analyze(ctx context.Context, audio []byte) domain.EmotionAnalysis {
	if a.classifier == nil || len(audio) == 0 {
		return Default()
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.classifier.Classify(ctx, audio)
	if err != nil {
		a.logger.Warn("Emotion classifier unavailable, using default tone", zap.Error(err))
		return Default()
	}
	if result == nil || (len(result.Emotions) == 0 && result.DominantEmotion == "") {
		return Default()
	}

	primary := strings.ToLower(strings.TrimSpace(result.DominantEmotion))
	if primary == "" {
		primary = strongest(result.Emotions)
	}

	analysis := domain.EmotionAnalysis{
		Emotions: result.Emotions,
		Primary:  primary,
		Tone:     ToneFor(primary),
	}
	a.logger.Debug("Emotion analyzed",
		zap.String("primary", analysis.Primary),
		zap.String("tone", string(analysis.Tone)),
	)
	return analysis
}

func strongest(scores []domain.EmotionScore) string {
	best := -1.0
	label := ""
	for _, s := range scores {
		if s.Score > best {
			best = s.Score
			label = s.Label
		}
	}
	return strings.ToLower(strings.TrimSpace(label))
}
