package translation

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/constants"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/prompt"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/ai"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/pkg/errors"
)

// Completer is the text generation capability the engine needs.
type Completer interface {
	Complete(ctx context.Context, system, user string, sampling ai.Sampling) (*ai.Completion, error)
}

type Config struct {
	Timeout   time.Duration
	MaxTokens int
}

// Engine translates masked text under a strict translate-only contract.
type Engine struct {
	completer Completer
	prompts   *prompt.PromptBuilder
	cfg       Config
	logger    *zap.Logger
}

func NewEngine(completer Completer, prompts *prompt.PromptBuilder, cfg Config, logger *zap.Logger) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.TranslationConfig.Timeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = constants.TranslationConfig.MaxTokens
	}
	if prompts == nil {
		prompts = prompt.NewPromptBuilder()
	}
	return &Engine{
		completer: completer,
		prompts:   prompts,
		cfg:       cfg,
		logger:    logger,
	}
}

// Translate returns the masked translation of maskedText. Same-language requests return the
// input without a model call.
func (e *Engine) Translate(ctx context.Context, maskedText, source, target string, tone domain.EmotionalTone) (string, error) {
	text := strings.TrimSpace(maskedText)
	if text == "" {
		return "", errors.NewValidationError("text to translate is empty", "text", "")
	}
	if SameLanguage(source, target) {
		return text, nil
	}

	data := prompt.NewTranslateData(text, source, target, tone)
	rendered, err := e.prompts.Render(prompt.TemplateTranslate, data)
	if err != nil {
		e.logger.Warn("Translate template render failed, using fallback prompt", zap.Error(err))
		rendered = prompt.FallbackTranslate(data)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	completion, err := e.completer.Complete(ctx, rendered.System, rendered.User, ai.Sampling{
		Temperature:     float32(constants.TranslationConfig.Temperature),
		TopP:            float32(constants.TranslationConfig.TopP),
		MaxOutputTokens: e.cfg.MaxTokens,
	})
	if err != nil {
		kind := errors.KindTranslationFailed
		if stderrors.Is(err, context.DeadlineExceeded) {
			kind = errors.KindProviderTimeout
		}
		return "", errors.New(kind, "translation failed", 502).
			WithCause(err).
			WithContext("source", source).
			WithContext("target", target)
	}

	translated := CleanOutput(completion.Text, text)
	if translated == "" {
		return "", errors.New(errors.KindTranslationFailed, "model returned an empty translation", 502).
			WithContext("provider", completion.Provider)
	}

	if missing := MissingPlaceholders(text, translated); len(missing) > 0 {
		e.logger.Warn("Translation dropped placeholders",
			zap.Strings("missing", missing),
			zap.String("provider", completion.Provider),
		)
	}

	e.logger.Debug("Translated",
		zap.String("source", source),
		zap.String("target", target),
		zap.String("provider", completion.Provider),
		zap.Bool("fallback", completion.UsedFallback),
		zap.Duration("latency", time.Since(start)),
	)

	return translated, nil
}

// SameLanguage compares the primary language subtags ("es-MX" == "es").
func SameLanguage(a, b string) bool {
	return baseLanguage(a) == baseLanguage(b)
}

func baseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		return code[:idx]
	}
	return code
}

var (
	fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")
	labelPattern = regexp.MustCompile(`(?i)^(translation|translated text|traducci[oó]n|traduction|output)\s*:\s*`)

	placeholderPattern = regexp.MustCompile(`__[A-Z_]+_\d+__`)
)

var quotePairs = [][2]string{
	{`"`, `"`},
	{"'", "'"},
	{"“", "”"},
	{"«", "»"},
	{"「", "」"},
}

// CleanOutput strips wrappers models add despite instructions: code fences, a leading
// "Translation:" label, and quotes the input did not have.
func CleanOutput(output, input string) string {
	cleaned := strings.TrimSpace(output)

	if m := fencePattern.FindStringSubmatch(cleaned); m != nil {
		cleaned = strings.TrimSpace(m[1])
	}

	cleaned = strings.TrimSpace(labelPattern.ReplaceAllString(cleaned, ""))

	for _, pair := range quotePairs {
		if strings.HasPrefix(input, pair[0]) {
			continue
		}
		if len(cleaned) >= len(pair[0])+len(pair[1]) &&
			strings.HasPrefix(cleaned, pair[0]) && strings.HasSuffix(cleaned, pair[1]) {
			cleaned = strings.TrimSpace(cleaned[len(pair[0]) : len(cleaned)-len(pair[1])])
			break
		}
	}

	return cleaned
}

// MissingPlaceholders lists placeholders present in input but absent from output.
func MissingPlaceholders(input, output string) []string {
	var missing []string
	for _, placeholder := range placeholderPattern.FindAllString(input, -1) {
		if !strings.Contains(output, placeholder) {
			missing = append(missing, placeholder)
		}
	}
	return missing
}
