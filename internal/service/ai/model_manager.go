package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/constants"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/util"
)

// ErrCircuitOpen is returned while the shared breaker rejects model calls.
var ErrCircuitOpen = stderrors.New("model circuit open")

var (
	httpStatusPattern = regexp.MustCompile(`\b(5\d{2})\b`)
	geminiCodePattern = regexp.MustCompile(`"code":(\d{3})`)
	openaiCodePattern = regexp.MustCompile(`^(\d{3})\s`)
)

type ModelManager struct {
	gemini         *GeminiProvider
	primary        TextProvider
	fallback       TextProvider
	logger         *zap.Logger
	circuitBreaker *util.CircuitBreaker
}

type ModelManagerConfig struct {
	GeminiAPIKey       string
	OpenAIAPIKey       string
	DefaultGeminiModel string
	DefaultOpenAIModel string
	EnableFallback     bool
}

// NewModelManager wires Gemini as primary and OpenAI as fallback. With only an OpenAI key,
// OpenAI becomes the primary and there is no fallback.
func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	defaultGemini := cfg.DefaultGeminiModel
	if defaultGemini == "" {
		defaultGemini = "gemini-2.5-flash"
	}
	defaultOpenAI := cfg.DefaultOpenAIModel
	if defaultOpenAI == "" {
		defaultOpenAI = "gpt-4o-mini"
	}

	var geminiProvider *GeminiProvider
	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		geminiProvider = NewGeminiProvider(client, defaultGemini, logger)
	}

	openaiProvider := NewOpenAIProvider(cfg.OpenAIAPIKey, defaultOpenAI, logger)

	var primary, fallback TextProvider
	switch {
	case geminiProvider != nil:
		primary = geminiProvider
		if cfg.EnableFallback && openaiProvider != nil {
			fallback = openaiProvider
			logger.Info("OpenAI fallback enabled", zap.String("model", defaultOpenAI))
		}
	case openaiProvider != nil:
		primary = openaiProvider
	default:
		return nil, fmt.Errorf("no text generation provider configured")
	}

	mm := NewModelManagerWithProviders(primary, fallback, logger)
	mm.gemini = geminiProvider
	return mm, nil
}

// NewModelManagerWithProviders builds a manager around already-constructed providers.
func NewModelManagerWithProviders(primary, fallback TextProvider, logger *zap.Logger) *ModelManager {
	mm := &ModelManager{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
	mm.circuitBreaker = util.NewCircuitBreaker(
		"text-generation",
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.healthCheckPing,
		logger,
	)
	return mm
}

// GeminiClient exposes the shared genai client for other Gemini-backed services (audio STT).
func (mm *ModelManager) GeminiClient() *genai.Client {
	if mm.gemini == nil {
		return nil
	}
	return mm.gemini.Client()
}

// Complete runs the prompt on the primary provider and falls back once on failure.
func (mm *ModelManager) Complete(ctx context.Context, system, user string, sampling Sampling) (*Completion, error) {
	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.GetStatus()
		mm.logger.Warn("Text generation unavailable (circuit open)",
			zap.Int("failure_count", status.FailureCount),
		)
		return nil, ErrCircuitOpen
	}

	primaryResult, primaryErr := mm.invokeProvider(ctx, mm.primary, system, user, sampling)
	if primaryErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return &Completion{
			Text:     primaryResult.Text,
			Provider: mm.primary.Name(),
			Model:    primaryResult.Model,
		}, nil
	}

	if mm.fallback == nil || ctx.Err() != nil {
		mm.recordFailure(primaryErr)
		return nil, fmt.Errorf("%s: %w", providerName(mm.primary), primaryErr)
	}

	mm.logger.Info("Primary model failed, trying fallback",
		zap.String("primary", mm.primary.Name()),
		zap.String("fallback", mm.fallback.Name()),
		zap.Error(primaryErr),
	)

	fallbackResult, fallbackErr := mm.invokeProvider(ctx, mm.fallback, system, user, sampling)
	if fallbackErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return &Completion{
			Text:         fallbackResult.Text,
			Provider:     mm.fallback.Name(),
			Model:        fallbackResult.Model,
			UsedFallback: true,
		}, nil
	}

	mm.recordFailure(primaryErr)
	mm.recordFailure(fallbackErr)

	return nil, stderrors.Join(
		fmt.Errorf("%s: %w", providerName(mm.primary), primaryErr),
		fmt.Errorf("%s: %w", providerName(mm.fallback), fallbackErr),
	)
}

func (mm *ModelManager) invokeProvider(ctx context.Context, provider TextProvider, system, user string, sampling Sampling) (ProviderResult, error) {
	if provider == nil {
		return ProviderResult{}, fmt.Errorf("model provider is not configured")
	}
	return provider.Complete(ctx, system, user, sampling)
}

func providerName(p TextProvider) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}

// recordFailure only counts outages (timeouts, 5xx, rate limits) against the breaker.
func (mm *ModelManager) recordFailure(err error) {
	if !isServiceFailure(err) {
		return
	}

	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if isRateLimitError(err) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}

	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) healthCheckPing() bool {
	ctx, cancel := context.WithTimeout(context.Background(), constants.CircuitBreakerConfig.HealthCheckTimeout)
	defer cancel()

	primaryOK := mm.primary != nil && mm.primary.Ping(ctx)
	fallbackOK := mm.fallback != nil && mm.fallback.Ping(ctx)

	mm.logger.Info("Text generation health check",
		zap.Bool("primary", primaryOK),
		zap.Bool("fallback", fallbackOK),
	)

	return primaryOK || fallbackOK
}

func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := err.Error()
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT") {
		return true
	}
	if isRateLimitError(err) {
		return true
	}
	if httpStatusPattern.MatchString(msg) {
		return true
	}
	if code, ok := statusCode(msg); ok {
		return code >= 500 && code < 600
	}
	return false
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") {
		return true
	}
	if code, ok := statusCode(msg); ok {
		return code == 429
	}
	return false
}

func statusCode(msg string) (int, bool) {
	for _, pattern := range []*regexp.Regexp{geminiCodePattern, openaiCodePattern} {
		if matches := pattern.FindStringSubmatch(msg); len(matches) > 1 {
			if code, err := strconv.Atoi(matches[1]); err == nil {
				return code, true
			}
		}
	}
	return 0, false
}

func (mm *ModelManager) GetCircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.GetStatus()
}

func (mm *ModelManager) ResetCircuit() {
	mm.circuitBreaker.Reset()
}
