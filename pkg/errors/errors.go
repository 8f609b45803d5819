package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure crossing a component boundary.
type Kind string

const (
	KindNoSpeechDetected   Kind = "NO_SPEECH_DETECTED"
	KindProviderTimeout    Kind = "PROVIDER_TIMEOUT"
	KindProviderError      Kind = "PROVIDER_ERROR"
	KindAllProvidersFailed Kind = "ALL_PROVIDERS_FAILED"
	KindMaskingIntegrity   Kind = "MASKING_INTEGRITY_WARNING"
	KindCacheUnavailable   Kind = "CACHE_UNAVAILABLE"
	KindSynthesisFailed    Kind = "SYNTHESIS_FAILED"
	KindTranslationFailed  Kind = "TRANSLATION_FAILED"
	KindValidation         Kind = "VALIDATION_ERROR"
	KindInternal           Kind = "INTERNAL_ERROR"
)

func (k Kind) String() string {
	return string(k)
}

type TranslatorError struct {
	Message    string
	Kind       Kind
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *TranslatorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslatorError) Unwrap() error {
	return e.Cause
}

func (e *TranslatorError) WithCause(cause error) *TranslatorError {
	e.Cause = cause
	return e
}

func (e *TranslatorError) WithContext(key string, value any) *TranslatorError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func New(kind Kind, message string, statusCode int) *TranslatorError {
	return &TranslatorError{
		Message:    message,
		Kind:       kind,
		StatusCode: statusCode,
	}
}

// NoSpeechDetected is terminal but not a failure: callers render an empty result.
func NoSpeechDetected() *TranslatorError {
	return New(KindNoSpeechDetected, "no speech detected in audio segment", 200)
}

type ProviderError struct {
	*TranslatorError
	Provider  string
	Operation string
}

func NewProviderError(provider, operation string, cause error) *ProviderError {
	return &ProviderError{
		TranslatorError: &TranslatorError{
			Message:    fmt.Sprintf("%s %s failed", provider, operation),
			Kind:       KindProviderError,
			StatusCode: 502,
			Context: map[string]any{
				"provider":  provider,
				"operation": operation,
			},
			Cause: cause,
		},
		Provider:  provider,
		Operation: operation,
	}
}

func NewProviderTimeout(provider, operation string, cause error) *ProviderError {
	pe := NewProviderError(provider, operation, cause)
	pe.Kind = KindProviderTimeout
	pe.StatusCode = 504
	pe.Message = fmt.Sprintf("%s %s timed out", provider, operation)
	return pe
}

type AllProvidersFailedError struct {
	*TranslatorError
	Attempts []error
}

func NewAllProvidersFailed(operation string, attempts []error) *AllProvidersFailedError {
	return &AllProvidersFailedError{
		TranslatorError: &TranslatorError{
			Message:    fmt.Sprintf("all %s providers failed", operation),
			Kind:       KindAllProvidersFailed,
			StatusCode: 503,
			Context: map[string]any{
				"operation": operation,
				"attempts":  len(attempts),
			},
			Cause: stderrors.Join(attempts...),
		},
		Attempts: attempts,
	}
}

type CacheError struct {
	*TranslatorError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		TranslatorError: &TranslatorError{
			Message:    message,
			Kind:       KindCacheUnavailable,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ValidationError struct {
	*TranslatorError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		TranslatorError: &TranslatorError{
			Message:    message,
			Kind:       KindValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type kinded interface {
	ErrKind() Kind
}

func (e *TranslatorError) ErrKind() Kind {
	return e.Kind
}

// KindOf reports the Kind of the outermost typed error in err's chain, or
// KindInternal for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var k kinded
	if stderrors.As(err, &k) {
		return k.ErrKind()
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
