package ai

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type fakeProvider struct {
	name   string
	text   string
	err    error
	calls  int
	system string
	user   string
	last   Sampling
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(_ context.Context, system, user string, sampling Sampling) (ProviderResult, error) {
	f.calls++
	f.system = system
	f.user = user
	f.last = sampling
	if f.err != nil {
		return ProviderResult{}, f.err
	}
	return ProviderResult{Text: f.text, Model: f.name + "-model"}, nil
}

func (f *fakeProvider) Ping(context.Context) bool { return f.err == nil }

func TestCompleteUsesPrimary(t *testing.T) {
	primary := &fakeProvider{name: "primary", text: "hola"}
	fallback := &fakeProvider{name: "fallback", text: "unused"}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	sampling := GetPresetConfig(PresetDeterministic)
	got, err := mm.Complete(context.Background(), "sys", "hello", sampling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "hola" || got.Provider != "primary" || got.UsedFallback {
		t.Fatalf("unexpected completion: %+v", got)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback should not be called")
	}
	if primary.system != "sys" || primary.last.Temperature != 0 || primary.last.TopP != 1.0 {
		t.Fatalf("prompt or sampling not forwarded: %+v", primary)
	}
}

func TestCompleteFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("503 Service Unavailable")}
	fallback := &fakeProvider{name: "fallback", text: "bonjour"}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	got, err := mm.Complete(context.Background(), "sys", "hello", Sampling{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.UsedFallback || got.Provider != "fallback" {
		t.Fatalf("expected fallback completion, got %+v", got)
	}
}

func TestCompleteBothFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("bad request")}
	fallback := &fakeProvider{name: "fallback", err: errors.New("bad request")}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	if _, err := mm.Complete(context.Background(), "", "x", Sampling{}); err == nil {
		t.Fatalf("expected error when both providers fail")
	}
}

func TestCircuitOpensOnServiceFailures(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("500 internal error")}
	mm := NewModelManagerWithProviders(primary, nil, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, _ = mm.Complete(context.Background(), "", "x", Sampling{})
	}

	_, err := mm.Complete(context.Background(), "", "x", Sampling{})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if primary.calls != 3 {
		t.Fatalf("expected 3 provider calls before the breaker opened, got %d", primary.calls)
	}
}

func TestClientErrorsDoNotTripCircuit(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("400 invalid argument")}
	mm := NewModelManagerWithProviders(primary, nil, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, _ = mm.Complete(context.Background(), "", "x", Sampling{})
	}
	if primary.calls != 5 {
		t.Fatalf("client errors should not open the breaker, calls=%d", primary.calls)
	}
}

func TestServiceFailureClassification(t *testing.T) {
	tests := []struct {
		msg       string
		service   bool
		rateLimit bool
	}{
		{msg: "request timeout", service: true},
		{msg: `{"error":{"code":503}}`, service: true},
		{msg: "429 Too Many Requests", service: true, rateLimit: true},
		{msg: "quota exceeded", service: true, rateLimit: true},
		{msg: "400 bad request", service: false},
	}
	for _, tt := range tests {
		err := errors.New(tt.msg)
		if got := isServiceFailure(err); got != tt.service {
			t.Fatalf("isServiceFailure(%q) = %v", tt.msg, got)
		}
		if got := isRateLimitError(err); got != tt.rateLimit {
			t.Fatalf("isRateLimitError(%q) = %v", tt.msg, got)
		}
	}
}
