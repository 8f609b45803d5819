package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("STT_PROVIDERS", "")
	t.Setenv("CACHE_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if got := cfg.STT.Providers; len(got) != 3 || got[0] != "persistent" || got[2] != "gemini" {
		t.Fatalf("unexpected default providers: %v", got)
	}
	if cfg.Cache.Backend != "sqlite" {
		t.Fatalf("expected sqlite backend, got %s", cfg.Cache.Backend)
	}
	if cfg.Cache.MaxAge != 24*time.Hour {
		t.Fatalf("expected 24h max age, got %s", cfg.Cache.MaxAge)
	}
	if cfg.Cache.SimilarityThreshold != 0.8 {
		t.Fatalf("expected similarity threshold 0.8, got %v", cfg.Cache.SimilarityThreshold)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("STT_PROVIDERS", " Local , google ")
	t.Setenv("STT_PROVIDER_TIMEOUT", "4")
	t.Setenv("CACHE_MAX_AGE", "2h")
	t.Setenv("CACHE_BACKEND", "MEMORY")
	t.Setenv("TTS_SPEED", "1.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if got := cfg.STT.Providers; len(got) != 2 || got[0] != "local" || got[1] != "google" {
		t.Fatalf("unexpected providers: %v", got)
	}
	if cfg.STT.ProviderTimeout != 4*time.Second {
		t.Fatalf("expected 4s provider timeout, got %s", cfg.STT.ProviderTimeout)
	}
	if cfg.Cache.MaxAge != 2*time.Hour {
		t.Fatalf("expected 2h max age, got %s", cfg.Cache.MaxAge)
	}
	if cfg.Cache.Backend != "memory" {
		t.Fatalf("expected memory backend, got %s", cfg.Cache.Backend)
	}
	if cfg.TTS.Speed != 1.25 {
		t.Fatalf("expected speed 1.25, got %v", cfg.TTS.Speed)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no model key", mutate: func(c *Config) { c.Gemini.APIKey = "" }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.STT.Providers = []string{"whisperx"} }, wantErr: true},
		{name: "empty providers", mutate: func(c *Config) { c.STT.Providers = nil }, wantErr: true},
		{name: "bad backend", mutate: func(c *Config) { c.Cache.Backend = "mongo" }, wantErr: true},
		{name: "bad threshold", mutate: func(c *Config) { c.Cache.SimilarityThreshold = 1.5 }, wantErr: true},
		{name: "bad tts", mutate: func(c *Config) { c.TTS.Provider = "polly" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Cache:    CacheConfig{Backend: "memory", SimilarityThreshold: 0.8},
				Gemini:   GeminiConfig{APIKey: "k"},
				STT:      STTConfig{Providers: []string{"local"}},
				TTS:      TTSConfig{Provider: "none"},
				Pipeline: PipelineConfig{BatchConcurrency: 1},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
