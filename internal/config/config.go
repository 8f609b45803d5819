package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/constants"
)

type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Cache    CacheConfig
	Postgres PostgresConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	STT      STTConfig
	NER      NERConfig
	Emotion  EmotionConfig
	TTS      TTSConfig
	Pipeline PipelineConfig
}

type ServerConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level string
	File  string
}

// CacheConfig selects the conversation cache backend: "postgres", "sqlite" or "memory".
type CacheConfig struct {
	Backend             string
	MaxAge              time.Duration
	CleanupInterval     time.Duration
	SimilarityThreshold float64
	SimilaritySample    int
	UseRedis            bool
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	EnableFallback bool
}

type STTConfig struct {
	Providers       []string
	PersistentURL   string
	LocalURL        string
	GeminiModel     string
	GoogleAPIKey    string
	ProviderTimeout time.Duration
	FastTimeout     time.Duration
	TempDir         string
}

type NERConfig struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

type EmotionConfig struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

// TTSConfig selects the synthesis provider: "google", "openai" or "none".
type TTSConfig struct {
	Provider     string
	GoogleAPIKey string
	OpenAIURL    string
	OpenAIAPIKey string
	OpenAIModel  string
	Speed        float64
	AudioFormat  string
	VoicesFile   string
	Timeout      time.Duration
}

type PipelineConfig struct {
	FastPathMaxBytes int
	BatchConcurrency int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr: getEnv("SERVER_ADDR", ":8080"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Cache: CacheConfig{
			Backend:             strings.ToLower(getEnv("CACHE_BACKEND", "sqlite")),
			MaxAge:              getEnvDuration("CACHE_MAX_AGE", constants.CacheConfig.MaxAge),
			CleanupInterval:     getEnvDuration("CACHE_CLEANUP_INTERVAL", constants.CacheConfig.CleanupInterval),
			SimilarityThreshold: getEnvFloat("CACHE_SIMILARITY_THRESHOLD", constants.CacheConfig.SimilarityThreshold),
			SimilaritySample:    getEnvInt("CACHE_SIMILARITY_SAMPLE", constants.CacheConfig.SimilaritySample),
			UseRedis:            getEnvBool("CACHE_USE_REDIS", false),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "translator"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "translator"),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "data/translation_cache.db"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		STT: STTConfig{
			Providers:       parseCommaSeparated(getEnv("STT_PROVIDERS", "persistent,local,gemini")),
			PersistentURL:   getEnv("STT_PERSISTENT_URL", "ws://localhost:9090/ws"),
			LocalURL:        getEnv("STT_LOCAL_URL", "http://localhost:9000"),
			GeminiModel:     getEnv("STT_GEMINI_MODEL", "gemini-2.5-flash"),
			GoogleAPIKey:    getEnv("GOOGLE_SPEECH_API_KEY", ""),
			ProviderTimeout: getEnvDuration("STT_PROVIDER_TIMEOUT", constants.STTConfig.ProviderTimeout),
			FastTimeout:     getEnvDuration("STT_FAST_TIMEOUT", constants.STTConfig.FastTimeout),
			TempDir:         getEnv("STT_TEMP_DIR", os.TempDir()),
		},
		NER: NERConfig{
			Enabled: getEnvBool("NER_ENABLED", false),
			URL:     getEnv("NER_URL", "http://localhost:8765"),
			Timeout: getEnvDuration("NER_TIMEOUT", constants.MaskingConfig.NERTimeout),
		},
		Emotion: EmotionConfig{
			Enabled: getEnvBool("EMOTION_ENABLED", false),
			URL:     getEnv("EMOTION_URL", "http://localhost:8001"),
			Timeout: getEnvDuration("EMOTION_TIMEOUT", constants.EmotionConfig.Timeout),
		},
		TTS: TTSConfig{
			Provider:     strings.ToLower(getEnv("TTS_PROVIDER", "google")),
			GoogleAPIKey: getEnv("GOOGLE_TTS_API_KEY", ""),
			OpenAIURL:    getEnv("TTS_OPENAI_URL", "https://api.openai.com"),
			OpenAIAPIKey: getEnv("TTS_OPENAI_API_KEY", getEnv("OPENAI_API_KEY", "")),
			OpenAIModel:  getEnv("TTS_OPENAI_MODEL", "tts-1"),
			Speed:        getEnvFloat("TTS_SPEED", constants.TTSConfig.DefaultSpeed),
			AudioFormat:  strings.ToLower(getEnv("TTS_AUDIO_FORMAT", "mp3")),
			VoicesFile:   getEnv("TTS_VOICES_FILE", ""),
			Timeout:      getEnvDuration("TTS_TIMEOUT", constants.TTSConfig.Timeout),
		},
		Pipeline: PipelineConfig{
			FastPathMaxBytes: getEnvInt("PIPELINE_FAST_PATH_MAX_BYTES", constants.PipelineConfig.FastPathMaxBytes),
			BatchConcurrency: getEnvInt("PIPELINE_BATCH_CONCURRENCY", constants.PipelineConfig.BatchConcurrency),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.STT.Providers) == 0 {
		return fmt.Errorf("STT_PROVIDERS must name at least one provider")
	}
	for _, name := range c.STT.Providers {
		switch name {
		case "persistent", "local", "gemini", "google":
		default:
			return fmt.Errorf("unknown STT provider %q", name)
		}
	}
	if c.Gemini.APIKey == "" && c.OpenAI.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY or OPENAI_API_KEY is required")
	}
	switch c.Cache.Backend {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.Cache.SimilarityThreshold <= 0 || c.Cache.SimilarityThreshold > 1 {
		return fmt.Errorf("CACHE_SIMILARITY_THRESHOLD must be in (0, 1]")
	}
	switch c.TTS.Provider {
	case "google", "openai", "none":
	default:
		return fmt.Errorf("unknown TTS_PROVIDER %q", c.TTS.Provider)
	}
	if c.Pipeline.BatchConcurrency < 1 {
		return fmt.Errorf("PIPELINE_BATCH_CONCURRENCY must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s") or bare seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
