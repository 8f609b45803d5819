package constants

import "time"

var STTConfig = struct {
	ProviderTimeout     time.Duration
	FastTimeout         time.Duration
	ReconnectDelay      time.Duration
	MaxReconnectAttempt int
	HandshakeTimeout    time.Duration
}{
	ProviderTimeout:     10 * time.Second,
	FastTimeout:         3 * time.Second,
	ReconnectDelay:      2 * time.Second,
	MaxReconnectAttempt: 3,
	HandshakeTimeout:    5 * time.Second,
}

var CacheConfig = struct {
	MaxAge              time.Duration
	CleanupInterval     time.Duration
	SimilarityThreshold float64
	SimilaritySample    int
	MinProtectedUses    int64
	HotTTL              time.Duration
	HotKeyPrefix        string
}{
	MaxAge:              24 * time.Hour,
	CleanupInterval:     1 * time.Hour,
	SimilarityThreshold: 0.8,
	SimilaritySample:    50,
	MinProtectedUses:    2,
	HotTTL:              30 * time.Minute,
	HotKeyPrefix:        "translator:cache:",
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

var DatabaseConfig = struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	QueryTimeout    time.Duration
}{
	MaxOpenConns:    25,
	MaxIdleConns:    5,
	ConnMaxLifetime: 5 * time.Minute,
	PingTimeout:     5 * time.Second,
	QueryTimeout:    30 * time.Second,
}

var MaskingConfig = struct {
	KeywordWindow int
	NERTimeout    time.Duration
}{
	KeywordWindow: 30,
	NERTimeout:    2 * time.Second,
}

var EmotionConfig = struct {
	Timeout time.Duration
}{
	Timeout: 3 * time.Second,
}

var TranslationConfig = struct {
	Timeout     time.Duration
	Temperature float64
	TopP        float64
	MaxTokens   int
}{
	Timeout:     15 * time.Second,
	Temperature: 0,
	TopP:        1.0,
	MaxTokens:   1024,
}

var TTSConfig = struct {
	Timeout      time.Duration
	DefaultSpeed float64
	DefaultVoice string
}{
	Timeout:      10 * time.Second,
	DefaultSpeed: 1.0,
	DefaultVoice: "en-US-Neural2-F",
}

var PipelineConfig = struct {
	FastPathMaxBytes  int
	BatchConcurrency  int
	CacheStoreTimeout time.Duration
}{
	FastPathMaxBytes:  64 * 1024,
	BatchConcurrency:  4,
	CacheStoreTimeout: 2 * time.Second,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    5 * time.Minute,
	HealthCheckInterval: 2 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var ServerConfig = struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxAudioBytes   int64
}{
	ReadTimeout:     30 * time.Second,
	WriteTimeout:    60 * time.Second,
	ShutdownTimeout: 10 * time.Second,
	MaxAudioBytes:   10 << 20,
}

var StringLimits = struct {
	LogPreview int
}{
	LogPreview: 40,
}
