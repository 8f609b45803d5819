package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/config"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/pipeline"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/prompt"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/server"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/ai"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/cache"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/database"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/emotion"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/masking"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/stt"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/translation"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/tts"
)

// Container bundles the assembled services. Close releases them in reverse build order.
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Orchestrator *pipeline.Orchestrator
	Cache        *cache.Service
	Server       *server.Server

	closers []func()
}

// Build assembles every service from cfg. All network clients and database handles are
// opened here so that the orchestrator only sees ready components.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Text generation
	modelManager, err := ai.NewModelManager(ctx, ai.ModelManagerConfig{
		GeminiAPIKey:       cfg.Gemini.APIKey,
		OpenAIAPIKey:       cfg.OpenAI.APIKey,
		DefaultGeminiModel: cfg.Gemini.Model,
		DefaultOpenAIModel: cfg.OpenAI.Model,
		EnableFallback:     cfg.OpenAI.EnableFallback,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}

	// Speech to text
	providers, providerClosers, err := buildSTTProviders(ctx, cfg, modelManager, logger)
	closers = append(closers, providerClosers...)
	if err != nil {
		return nil, err
	}
	router := stt.NewRouter(providers, cfg.STT.ProviderTimeout, cfg.STT.FastTimeout, logger)

	// Conversation cache
	store, storeCloser := OpenCacheStore(ctx, cfg, logger)
	if storeCloser != nil {
		closers = append(closers, storeCloser)
	}

	var hot cache.HotLayer
	if cfg.Cache.UseRedis {
		redisCache, redisErr := cache.NewRedisHotCache(ctx, cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if redisErr != nil {
			logger.Warn("Redis unavailable, exact hits served from the store only", zap.Error(redisErr))
		} else {
			hot = redisCache
			closers = append(closers, func() { _ = redisCache.Close() })
		}
	}

	cacheSvc := cache.NewService(store, hot, cache.Options{
		MaxAge:              cfg.Cache.MaxAge,
		CleanupInterval:     cfg.Cache.CleanupInterval,
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
		SimilaritySample:    cfg.Cache.SimilaritySample,
	}, logger)

	// Masking
	var recognizer masking.NamedEntityProvider
	if cfg.NER.Enabled {
		recognizer = masking.NewHTTPRecognizer(cfg.NER.URL, cfg.NER.Timeout)
		logger.Info("NER service enabled", zap.String("url", cfg.NER.URL))
	}
	masker := masking.NewMasker(recognizer, cfg.NER.Timeout, logger)

	// Emotion
	var classifier emotion.Classifier
	if cfg.Emotion.Enabled {
		classifier = emotion.NewHTTPClassifier(cfg.Emotion.URL, cfg.Emotion.Timeout)
		logger.Info("Emotion classifier enabled", zap.String("url", cfg.Emotion.URL))
	}
	analyzer := emotion.NewAnalyzer(classifier, cfg.Emotion.Timeout, logger)

	// Translation
	engine := translation.NewEngine(modelManager, prompt.NewPromptBuilder(), translation.Config{}, logger)

	// Speech synthesis
	synthesizer, err := buildSynthesizer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.Dependencies{
		Transcriber: router,
		Cache:       cacheSvc,
		Masker:      masker,
		Translator:  engine,
		Emotion:     analyzer,
		Synthesizer: synthesizer,
	}, pipeline.Options{
		FastPathMaxBytes: cfg.Pipeline.FastPathMaxBytes,
		BatchConcurrency: cfg.Pipeline.BatchConcurrency,
	}, logger)

	logger.Info("Translator assembled",
		zap.Strings("stt_providers", cfg.STT.Providers),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("redis", hot != nil),
		zap.String("tts_provider", cfg.TTS.Provider),
	)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Orchestrator: orchestrator,
		Cache:        cacheSvc,
		Server:       server.New(orchestrator, cacheSvc, logger),
		closers:      closers,
	}, nil
}

// StartBackground launches the periodic cache cleanup; it stops with ctx.
func (c *Container) StartBackground(ctx context.Context) {
	go c.Cache.RunCleanupLoop(ctx)
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func buildSTTProviders(ctx context.Context, cfg *config.Config, mm *ai.ModelManager, logger *zap.Logger) ([]stt.Provider, []func(), error) {
	var (
		providers []stt.Provider
		closers   []func()
	)

	for _, name := range cfg.STT.Providers {
		switch name {
		case "persistent":
			p := stt.NewPersistentProvider(cfg.STT.PersistentURL, logger)
			providers = append(providers, p)
			closers = append(closers, func() { _ = p.Close() })
		case "local":
			providers = append(providers, stt.NewLocalProvider(cfg.STT.LocalURL, cfg.STT.TempDir, cfg.STT.ProviderTimeout, logger))
		case "gemini":
			client := mm.GeminiClient()
			if client == nil {
				if cfg.Gemini.APIKey == "" {
					logger.Warn("Skipping Gemini STT provider: GEMINI_API_KEY not set")
					continue
				}
				var err error
				client, err = genai.NewClient(ctx, &genai.ClientConfig{
					APIKey:  cfg.Gemini.APIKey,
					Backend: genai.BackendGeminiAPI,
				})
				if err != nil {
					return nil, closers, fmt.Errorf("failed to create Gemini client for STT: %w", err)
				}
			}
			providers = append(providers, stt.NewGeminiProvider(client, cfg.STT.GeminiModel, logger))
		case "google":
			p, err := stt.NewGoogleProvider(ctx, cfg.STT.GoogleAPIKey, logger)
			if err != nil {
				logger.Warn("Skipping Google STT provider", zap.Error(err))
				continue
			}
			providers = append(providers, p)
		}
	}

	if len(providers) == 0 {
		return nil, closers, fmt.Errorf("no speech-to-text provider could be created from %v", cfg.STT.Providers)
	}
	return providers, closers, nil
}

// OpenCacheStore opens the configured backend and falls back to an in-process store when
// the database cannot be reached.
func OpenCacheStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, func()) {
	switch cfg.Cache.Backend {
	case "postgres":
		pg, err := database.NewPostgresService(ctx, database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		}, logger)
		if err != nil {
			logger.Warn("PostgreSQL unavailable, using in-memory cache", zap.Error(err))
			return cache.NewMemoryStore(), nil
		}
		return cache.NewSQLStore(pg.GetDB(), pg.Dialect()), func() { _ = pg.Close() }
	case "sqlite":
		lite, err := database.NewSQLiteService(ctx, cfg.SQLite.Path, logger)
		if err != nil {
			logger.Warn("SQLite unavailable, using in-memory cache", zap.Error(err))
			return cache.NewMemoryStore(), nil
		}
		return cache.NewSQLStore(lite.GetDB(), lite.Dialect()), func() { _ = lite.Close() }
	default:
		return cache.NewMemoryStore(), nil
	}
}

func buildSynthesizer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*tts.Synthesizer, error) {
	voices := tts.DefaultVoiceTable()
	if cfg.TTS.VoicesFile != "" {
		loaded, err := tts.LoadVoiceTable(cfg.TTS.VoicesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load voice table: %w", err)
		}
		voices = loaded
	}

	var provider tts.Provider
	switch cfg.TTS.Provider {
	case "google":
		p, err := tts.NewGoogleProvider(ctx, cfg.TTS.GoogleAPIKey)
		if err != nil {
			logger.Warn("Google TTS unavailable, responses will be text only", zap.Error(err))
		} else {
			provider = p
		}
	case "openai":
		provider = tts.NewOpenAIProvider(cfg.TTS.OpenAIURL, cfg.TTS.OpenAIAPIKey, cfg.TTS.OpenAIModel, cfg.TTS.Timeout)
	}

	return tts.NewSynthesizer(provider, voices, tts.Options{
		Speed:       cfg.TTS.Speed,
		AudioFormat: cfg.TTS.AudioFormat,
		Timeout:     cfg.TTS.Timeout,
	}, logger), nil
}
