package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/app"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/config"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/cache"
)

// seedPhrase is one staff-approved translation loaded into the conversation cache.
type seedPhrase struct {
	Original   string `json:"original" yaml:"original"`
	Translated string `json:"translated" yaml:"translated"`
	Source     string `json:"source" yaml:"source"`
	Target     string `json:"target" yaml:"target"`
	Tone       string `json:"tone,omitempty" yaml:"tone,omitempty"`
}

func main() {
	var (
		file   string
		dryRun bool
	)
	flag.StringVar(&file, "file", "", "JSON or YAML list of phrase pairs")
	flag.BoolVar(&dryRun, "dry-run", false, "validate the file without writing to the cache")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if file == "" {
		logger.Fatal("-file is required")
	}

	phrases, err := loadPhrases(file)
	if err != nil {
		logger.Fatal("failed to load phrases", zap.Error(err))
	}
	if err := validatePhrases(phrases); err != nil {
		logger.Fatal("phrase validation failed", zap.Error(err))
	}
	logger.Info("phrases loaded", zap.Int("count", len(phrases)))

	if dryRun {
		printSummary(logger, phrases)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	store, closeStore := app.OpenCacheStore(ctx, cfg, logger)
	if closeStore != nil {
		defer closeStore()
	}
	svc := cache.NewService(store, nil, cache.Options{}, logger)

	stored := 0
	for _, p := range phrases {
		tone, _ := domain.ParseTone(p.Tone)
		err := svc.Store(ctx, &domain.CacheEntry{
			OriginalText:     p.Original,
			TranslatedText:   p.Translated,
			SourceLanguage:   p.Source,
			TargetLanguage:   p.Target,
			EmotionalContext: tone,
		})
		if err != nil {
			logger.Warn("failed to store phrase", zap.String("original", p.Original), zap.Error(err))
			continue
		}
		stored++
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		logger.Warn("stats unavailable", zap.Error(err))
	}
	logger.Info("seeding complete",
		zap.Int("stored", stored),
		zap.Int("failed", len(phrases)-stored),
		zap.Int64("entries", stats.Entries),
		zap.Int64("common_phrases", stats.CommonPhrases),
	)
}

func loadPhrases(path string) ([]seedPhrase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var phrases []seedPhrase
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &phrases)
	default:
		err = json.Unmarshal(data, &phrases)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return phrases, nil
}

func validatePhrases(phrases []seedPhrase) error {
	for i, p := range phrases {
		if strings.TrimSpace(p.Original) == "" || strings.TrimSpace(p.Translated) == "" {
			return fmt.Errorf("entry %d: original and translated text are required", i)
		}
		if p.Source == "" || p.Target == "" {
			return fmt.Errorf("entry %d: source and target language are required", i)
		}
		if p.Tone != "" {
			if _, ok := domain.ParseTone(p.Tone); !ok {
				return fmt.Errorf("entry %d: unknown tone %q", i, p.Tone)
			}
		}
	}
	return nil
}

func printSummary(logger *zap.Logger, phrases []seedPhrase) {
	pairs := make(map[string]int)
	for _, p := range phrases {
		pairs[p.Source+"->"+p.Target]++
	}
	for pair, n := range pairs {
		logger.Info("language pair", zap.String("pair", pair), zap.Int("phrases", n))
	}
}
