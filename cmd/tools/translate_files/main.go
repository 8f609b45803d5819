package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/app"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/config"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/pipeline"
)

var audioExtensions = map[string]struct{}{
	".wav": {}, ".ogg": {}, ".webm": {}, ".mp3": {}, ".flac": {},
}

type fileResult struct {
	File string `json:"file"`
	*domain.TranslationResult
}

func main() {
	var (
		dir         string
		source      string
		target      string
		tone        string
		outputPath  string
		audioDir    string
		concurrency int
	)

	flag.StringVar(&dir, "dir", ".", "directory of recorded utterances")
	flag.StringVar(&source, "source", "en", "spoken language")
	flag.StringVar(&target, "target", "es", "language to translate into")
	flag.StringVar(&tone, "tone", "", "emotional tone override (skips emotion analysis)")
	flag.StringVar(&outputPath, "out", "", "write JSON results here instead of stdout")
	flag.StringVar(&audioDir, "audio-out", "", "write synthesized audio files into this directory")
	flag.IntVar(&concurrency, "concurrency", 0, "parallel utterances (0 uses PIPELINE_BATCH_CONCURRENCY)")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if concurrency > 0 {
		cfg.Pipeline.BatchConcurrency = concurrency
	}

	files, err := collectAudioFiles(dir)
	if err != nil {
		logger.Fatal("failed to list audio files", zap.Error(err))
	}
	if len(files) == 0 {
		logger.Info("nothing to translate", zap.String("dir", dir))
		return
	}

	reqs := make([]pipeline.Request, 0, len(files))
	for _, path := range files {
		audio, err := os.ReadFile(path)
		if err != nil {
			logger.Fatal("failed to read audio", zap.String("file", path), zap.Error(err))
		}
		reqs = append(reqs, pipeline.Request{
			Audio:          audio,
			SourceLanguage: source,
			TargetLanguage: target,
			EmotionHint:    domain.EmotionalTone(tone),
			SessionID:      "batch-" + filepath.Base(path),
		})
	}

	ctx := context.Background()
	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to assemble services", zap.Error(err))
	}
	defer container.Close()

	logger.Info("starting batch translation",
		zap.Int("files", len(files)),
		zap.String("pair", source+"->"+target),
		zap.Int("concurrency", cfg.Pipeline.BatchConcurrency),
	)

	start := time.Now()
	results := container.Orchestrator.ProcessBatch(ctx, reqs)

	output := make([]fileResult, len(results))
	failed := 0
	for i, res := range results {
		output[i] = fileResult{File: files[i], TranslationResult: res}
		if !res.Success {
			failed++
			logger.Warn("utterance not translated",
				zap.String("file", files[i]),
				zap.String("kind", res.ErrorKind),
				zap.String("message", res.Message),
			)
			continue
		}
		if audioDir != "" && len(res.Audio) > 0 {
			if err := writeAudio(audioDir, files[i], cfg.TTS.AudioFormat, res.Audio); err != nil {
				logger.Warn("failed to write audio", zap.String("file", files[i]), zap.Error(err))
			}
		}
		res.Audio = nil
	}

	if err := writeResults(outputPath, output); err != nil {
		logger.Fatal("failed to write results", zap.Error(err))
	}

	logger.Info("batch translation complete",
		zap.Int("translated", len(results)-failed),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func collectAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func writeAudio(dir, source, format string, audio []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return os.WriteFile(filepath.Join(dir, base+"."+format), audio, 0o644)
}

func writeResults(path string, results []fileResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if path == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
