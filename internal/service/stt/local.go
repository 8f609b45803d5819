package stt

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/util"
)

// LocalProvider uploads the segment to a local Whisper-style engine at POST {baseURL}/transcribe.
// The engine reads from a file, so the audio is staged in a temp file for the call.
type LocalProvider struct {
	baseURL string
	tempDir string
	http    *resty.Client
	logger  *zap.Logger
}

func NewLocalProvider(baseURL, tempDir string, timeout time.Duration, logger *zap.Logger) *LocalProvider {
	return &LocalProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		tempDir: tempDir,
		http:    resty.New().SetTimeout(timeout),
		logger:  logger,
	}
}

func (p *LocalProvider) Name() string { return "local" }

func (p *LocalProvider) Transcribe(ctx context.Context, audio []byte, language string) (*ProviderTranscript, error) {
	path, err := p.writeTemp(audio)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.logger.Warn("Failed to remove STT temp file", zap.String("path", path), zap.Error(err))
		}
	}()

	var resp wireTranscript
	rr, err := p.http.R().SetContext(ctx).
		SetFile("file", path).
		SetFormData(map[string]string{"language": language}).
		SetResult(&resp).
		Post(p.baseURL + "/transcribe")
	if err != nil {
		return nil, err
	}
	if rr.IsError() {
		return nil, fmt.Errorf("local transcribe: %s; body: %s", rr.Status(), rr.String())
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("local transcribe: %s", resp.Error)
	}
	return resp.toTranscript(), nil
}

func (p *LocalProvider) writeTemp(audio []byte) (string, error) {
	f, err := os.CreateTemp(p.tempDir, "segment-*"+util.DetectAudioFormat(audio).Extension)
	if err != nil {
		return "", fmt.Errorf("create temp audio file: %w", err)
	}
	path := f.Name()

	if _, err := f.Write(audio); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write temp audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp audio file: %w", err)
	}
	return path, nil
}
