package stt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
)

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp files to be removed, found %d", len(entries))
	}
}

func TestLocalProviderUploadsFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != string(testAudio) || r.FormValue("language") != "en" {
			http.Error(w, "unexpected upload", http.StatusBadRequest)
			return
		}
		if header.Filename == "" {
			http.Error(w, "missing filename", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"language": "en",
			"duration": 1.5,
			"segments": []map[string]any{
				{"start": 0.0, "end": 0.7, "text": " Hello,"},
				{"start": 0.7, "end": 1.5, "text": " world"},
			},
		})
	}))
	defer srv.Close()

	dir := t.TempDir()
	provider := NewLocalProvider(srv.URL, dir, time.Second, zap.NewNop())

	transcript, err := provider.Transcribe(context.Background(), testAudio, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if transcript.Text != "Hello, world" || transcript.Duration != 1500*time.Millisecond || len(transcript.Segments) != 2 {
		t.Fatalf("unexpected transcript: %+v", transcript)
	}
	if transcript.Segments[1].Start != 700*time.Millisecond {
		t.Fatalf("unexpected segment timing: %+v", transcript.Segments[1])
	}
	assertEmptyDir(t, dir)
}

func TestLocalProviderRemovesTempFileOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dir := t.TempDir()
	provider := NewLocalProvider(srv.URL, dir, time.Second, zap.NewNop())

	if _, err := provider.Transcribe(context.Background(), testAudio, "en"); err == nil {
		t.Fatalf("expected error for 503")
	}
	assertEmptyDir(t, dir)
}

func TestLocalProviderRemovesTempFileOnTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	dir := t.TempDir()
	provider := NewLocalProvider(srv.URL, dir, time.Second, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := provider.Transcribe(ctx, testAudio, "en"); err == nil {
		t.Fatalf("expected timeout error")
	}
	assertEmptyDir(t, dir)
}
