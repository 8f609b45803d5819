package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/pipeline"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/cache"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/pkg/errors"
)

type fakeProcessor struct {
	mu       sync.Mutex
	requests []pipeline.Request
	result   func(pipeline.Request) *domain.TranslationResult
}

func (f *fakeProcessor) Process(_ context.Context, req pipeline.Request) *domain.TranslationResult {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.result != nil {
		return f.result(req)
	}
	return &domain.TranslationResult{
		Success:        true,
		OriginalText:   "hello",
		TranslatedText: "hola",
		Audio:          []byte("mp3"),
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
	}
}

func (f *fakeProcessor) seen() []pipeline.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pipeline.Request(nil), f.requests...)
}

type fakeCacheAdmin struct {
	err     error
	removed int64
}

func (f *fakeCacheAdmin) Stats(context.Context) (cache.Stats, error) {
	if f.err != nil {
		return cache.Stats{}, f.err
	}
	return cache.Stats{StoreStats: cache.StoreStats{Entries: 3}, Misses: 1}, nil
}

func (f *fakeCacheAdmin) Cleanup(context.Context) (int64, error) {
	return f.removed, f.err
}

func newTestServer(p *fakeProcessor, c *fakeCacheAdmin) http.Handler {
	return New(p, c, zap.NewNop()).Handler()
}

func TestTranslateEndpoint(t *testing.T) {
	p := &fakeProcessor{}
	h := newTestServer(p, &fakeCacheAdmin{})

	req := httptest.NewRequest(http.MethodPost, "/v1/translate?source=en&target=es&tone=calming&speaker=customer", bytes.NewReader([]byte("RIFFaudio")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got domain.TranslationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TranslatedText != "hola" || string(got.Audio) != "mp3" {
		t.Fatalf("unexpected body %+v", got)
	}

	sent := p.requests[0]
	if sent.SourceLanguage != "en" || sent.TargetLanguage != "es" || sent.EmotionHint != domain.ToneCalming || sent.SpeakerRole != domain.SpeakerCustomer {
		t.Fatalf("request not forwarded: %+v", sent)
	}
	if string(sent.Audio) != "RIFFaudio" {
		t.Fatalf("audio not forwarded: %q", sent.Audio)
	}
}

func TestTranslateRejectsEmptyBody(t *testing.T) {
	p := &fakeProcessor{}
	h := newTestServer(p, &fakeCacheAdmin{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/translate?source=en&target=es", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(p.requests) != 0 {
		t.Fatalf("processor should not be called")
	}
}

func TestTranslateRejectsOversizedBody(t *testing.T) {
	p := &fakeProcessor{}
	srv := New(p, &fakeCacheAdmin{}, zap.NewNop())
	srv.maxAudioBytes = 4

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/translate?source=en&target=es", strings.NewReader("too long")))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestTranslateFailureStatus(t *testing.T) {
	tests := []struct {
		kind errors.Kind
		want int
	}{
		{errors.KindNoSpeechDetected, http.StatusOK},
		{errors.KindValidation, http.StatusBadRequest},
		{errors.KindAllProvidersFailed, http.StatusBadGateway},
		{errors.KindTranslationFailed, http.StatusBadGateway},
		{errors.KindProviderTimeout, http.StatusGatewayTimeout},
		{errors.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			p := &fakeProcessor{result: func(pipeline.Request) *domain.TranslationResult {
				return &domain.TranslationResult{ErrorKind: tt.kind.String(), Message: "failed"}
			}}
			rec := httptest.NewRecorder()
			newTestServer(p, &fakeCacheAdmin{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/translate?source=en&target=es", strings.NewReader("x")))

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.kind.String()) {
				t.Fatalf("kind missing from body: %s", rec.Body.String())
			}
		})
	}
}

func TestCacheEndpoints(t *testing.T) {
	h := newTestServer(&fakeProcessor{}, &fakeCacheAdmin{removed: 7})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"entries":3`) {
		t.Fatalf("unexpected stats response %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/cache/cleanup", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"removed":7`) {
		t.Fatalf("unexpected cleanup response %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/cache/cleanup", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET cleanup, got %d", rec.Code)
	}
}

func TestCacheStatsUnavailable(t *testing.T) {
	h := newTestServer(&fakeProcessor{}, &fakeCacheAdmin{err: errors.NewCacheError("down", "stats", "", nil)})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), errors.KindCacheUnavailable.String()) {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeProcessor{}, &fakeCacheAdmin{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestStreamTranslatesTurnsInOrder(t *testing.T) {
	p := &fakeProcessor{result: func(req pipeline.Request) *domain.TranslationResult {
		return &domain.TranslationResult{Success: true, OriginalText: string(req.Audio), TranslatedText: "t:" + string(req.Audio)}
	}}
	ts := httptest.NewServer(newTestServer(p, &fakeCacheAdmin{}))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/stream", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for _, turn := range []string{"one", "two"} {
		if err := conn.WriteJSON(segmentHeader{Type: "segment", Source: "en", Target: "vi"}); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, []byte(turn)); err != nil {
			t.Fatalf("write audio: %v", err)
		}

		var got struct {
			Type           string `json:"type"`
			TranslatedText string `json:"translated_text"`
		}
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("read result: %v", err)
		}
		if got.Type != "result" || got.TranslatedText != "t:"+turn {
			t.Fatalf("unexpected reply %+v", got)
		}
	}

	if seen := p.seen(); len(seen) != 2 || seen[1].TargetLanguage != "vi" {
		t.Fatalf("unexpected requests %+v", seen)
	}
}

func TestStreamRejectsTextAudio(t *testing.T) {
	p := &fakeProcessor{}
	ts := httptest.NewServer(newTestServer(p, &fakeCacheAdmin{}))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/stream", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.WriteJSON(segmentHeader{Type: "segment", Source: "en", Target: "es"})
	_ = conn.WriteMessage(websocket.TextMessage, []byte("not audio"))

	var got struct {
		Type      string `json:"type"`
		ErrorKind string `json:"error_kind"`
	}
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != "error" || got.ErrorKind != errors.KindValidation.String() {
		t.Fatalf("unexpected reply %+v", got)
	}
	if len(p.seen()) != 0 {
		t.Fatalf("processor should not be called")
	}
}
