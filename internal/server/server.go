package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/constants"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/pipeline"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/service/cache"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/pkg/errors"
)

type Processor interface {
	Process(ctx context.Context, req pipeline.Request) *domain.TranslationResult
}

type CacheAdmin interface {
	Stats(ctx context.Context) (cache.Stats, error)
	Cleanup(ctx context.Context) (int64, error)
}

// Server exposes the translation pipeline over HTTP and a WebSocket stream.
type Server struct {
	processor     Processor
	cache         CacheAdmin
	logger        *zap.Logger
	maxAudioBytes int64
}

func New(processor Processor, cacheAdmin CacheAdmin, logger *zap.Logger) *Server {
	return &Server{
		processor:     processor,
		cache:         cacheAdmin,
		logger:        logger,
		maxAudioBytes: constants.ServerConfig.MaxAudioBytes,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/translate", s.handleTranslate)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	mux.HandleFunc("GET /v1/cache/stats", s.handleCacheStats)
	mux.HandleFunc("POST /v1/cache/cleanup", s.handleCacheCleanup)

	return s.logRequests(mux)
}

// HTTPServer wraps Handler with the listener timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       constants.ServerConfig.ReadTimeout,
		WriteTimeout:      constants.ServerConfig.WriteTimeout,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxAudioBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, errors.KindValidation, fmt.Sprintf("audio body exceeds %d bytes", s.maxAudioBytes))
		return
	}
	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, errors.KindValidation, "audio body is required")
		return
	}

	q := r.URL.Query()
	req := pipeline.Request{
		Audio:          audio,
		SourceLanguage: q.Get("source"),
		TargetLanguage: q.Get("target"),
		EmotionHint:    domain.EmotionalTone(q.Get("tone")),
		SessionID:      q.Get("session"),
		SpeakerRole:    domain.SpeakerRole(q.Get("speaker")),
	}

	res := s.processor.Process(r.Context(), req)
	writeJSON(w, resultStatus(res), res)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cache.Stats(r.Context())
	if err != nil {
		s.logger.Warn("Cache stats unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, errors.KindOf(err), "cache statistics unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCacheCleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := s.cache.Cleanup(r.Context())
	if err != nil {
		s.logger.Warn("Cache cleanup failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, errors.KindOf(err), "cache cleanup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

// resultStatus maps a failed result's kind onto an HTTP status. A missing utterance is not
// a server fault, so it is reported as 200 with success=false.
func resultStatus(res *domain.TranslationResult) int {
	if res.Success {
		return http.StatusOK
	}
	switch errors.Kind(res.ErrorKind) {
	case errors.KindNoSpeechDetected:
		return http.StatusOK
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindAllProvidersFailed, errors.KindTranslationFailed, errors.KindProviderError:
		return http.StatusBadGateway
	case errors.KindProviderTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Success   bool   `json:"success"`
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, kind errors.Kind, message string) {
	writeJSON(w, status, errorResponse{ErrorKind: kind.String(), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// Hijack is needed by the WebSocket upgrader.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	sr.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
