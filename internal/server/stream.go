package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/pipeline"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/pkg/errors"
)

const streamWriteTimeout = 10 * time.Second

// segmentHeader precedes each binary audio frame on the stream.
type segmentHeader struct {
	Type        string `json:"type"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Tone        string `json:"tone,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	SpeakerRole string `json:"speaker_role,omitempty"`
}

type streamResult struct {
	Type string `json:"type"`
	*domain.TranslationResult
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleStream serves a conversation over one WebSocket. Each turn is a JSON "segment"
// header followed by the audio as a binary frame; the reply is the JSON result. Turns are
// handled in order.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.maxAudioBytes)
	_ = conn.SetReadDeadline(time.Time{})

	ctx := r.Context()
	logger := s.logger.With(zap.String("remote", r.RemoteAddr))
	logger.Info("Stream connected")

	for {
		var header segmentHeader
		if err := conn.ReadJSON(&header); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Stream closed", zap.Error(err))
			}
			return
		}
		if header.Type != "segment" {
			if !s.writeStream(conn, streamResult{Type: "error", TranslationResult: invalid("expected a segment header")}) {
				return
			}
			continue
		}

		messageType, audio, err := conn.ReadMessage()
		if err != nil {
			logger.Debug("Stream closed before audio", zap.Error(err))
			return
		}
		if messageType != websocket.BinaryMessage {
			if !s.writeStream(conn, streamResult{Type: "error", TranslationResult: invalid("audio must be a binary frame")}) {
				return
			}
			continue
		}

		res := s.processor.Process(ctx, pipeline.Request{
			Audio:          audio,
			SourceLanguage: header.Source,
			TargetLanguage: header.Target,
			EmotionHint:    domain.EmotionalTone(header.Tone),
			SessionID:      header.SessionID,
			SpeakerRole:    domain.SpeakerRole(header.SpeakerRole),
		})
		if !s.writeStream(conn, streamResult{Type: "result", TranslationResult: res}) {
			return
		}
	}
}

func (s *Server) writeStream(conn *websocket.Conn, msg streamResult) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Debug("Stream write failed", zap.Error(err))
		return false
	}
	return true
}

func invalid(message string) *domain.TranslationResult {
	return &domain.TranslationResult{ErrorKind: errors.KindValidation.String(), Message: message}
}
