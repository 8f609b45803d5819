package stt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/constants"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/util"
)

type ConnState string

const (
	ConnStateDisconnected ConnState = "DISCONNECTED"
	ConnStateConnecting   ConnState = "CONNECTING"
	ConnStateConnected    ConnState = "CONNECTED"
	ConnStateFailed       ConnState = "FAILED"
)

func (s ConnState) String() string {
	return string(s)
}

type wsRequest struct {
	Type      string `json:"type"`
	RequestID uint64 `json:"request_id"`
	Language  string `json:"language"`
	Format    string `json:"format"`
}

type wsResponse struct {
	wireTranscript
	Type      string `json:"type"`
	RequestID uint64 `json:"request_id"`
}

// PersistentProvider keeps one WebSocket open to a streaming Whisper server. Requests are
// serialised: a JSON header, the audio as one binary frame, then the server's final
// transcript. The connection is dialled lazily and dropped on any I/O error.
type PersistentProvider struct {
	url    string
	logger *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	state  ConnState
	nextID uint64
	dialer *websocket.Dialer
}

func NewPersistentProvider(url string, logger *zap.Logger) *PersistentProvider {
	return &PersistentProvider{
		url:    url,
		logger: logger,
		state:  ConnStateDisconnected,
		dialer: &websocket.Dialer{
			HandshakeTimeout: constants.STTConfig.HandshakeTimeout,
		},
	}
}

func (p *PersistentProvider) Name() string { return "persistent" }

func (p *PersistentProvider) State() ConnState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *PersistentProvider) Transcribe(ctx context.Context, audio []byte, language string) (*ProviderTranscript, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A caller that expired while queued must not close the shared socket.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("wait for connection: %w", err)
	}

	conn, err := p.connectLocked(ctx)
	if err != nil {
		return nil, err
	}

	// Closing the socket is the only way to unblock a pending read.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}

	p.nextID++
	requestID := p.nextID
	format := strings.TrimPrefix(util.DetectAudioFormat(audio).Extension, ".")

	if err := conn.WriteJSON(wsRequest{Type: "transcribe", RequestID: requestID, Language: language, Format: format}); err != nil {
		p.dropLocked(err)
		return nil, fmt.Errorf("write request header: %w", contextErr(ctx, err))
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		p.dropLocked(err)
		return nil, fmt.Errorf("write audio: %w", contextErr(ctx, err))
	}

	for {
		var resp wsResponse
		if err := conn.ReadJSON(&resp); err != nil {
			p.dropLocked(err)
			return nil, fmt.Errorf("read transcript: %w", contextErr(ctx, err))
		}
		if resp.RequestID != 0 && resp.RequestID != requestID {
			continue
		}
		if resp.Type == "partial" {
			continue
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("server error: %s", resp.Error)
		}
		return resp.toTranscript(), nil
	}
}

func (p *PersistentProvider) connectLocked(ctx context.Context) (*websocket.Conn, error) {
	if p.conn != nil {
		return p.conn, nil
	}

	p.setStateLocked(ConnStateConnecting)

	var lastErr error
	for attempt := 0; attempt < constants.STTConfig.MaxReconnectAttempt; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				p.setStateLocked(ConnStateFailed)
				return nil, ctx.Err()
			case <-time.After(constants.STTConfig.ReconnectDelay):
			}
		}

		conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
		if err == nil {
			p.conn = conn
			p.setStateLocked(ConnStateConnected)
			p.logger.Info("STT WebSocket connected", zap.String("url", p.url))
			return conn, nil
		}

		lastErr = err
		p.logger.Warn("STT WebSocket dial failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max", constants.STTConfig.MaxReconnectAttempt),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}

	p.setStateLocked(ConnStateFailed)
	return nil, fmt.Errorf("connect %s: %w", p.url, lastErr)
}

func (p *PersistentProvider) dropLocked(cause error) {
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	p.logger.Warn("STT WebSocket dropped", zap.Error(cause))
	p.setStateLocked(ConnStateDisconnected)
}

func (p *PersistentProvider) setStateLocked(state ConnState) {
	if p.state == state {
		return
	}
	p.logger.Debug("STT WebSocket state changed",
		zap.String("from", p.state.String()),
		zap.String("to", state.String()),
	)
	p.state = state
}

func (p *PersistentProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	_ = p.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	err := p.conn.Close()
	p.conn = nil
	p.setStateLocked(ConnStateDisconnected)
	return err
}

// contextErr prefers the context's error so the router can tell timeouts apart.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return err
}
