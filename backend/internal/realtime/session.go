package realtime

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"soceyo/backend/internal/constants"
	apperrors "soceyo/backend/pkg/errors"
)

// Session is one live client connection
type Session struct {
	id        string
	transport Transport

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewSession wraps an already open transport
func NewSession(transport Transport) *Session {
	return &Session{
		id:        uuid.New().String(),
		transport: transport,
	}
}

// ID returns the session identifier used in logs
func (s *Session) ID() string {
	return s.id
}

// Closed reports whether Close has been called
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Send writes one text frame. Writes are serialised so frames reach the peer
// in the order Send was called.
func (s *Session) Send(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed.Load() {
		return apperrors.ErrSessionClosed
	}
	if err := s.transport.SetWriteDeadline(time.Now().Add(constants.WriteWait)); err != nil {
		return apperrors.NewTransportFailed(s.id, err)
	}
	if err := s.transport.WriteMessage(websocket.TextMessage, data); err != nil {
		return apperrors.NewTransportFailed(s.id, err)
	}
	return nil
}

// SendJSON encodes v and sends it as one frame
func (s *Session) SendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.NewProtocol("encode frame", err)
	}
	return s.Send(data)
}

// Close closes the underlying transport once; later calls are no-ops
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if ka, ok := s.transport.(keepaliveTransport); ok {
			_ = ka.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
		}
		_ = s.transport.Close()
	})
}

// ping sends a keepalive control frame when the transport supports it
func (s *Session) ping() error {
	ka, ok := s.transport.(keepaliveTransport)
	if !ok {
		return nil
	}
	if err := ka.WriteControl(websocket.PingMessage, nil, time.Now().Add(constants.WriteWait)); err != nil {
		return apperrors.NewTransportFailed(s.id, err)
	}
	return nil
}
