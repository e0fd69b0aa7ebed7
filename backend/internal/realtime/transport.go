package realtime

import "time"

// Transport is a bidirectional message channel to one client.
// *websocket.Conn satisfies it.
type Transport interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// keepaliveTransport is implemented by transports that speak ping/pong
// control frames. Sessions over such transports detect half-open peers.
type keepaliveTransport interface {
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	WriteControl(messageType int, data []byte, deadline time.Time) error
}
