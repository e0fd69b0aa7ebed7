package constants

import "time"

// Presence constants
const (
	// PresenceKeyPrefix namespaces presence records in the shared cache
	PresenceKeyPrefix = "presence:user"

	// PresenceTTL is how long a user stays active without a refresh
	PresenceTTL = 300 * time.Second

	// PresenceScanCount is the SCAN page size hint used when listing active users
	PresenceScanCount = 100
)

// WebSocket constants
const (
	// WriteWait bounds a single frame write to one peer
	WriteWait = 10 * time.Second

	// PongWait is how long a peer may stay silent before its session is dropped
	PongWait = 60 * time.Second

	// PingPeriod must be shorter than PongWait
	PingPeriod = (PongWait * 9) / 10

	// MaxFrameBytes caps inbound frame size
	MaxFrameBytes = 64 * 1024

	// BroadcastConcurrency bounds the number of parallel sends per broadcast
	BroadcastConcurrency = 16
)

// Chat constants
const (
	// DefaultMessagePageSize is used when a history request has no limit
	DefaultMessagePageSize = 50

	// MaxMessagePageSize caps history requests
	MaxMessagePageSize = 500

	// MaxMessageLength is the maximum number of characters in one message
	MaxMessageLength = 4000
)

// Error frame texts sent back to the originating socket
const (
	ErrTextInvalidFrame       = "Invalid message format"
	ErrTextEmptyMessage       = "Message must include text or a file"
	ErrTextMessageTooLong     = "Message is too long"
	ErrTextConversationAbsent = "Conversation not found"
	ErrTextNotMember          = "Not a member of this conversation"
	ErrTextSendFailed         = "Failed to send message"
)
