package realtime

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"soceyo/backend/internal/constants"
	"soceyo/backend/internal/graph"
	apperrors "soceyo/backend/pkg/errors"
	"soceyo/backend/pkg/logger"
)

// ConversationLookup resolves a conversation with its member ids
type ConversationLookup interface {
	GetConversation(ctx context.Context, conversationID string) (*graph.Conversation, error)
}

// MessageWriter persists chat messages
type MessageWriter interface {
	CreateMessage(ctx context.Context, msg graph.NewMessage) (*graph.MessageRecord, error)
}

// PresenceMarker refreshes a user's activity window
type PresenceMarker interface {
	MarkActive(ctx context.Context, userID string) error
}

// Handler runs the read loop of one chat connection
type Handler struct {
	registry      *Registry
	conversations ConversationLookup
	messages      MessageWriter
	presence      PresenceMarker
	logger        *zap.Logger
}

// NewHandler creates a connection handler. presence may be nil.
func NewHandler(registry *Registry, conversations ConversationLookup, messages MessageWriter, presence PresenceMarker) *Handler {
	return &Handler{
		registry:      registry,
		conversations: conversations,
		messages:      messages,
		presence:      presence,
		logger:        logger.Named("realtime"),
	}
}

// Serve registers the transport in the conversation's room and processes
// inbound frames until the peer goes away or ctx is cancelled. The session is
// always removed from the registry before Serve returns.
func (h *Handler) Serve(ctx context.Context, conversationID string, transport Transport) {
	session := NewSession(transport)
	h.registry.Connect(conversationID, session)
	defer h.registry.Disconnect(conversationID, session)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Cancelling ctx closes the transport, which unblocks ReadMessage
	go func() {
		<-ctx.Done()
		session.Close()
	}()

	if ka, ok := transport.(keepaliveTransport); ok {
		_ = ka.SetReadDeadline(time.Now().Add(constants.PongWait))
		ka.SetPongHandler(func(string) error {
			return ka.SetReadDeadline(time.Now().Add(constants.PongWait))
		})
		go h.keepalive(ctx, session)
	}

	log := h.logger.With(
		zap.String("conversation_id", conversationID),
		zap.String("session_id", session.ID()))

	for {
		_, data, err := transport.ReadMessage()
		if err != nil {
			log.Debug("Connection closed", zap.Error(err))
			return
		}
		h.handleFrame(ctx, conversationID, session, data, log)
	}
}

func (h *Handler) keepalive(ctx context.Context, session *Session) {
	ticker := time.NewTicker(constants.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := session.ping(); err != nil {
				session.Close()
				return
			}
		}
	}
}

func (h *Handler) handleFrame(ctx context.Context, conversationID string, session *Session, data []byte, log *zap.Logger) {
	frame, err := DecodeInbound(data)
	if err != nil {
		var perr *apperrors.ErrProtocol
		if errors.As(err, &perr) {
			h.reject(session, perr.Reason, log)
			return
		}
		h.reject(session, constants.ErrTextInvalidFrame, log)
		return
	}

	conv, err := h.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			h.reject(session, constants.ErrTextConversationAbsent, log)
			return
		}
		log.Error("Conversation lookup failed", zap.Error(err))
		h.reject(session, constants.ErrTextSendFailed, log)
		return
	}
	if !conv.HasMember(frame.SenderID) {
		log.Info("Rejected frame from non-member", zap.String("sender_id", frame.SenderID))
		h.reject(session, constants.ErrTextNotMember, log)
		return
	}

	if h.presence != nil {
		if err := h.presence.MarkActive(ctx, frame.SenderID); err != nil {
			log.Warn("Failed to refresh presence", zap.String("sender_id", frame.SenderID), zap.Error(err))
		}
	}

	record, err := h.messages.CreateMessage(ctx, graph.NewMessage{
		SenderID:       frame.SenderID,
		ConversationID: conversationID,
		Content:        frame.Content,
		FileIDs:        frame.FileIDs,
	})
	if err != nil {
		log.Error("Failed to persist message", zap.String("sender_id", frame.SenderID), zap.Error(err))
		h.reject(session, constants.ErrTextSendFailed, log)
		return
	}

	delivered, err := h.registry.Broadcast(ctx, conversationID, NewOutboundFrame(record))
	if err != nil {
		log.Error("Broadcast failed", zap.String("message_id", record.ID), zap.Error(err))
		return
	}
	log.Debug("Message broadcast",
		zap.String("message_id", record.ID),
		zap.Int("delivered", delivered))
}

func (h *Handler) reject(session *Session, text string, log *zap.Logger) {
	if err := session.SendJSON(ErrorFrame{Error: text}); err != nil {
		log.Debug("Failed to send error frame", zap.Error(err))
	}
}
