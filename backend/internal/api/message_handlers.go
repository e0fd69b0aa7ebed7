package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soceyo/backend/internal/graph"
	"soceyo/backend/internal/realtime"
)

type sendMessageRequest struct {
	ConversationID string   `json:"conversation_id" binding:"required"`
	Content        string   `json:"content"`
	FileIDs        []string `json:"file_ids"`
}

type updateMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *Server) listMessages(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := c.Param("id")

	limit, ok := pageSize(c.Query("limit"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if _, err := s.memberConversation(ctx, conversationID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	records, err := s.repo.ListMessages(ctx, conversationID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	frames := make([]realtime.OutboundFrame, 0, len(records))
	for i := range records {
		frames = append(frames, realtime.NewOutboundFrame(&records[i]))
	}
	c.JSON(http.StatusOK, frames)
}

// sendMessage persists a message and pushes it to the live room, the same
// way a socket frame would be handled
func (s *Server) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := realtime.ValidateContent(req.Content, req.FileIDs); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID := currentUserID(c)
	if _, err := s.memberConversation(ctx, req.ConversationID, userID); err != nil {
		respondError(c, err)
		return
	}

	record, err := s.repo.CreateMessage(ctx, graph.NewMessage{
		SenderID:       userID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
		FileIDs:        req.FileIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	s.presence.Touch(ctx, userID)

	frame := realtime.NewOutboundFrame(record)
	delivered, err := s.registry.Broadcast(s.ctx, req.ConversationID, frame)
	if err != nil {
		s.logger.Error("Broadcast failed", zap.String("message_id", record.ID), zap.Error(err))
	}
	s.logger.Debug("Message sent over HTTP",
		zap.String("message_id", record.ID),
		zap.Int("delivered", delivered))

	c.JSON(http.StatusCreated, frame)
}

func (s *Server) updateMessage(c *gin.Context) {
	var req updateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := realtime.ValidateContent(req.Content, nil); err != nil {
		respondError(c, err)
		return
	}

	record, err := s.repo.UpdateMessage(c.Request.Context(), c.Param("id"), currentUserID(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, realtime.NewOutboundFrame(record))
}

func (s *Server) deleteMessage(c *gin.Context) {
	conversationID, err := s.repo.DeleteMessage(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Message deleted", "conversation_id": conversationID})
}
