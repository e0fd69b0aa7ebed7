package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soceyo/backend/internal/constants"
)

// serveChat upgrades the request and hands the socket to the chat handler
// until the peer disconnects or the server shuts down
func (s *Server) serveChat(c *gin.Context) {
	conversationID := c.Param("id")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing conversation id"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response
		s.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(constants.MaxFrameBytes)

	s.logger.Info("WebSocket connected",
		zap.String("conversation_id", conversationID),
		zap.String("remote", c.ClientIP()))

	s.chat.Serve(s.ctx, conversationID, conn)

	s.logger.Info("WebSocket disconnected", zap.String("conversation_id", conversationID))
}
