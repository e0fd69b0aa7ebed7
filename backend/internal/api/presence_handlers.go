package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soceyo/backend/internal/presence"
)

// activeUsers lists everyone currently active. A cache outage yields an empty
// list instead of an error.
func (s *Server) activeUsers(c *gin.Context) {
	members, err := s.presence.ActiveMembers(c.Request.Context(), s.repo)
	if err != nil {
		s.logger.Warn("Active user listing degraded", zap.Error(err))
		members = []presence.Member{}
	}
	c.JSON(http.StatusOK, members)
}

func (s *Server) heartbeat(c *gin.Context) {
	userID := currentUserID(c)
	if err := s.presence.MarkActive(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     userID,
		"is_active":   true,
		"ttl_seconds": int(s.presence.TTL() / time.Second),
	})
}

func (s *Server) userPresence(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("id")

	resp := gin.H{"user_id": userID, "is_active": false}
	active, err := s.presence.IsActive(ctx, userID)
	if err != nil {
		s.logger.Warn("Presence lookup degraded", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusOK, resp)
		return
	}
	resp["is_active"] = active
	if seen, ok, err := s.presence.LastSeen(ctx, userID); err == nil && ok {
		resp["last_seen"] = seen
	}
	c.JSON(http.StatusOK, resp)
}
