package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soceyo/backend/internal/graph"
	apperrors "soceyo/backend/pkg/errors"
)

type createConversationRequest struct {
	MemberIDs []string `json:"member_ids" binding:"required,min=1,dive,required"`
	IsGroup   bool     `json:"is_group"`
}

type addMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// memberConversation loads a conversation and checks that userID belongs to it
func (s *Server) memberConversation(ctx context.Context, conversationID, userID string) (*graph.Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasMember(userID) {
		return nil, apperrors.NewNotMember(userID, conversationID)
	}
	return conv, nil
}

func (s *Server) createConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	userID := currentUserID(c)
	members := append([]string{userID}, req.MemberIDs...)
	unique := make(map[string]struct{}, len(members))
	for _, id := range members {
		unique[id] = struct{}{}
	}

	conv, err := s.repo.CreateConversation(c.Request.Context(), graph.NewConversation{
		IsGroup:   req.IsGroup || len(unique) > 2,
		MemberIDs: members,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	s.logger.Info("Conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("created_by", userID),
		zap.Int("members", len(conv.MemberIDs)))
	c.JSON(http.StatusCreated, conv)
}

func (s *Server) listConversations(c *gin.Context) {
	convs, err := s.repo.ListUserConversations(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if convs == nil {
		convs = []graph.Conversation{}
	}
	c.JSON(http.StatusOK, convs)
}

func (s *Server) getConversation(c *gin.Context) {
	conv, err := s.memberConversation(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) deleteConversation(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := c.Param("id")
	if _, err := s.memberConversation(ctx, conversationID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	if err := s.repo.DeleteConversation(ctx, conversationID); err != nil {
		respondError(c, err)
		return
	}

	closed := s.registry.CloseRoom(conversationID)
	s.logger.Info("Conversation deleted",
		zap.String("conversation_id", conversationID),
		zap.Int("closed_sessions", closed))
	c.JSON(http.StatusOK, gin.H{"detail": "Conversation deleted"})
}

func (s *Server) addMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	conversationID := c.Param("id")
	if _, err := s.memberConversation(ctx, conversationID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	conv, err := s.repo.AddMember(ctx, conversationID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) removeMember(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := c.Param("id")
	if _, err := s.memberConversation(ctx, conversationID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	conv, err := s.repo.RemoveMember(ctx, conversationID, c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}
