package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"soceyo/backend/internal/graph"
)

type userResponse struct {
	graph.User
	IsActive bool `json:"is_active"`
}

type updateProfileRequest struct {
	FullName     *string `json:"full_name" binding:"omitempty,max=100"`
	Bio          *string `json:"bio" binding:"omitempty,max=500"`
	ProfilePhoto *string `json:"profile_photo" binding:"omitempty,max=2048"`
}

func (s *Server) me(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := s.repo.GetUserByID(ctx, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{User: *user, IsActive: s.presence.Status(ctx, user.ID)})
}

func (s *Server) updateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.repo.UpdateUser(c.Request.Context(), currentUserID(c), graph.UserUpdate{
		FullName:     req.FullName,
		Bio:          req.Bio,
		ProfilePhoto: req.ProfilePhoto,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) getUser(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := s.repo.GetUserByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	public := *user
	public.Email = ""
	c.JSON(http.StatusOK, userResponse{User: public, IsActive: s.presence.Status(ctx, user.ID)})
}
