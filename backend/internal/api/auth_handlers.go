package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soceyo/backend/internal/auth"
	"soceyo/backend/internal/graph"
	apperrors "soceyo/backend/pkg/errors"
)

const refreshCookie = "refresh_token"

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

func (s *Server) register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if err := auth.ValidateRegister(req); err != nil {
		respondError(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := s.repo.CreateUser(c.Request.Context(), graph.NewUser{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID))
	c.JSON(http.StatusCreated, user)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	invalid := apperrors.NewUnauthorized("Invalid credentials", nil)
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if apperrors.IsNotFound(err) {
			respondError(c, invalid)
			return
		}
		respondError(c, err)
		return
	}
	ok, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		respondError(c, invalid)
		return
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	s.presence.Touch(ctx, user.ID)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, refresh, int(s.tokens.RefreshTTL().Seconds()), "/", "", s.opts.Production, true)
	c.JSON(http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"})
}

func (s *Server) refresh(c *gin.Context) {
	token, _ := c.Cookie(refreshCookie)
	if token == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		respondError(c, apperrors.NewUnauthorized("Missing refresh token", nil))
		return
	}

	userID, err := s.tokens.Verify(token, auth.TokenRefresh)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := s.repo.GetUserByID(c.Request.Context(), userID); err != nil {
		if apperrors.IsNotFound(err) {
			respondError(c, apperrors.NewUnauthorized("User no longer exists", err))
			return
		}
		respondError(c, err)
		return
	}

	access, err := s.tokens.IssueAccess(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: access, TokenType: "bearer"})
}

func (s *Server) logout(c *gin.Context) {
	userID := currentUserID(c)
	if err := s.presence.MarkInactive(c.Request.Context(), userID); err != nil {
		s.logger.Warn("Failed to clear presence on logout", zap.String("user_id", userID), zap.Error(err))
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, "", -1, "/", "", s.opts.Production, true)
	c.JSON(http.StatusOK, gin.H{"detail": "Logged out"})
}
