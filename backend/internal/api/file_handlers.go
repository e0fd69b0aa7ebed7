package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"soceyo/backend/internal/graph"
	"soceyo/backend/internal/media"
)

func (s *Server) uploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file field"})
		return
	}
	if header.Size > s.opts.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	src, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty file"})
		return
	}

	ctx := c.Request.Context()
	fileID := uuid.New().String()
	if err := s.media.Put(ctx, fileID, data); err != nil {
		respondError(c, err)
		return
	}

	file, err := s.repo.CreateFile(ctx, graph.File{
		ID:         fileID,
		URL:        s.opts.PublicBaseURL + "/api/files/" + fileID + "/content",
		FileType:   media.Detect(data),
		Size:       int64(len(data)),
		UploaderID: currentUserID(c),
	})
	if err != nil {
		if delErr := s.media.Delete(ctx, fileID); delErr != nil {
			s.logger.Warn("Failed to remove orphaned blob", zap.String("file_id", fileID), zap.Error(delErr))
		}
		respondError(c, err)
		return
	}

	s.logger.Info("File uploaded",
		zap.String("file_id", file.ID),
		zap.String("file_type", file.FileType),
		zap.Int64("size", file.Size))
	c.JSON(http.StatusCreated, file)
}

func (s *Server) getFile(c *gin.Context) {
	file, err := s.repo.GetFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// fileContent serves the raw bytes. It is public so that clients can embed
// file URLs directly; ids are random UUIDs.
func (s *Server) fileContent(c *gin.Context) {
	ctx := c.Request.Context()
	file, err := s.repo.GetFile(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := s.media.Get(ctx, file.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(http.StatusOK, file.FileType, data)
}

func (s *Server) deleteFile(c *gin.Context) {
	ctx := c.Request.Context()
	fileID := c.Param("id")
	if err := s.repo.DeleteFile(ctx, fileID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	if err := s.media.Delete(ctx, fileID); err != nil {
		s.logger.Warn("Failed to delete blob", zap.String("file_id", fileID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"detail": "File deleted successfully"})
}
