package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "soceyo/backend/pkg/errors"
	"soceyo/backend/pkg/logger"
)

type detailer interface {
	Detail() string
}

// respondError maps an application error to an HTTP status and writes it.
// Server side failures are logged and their details withheld; transient
// ones carry a Retry-After hint.
func respondError(c *gin.Context, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		if apperrors.IsRetryable(err) {
			c.Header("Retry-After", "1")
		}
	}
	c.JSON(status, gin.H{"error": message})
}

func classify(err error) (int, string) {
	switch {
	case apperrors.IsNotFound(err):
		return http.StatusNotFound, detail(err)
	case apperrors.IsConflict(err):
		return http.StatusConflict, detail(err)
	case apperrors.IsNotMember(err):
		return http.StatusForbidden, detail(err)
	case apperrors.IsErrorType(err, apperrors.ErrorTypeAuth):
		return http.StatusUnauthorized, detail(err)
	case apperrors.IsErrorType(err, apperrors.ErrorTypeValidation),
		apperrors.IsErrorType(err, apperrors.ErrorTypeProtocol):
		return http.StatusBadRequest, detail(err)
	case apperrors.IsErrorType(err, apperrors.ErrorTypePresence):
		return http.StatusServiceUnavailable, "Presence service unavailable"
	case apperrors.IsErrorType(err, apperrors.ErrorTypeContext):
		return http.StatusServiceUnavailable, "Request cancelled"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func detail(err error) string {
	var d detailer
	if errors.As(err, &d) {
		return d.Detail()
	}
	return err.Error()
}

// badRequest reports malformed input such as a failed JSON bind
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
