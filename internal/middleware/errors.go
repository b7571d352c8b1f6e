package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/readshelf/backend/internal/apperrors"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Message string         `json:"message"`
	Code    apperrors.Code `json:"code"`
	Details any            `json:"details,omitempty"`
}

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		RenderError(c, log, c.Errors.Last().Err)
	}
}

// RenderError writes err as a JSON error response. Domain errors keep
// their status and message; anything else is logged and becomes a 500.
func RenderError(c *gin.Context, log *zap.Logger, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		log.Error("unhandled error",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "internal server error",
			Code:    apperrors.CodeInternal,
		})
		return
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.Error(err),
			zap.String("code", string(appErr.Code)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)
	}

	c.JSON(status, ErrorResponse{
		Message: appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}
