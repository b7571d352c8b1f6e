package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/readshelf/backend/internal/middleware"
	"github.com/emilythestrangee/readshelf/backend/internal/service"
)

type UploadHandler struct {
	uploads *service.UploadService
}

func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Presign returns a presigned URL the client PUTs an image to (PROTECTED)
func (h *UploadHandler) Presign(c *gin.Context) {
	var input service.PresignInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	upload, err := h.uploads.PresignImage(c.Request.Context(), middleware.CurrentUserID(c), input)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, upload)
}
