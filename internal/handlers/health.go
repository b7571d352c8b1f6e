package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/readshelf/backend/internal/database"
)

type HealthHandler struct {
	db database.Service
}

func NewHealthHandler(db database.Service) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports whether the API and its database are reachable
func (h *HealthHandler) Health(c *gin.Context) {
	stats := h.db.Health(c.Request.Context())

	status, code := "ok", http.StatusOK
	if stats["status"] != "up" {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{"status": status, "database": stats})
}
