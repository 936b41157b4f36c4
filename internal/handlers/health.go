package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/projectdesk/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports database reachability and session listeners.
type HealthHandler struct {
	db  *gorm.DB
	hub *services.SessionHub
}

func NewHealthHandler(db *gorm.DB, hub *services.SessionHub) *HealthHandler {
	return &HealthHandler{db: db, hub: hub}
}

// CheckHealth
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "projectdesk",
		"components": gin.H{
			"database":          dbStatus,
			"session_listeners": h.hub.ListenerCount(),
		},
	})
}
