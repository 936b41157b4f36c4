package handlers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/huangang/projectdesk/internal/auth"
	"github.com/huangang/projectdesk/internal/middleware"
	"github.com/huangang/projectdesk/internal/services"
	"github.com/huangang/projectdesk/pkg/logger"
)

const sessionEventBuffer = 8

// SSEHandler streams auth state changes of the signed-in user.
type SSEHandler struct {
	sessions *services.SessionService
}

func NewSSEHandler(sessions *services.SessionService) *SSEHandler {
	return &SSEHandler{sessions: sessions}
}

// StreamSessionEvents sends one event per session change. The stream ends on
// sign-out or when the client goes away, and the listener is removed.
// GET /api/events/session
func (h *SSEHandler) StreamSessionEvents(c *gin.Context) {
	userID := middleware.GetUserID(c)

	events := make(chan services.SessionEvent, sessionEventBuffer)
	unsubscribe := h.sessions.OnSessionChange(userID, func(e services.SessionEvent) {
		select {
		case events <- e:
		default:
			logger.Warn().Str("user_id", userID).Str("type", string(e.Type)).Msg("SSE client too slow, event dropped")
		}
	})
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	logger.Info().Str("user_id", userID).Msg("SSE client connected")

	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-events:
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error().Err(err).Msg("SSE marshal error")
				return true
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			return event.Type != auth.EventSignedOut
		case <-c.Request.Context().Done():
			logger.Info().Str("user_id", userID).Msg("SSE client disconnected")
			return false
		}
	})
}
