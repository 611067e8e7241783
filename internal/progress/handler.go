package progress

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/server/middleware"
)

// Handler exposes the progress stream over server-sent events.
type Handler struct {
	Broadcaster *Broadcaster
}

// RegisterRoutes attaches the SSE stream to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/progress/stream", h.stream)
}

func (h *Handler) stream(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	events, cancel := h.Broadcaster.Subscribe(userID)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("progress", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
