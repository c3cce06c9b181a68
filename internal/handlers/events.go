package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/roommates-api/internal/errors"
	"github.com/yukikurage/roommates-api/internal/middleware"
	"github.com/yukikurage/roommates-api/internal/realtime"
)

const keepAliveInterval = 25 * time.Second

// EventHandler streams group events to connected members
type EventHandler struct {
	hub *realtime.Hub
}

func NewEventHandler(hub *realtime.Hub) *EventHandler {
	return &EventHandler{
		hub: hub,
	}
}

// Stream sends the caller's group events as server-sent events until the
// client disconnects. Requires RequireGroupMember.
func (h *EventHandler) Stream(c *gin.Context) {
	groupID, ok := middleware.GetGroupID(c)
	if !ok {
		apierrors.InternalError(c, "Group not found in context")
		return
	}

	events, cancel, err := h.hub.Subscribe(groupID)
	if err != nil {
		if errors.Is(err, realtime.ErrHubClosed) {
			apierrors.ServiceUnavailable(c, "Event stream is shutting down")
			return
		}
		apierrors.InternalError(c, "")
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(event.Type, event)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})

	slog.Debug("Event stream closed", "group_id", groupID)
}
