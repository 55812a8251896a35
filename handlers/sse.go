package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sshbridge/engine"
)

// SSEHandler serves the versioned connections change-stream (spec.md
// §4.8): one "connections" event per notification, keep-alive comments
// between them, framed the way the pack's nostr-hypermedia SSE stream
// does (event/data/id lines, periodic comment heartbeats, a cancelable
// request context driving client disconnect).
type SSEHandler struct {
	eng           *engine.Engine
	heartbeatEach time.Duration
}

func NewSSEHandler(eng *engine.Engine, heartbeat time.Duration) *SSEHandler {
	return &SSEHandler{eng: eng, heartbeatEach: heartbeat}
}

// Stream serves GET /connections/stream.
func (h *SSEHandler) Stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "streaming unsupported")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	subID, ch := h.eng.Subscribe()
	defer h.eng.Unsubscribe(subID)

	fmt.Fprint(c.Writer, ": connected\n\n")
	flusher.Flush()

	var eventID uint64
	ticker := time.NewTicker(h.heartbeatEach)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": hb\n\n")
			flusher.Flush()
		case summary, open := <-ch:
			if !open {
				return
			}
			eventID++
			writeSSEEvent(c.Writer, eventID, "connections", summary)
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, id uint64, event string, payload engine.Summary) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "id: %d\n", id)
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(string(body), "\n") {
		fmt.Fprintf(w, "data: %s\n", strings.TrimSuffix(line, "\r"))
	}
	fmt.Fprint(w, "\n")
}
