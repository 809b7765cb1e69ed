package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// keepaliveInterval is how often a comment line is written to hold idle
// connections open through proxies.
const keepaliveInterval = 30 * time.Second

// ServeSSE returns a gin handler that attaches the caller as an SSE client
// of the hub. The session ID comes from the route parameter "sessionId";
// the connection stays open until the client disconnects or the server
// shuts down.
func ServeSSE(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing session id"})
			return
		}

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
			return
		}

		// SSE connections are long-lived; clear any server write deadline.
		rc := http.NewResponseController(c.Writer)
		_ = rc.SetWriteDeadline(time.Time{})

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		client := NewClient(sessionID + ":" + uuid.NewString())
		hub.Register(client)
		defer hub.Unregister(client)

		connected, _ := json.Marshal(Envelope{Type: EventTypeConnected, Session: sessionID})
		fmt.Fprintf(c.Writer, "data: %s\n\n", connected)
		flusher.Flush()

		keepalive := time.NewTicker(keepaliveInterval)
		defer keepalive.Stop()

		for {
			select {
			case data, open := <-client.Receive():
				if !open {
					return
				}
				if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
					return
				}
				flusher.Flush()
			case <-keepalive.C:
				if _, err := fmt.Fprint(c.Writer, ": keepalive\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case <-c.Request.Context().Done():
				return
			}
		}
	}
}
