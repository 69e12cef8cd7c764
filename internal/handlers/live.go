package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kesarsunil/problemstatment/internal/live"
)

const sseHeartbeatInterval = 25 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamSSE streams occupancy updates as Server-Sent Events: the full
// snapshot on connect, then one frame per committed registration.
func (h *Handler) StreamSSE(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming unsupported")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := live.NewSSEClient(c.Writer, flusher, h.logger)
	if err := h.projector.Subscribe(c.Request.Context(), client); err != nil {
		h.logger.Warn("sse subscribe failed", "error", err)
		return
	}
	defer h.projector.Unsubscribe(client)

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			client.Close()
			return
		case <-heartbeat.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

// StreamWS is the websocket flavor of the same stream.
func (h *Handler) StreamWS(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := live.NewWSClient(conn, h.logger)
	if err := h.projector.Subscribe(c.Request.Context(), client); err != nil {
		h.logger.Warn("websocket subscribe failed", "error", err)
		client.Close()
		return
	}

	// Reads are discarded; the stream is one-way. A read error means the
	// peer went away.
	go func() {
		defer func() {
			h.projector.Unsubscribe(client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
