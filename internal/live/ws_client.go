package live

import (
	"io"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// WSClient wraps a websocket dashboard connection. gorilla/websocket allows
// at most one concurrent writer per connection, so every write goes through
// the mutex.
type WSClient struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	log    *slog.Logger
	closed bool
}

func NewWSClient(conn *websocket.Conn, logger *slog.Logger) *WSClient {
	return &WSClient{conn: conn, log: logger}
}

// Send writes a frame to the websocket connection.
func (c *WSClient) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return io.EOF
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.closed = true
		c.log.Warn("websocket send failed", "error", err)
		_ = c.conn.Close()
		return err
	}
	return nil
}

// Close terminates the connection.
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
}
