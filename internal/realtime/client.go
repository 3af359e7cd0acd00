package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client is one live connection: a bounded send queue drained by
// writePump and a readPump that relays inbound text frames.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	logger zerolog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		logger: hub.logger.With().Str("conn_id", id).Logger(),
		send:   make(chan []byte, hub.cfg.SendBuffer),
	}
}

func (c *Client) ID() string {
	return c.id
}

// enqueue hands data to the write pump without blocking. It reports false
// when the queue is full or the client is already closing.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}

func pingPeriod(pongWait time.Duration) time.Duration {
	return pongWait * 9 / 10
}

func deadlineFrom(wait time.Duration) time.Time {
	return time.Now().Add(wait)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	err := c.conn.SetReadDeadline(deadlineFrom(cfg.PongWait))
	if err != nil {
		c.logger.Error().
			Err(err).
			Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(deadlineFrom(cfg.PongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().
					Err(err).
					Msg("unexpected live connection close")
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.logger.Debug().
				Int("message_type", messageType).
				Msg("dropping non-text message")
			continue
		}
		c.hub.Relay(data, c)
	}
}

func (c *Client) writePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(pingPeriod(cfg.PongWait))
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			err := c.conn.SetWriteDeadline(deadlineFrom(cfg.WriteWait))
			if err != nil {
				c.logger.Error().
					Err(err).
					Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the queue.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			err = c.conn.WriteMessage(websocket.TextMessage, data)
			if err != nil {
				c.logger.Debug().
					Err(err).
					Msg("failed to write message")
				return
			}

		case <-ticker.C:
			err := c.conn.SetWriteDeadline(deadlineFrom(cfg.WriteWait))
			if err != nil {
				return
			}
			err = c.conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				return
			}
		}
	}
}
