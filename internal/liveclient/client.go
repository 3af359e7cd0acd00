// Package liveclient keeps a live connection to a tasksync server open,
// reconnecting after a fixed delay whenever the connection drops.
package liveclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasksync/internal/realtime"
)

const (
	DefaultReconnectDelay = time.Second
	defaultWriteWait      = 10 * time.Second
)

var ErrNotConnected = errors.New("live connection is not open")

type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

type (
	EventHandler func(ev realtime.Event)
	RelayHandler func(msg []byte)
)

type Option func(*Client)

func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client owns the handler registry independently of any one connection,
// so handlers keep receiving messages after a reconnect.
type Client struct {
	url            string
	dialer         *websocket.Dialer
	logger         zerolog.Logger
	reconnectDelay time.Duration

	state atomic.Int32

	handlersMu    sync.Mutex
	nextHandlerID uint64
	eventHandlers []registration[EventHandler]
	relayHandlers []registration[RelayHandler]

	connMu sync.Mutex
	conn   *websocket.Conn
}

type registration[H any] struct {
	id      uint64
	handler H
}

func New(url string, opts ...Option) *Client {
	c := &Client{
		url:            url,
		dialer:         websocket.DefaultDialer,
		logger:         zerolog.Nop(),
		reconnectDelay: DefaultReconnectDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Store(int32(StateClosed))
	return c
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	if prev != s {
		c.logger.Debug().
			Stringer("from", prev).
			Stringer("to", s).
			Msg("live connection state changed")
	}
}

// OnEvent registers h for task events. Handlers run in registration order on
// the read goroutine. The returned func removes h.
func (c *Client) OnEvent(h EventHandler) (unsubscribe func()) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	c.nextHandlerID++
	id := c.nextHandlerID
	c.eventHandlers = append(c.eventHandlers, registration[EventHandler]{id: id, handler: h})
	return func() {
		c.handlersMu.Lock()
		defer c.handlersMu.Unlock()
		c.eventHandlers = removeRegistration(c.eventHandlers, id)
	}
}

// OnRelay registers h for messages that are not task events.
func (c *Client) OnRelay(h RelayHandler) (unsubscribe func()) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	c.nextHandlerID++
	id := c.nextHandlerID
	c.relayHandlers = append(c.relayHandlers, registration[RelayHandler]{id: id, handler: h})
	return func() {
		c.handlersMu.Lock()
		defer c.handlersMu.Unlock()
		c.relayHandlers = removeRegistration(c.relayHandlers, id)
	}
}

func removeRegistration[H any](regs []registration[H], id uint64) []registration[H] {
	out := make([]registration[H], 0, len(regs))
	for _, r := range regs {
		if r.id != id {
			out = append(out, r)
		}
	}
	return out
}

// Send writes msg on the current connection. The server relays it to every
// other peer.
func (c *Client) Send(msg []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil || c.State() != StateOpen {
		return ErrNotConnected
	}

	err := c.conn.SetWriteDeadline(time.Now().Add(defaultWriteWait))
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Run connects and keeps reconnecting until ctx is done. It always returns
// ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	for {
		c.setState(StateConnecting)
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("url", c.url).
				Msg("failed to dial live connection")
		} else {
			c.serve(ctx, conn)
		}
		c.setState(StateClosed)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		timer := time.NewTimer(c.reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.setState(StateOpen)
	c.connMu.Unlock()

	c.logger.Info().
		Str("url", c.url).
		Msg("live connection open")

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer func() {
		stop()
		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		_ = conn.Close()
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Info().
					Err(err).
					Msg("live connection closed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	ev, err := realtime.Decode(data)

	c.handlersMu.Lock()
	events := append([]registration[EventHandler](nil), c.eventHandlers...)
	relays := append([]registration[RelayHandler](nil), c.relayHandlers...)
	c.handlersMu.Unlock()

	if err != nil {
		for _, r := range relays {
			r.handler(data)
		}
		return
	}
	for _, r := range events {
		r.handler(ev)
	}
}
