package realtime

import (
	"net/http"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasksync/internal/config"
)

const (
	deliveryKindEvent = "event"
	deliveryKindRelay = "relay"
)

type hubMetrics struct {
	connections prometheus.Gauge
	deliveries  *prometheus.CounterVec
}

func newHubMetrics(reg prometheus.Registerer) *hubMetrics {
	factory := promauto.With(reg)
	return &hubMetrics{
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tasksync_live_connections",
			Help: "Number of currently registered live connections",
		}),
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tasksync_broadcast_deliveries_total",
			Help: "Messages handed to live connections, by kind and result",
		}, []string{"kind", "result"}),
	}
}

// Hub is the registry of live connections of one server instance. Task
// events and relayed messages are fanned out to a snapshot of the set, so
// connections may come and go while a delivery is in flight.
type Hub struct {
	logger   zerolog.Logger
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
	metrics  *hubMetrics

	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

// NewHub creates an empty hub. Collectors are registered on reg; a nil
// registerer leaves them unregistered.
func NewHub(logger zerolog.Logger, cfg config.RealtimeConfig, reg prometheus.Registerer) *Hub {
	return &Hub{
		logger: logger,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			// Authentication is out of scope; every origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		metrics: newHubMetrics(reg),
		clients: make(map[*Client]struct{}),
	}
}

// Register adds c to the live set. It reports false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.connections.Set(float64(count))
	h.logger.Info().
		Str("conn_id", c.id).
		Int("total_clients", count).
		Msg("live connection registered")
	return true
}

// Unregister removes c and closes its send queue. Unknown clients are ignored.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	c.close()

	h.metrics.connections.Set(float64(count))
	h.logger.Info().
		Str("conn_id", c.id).
		Int("total_clients", count).
		Msg("live connection unregistered")
}

// Broadcast sends ev to every registered connection except the optional
// exclude. Delivery failures are logged and never returned.
func (h *Hub) Broadcast(ev Event, exclude ...*Client) {
	data, err := Encode(ev)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to encode event")
		return
	}

	var skip *Client
	if len(exclude) > 0 {
		skip = exclude[0]
	}

	delivered := h.deliver(deliveryKindEvent, data, skip)
	h.logger.Debug().
		Str("type", string(ev.Type())).
		Int("delivered", delivered).
		Msg("broadcast event")
}

// Relay forwards msg unmodified to every registered connection but sender.
func (h *Hub) Relay(msg []byte, sender *Client) {
	delivered := h.deliver(deliveryKindRelay, msg, sender)
	h.logger.Trace().
		Str("conn_id", sender.ID()).
		Int("delivered", delivered).
		Msg("relayed message")
}

func (h *Hub) deliver(kind string, data []byte, skip *Client) int {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c != skip {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	var (
		delivered int
		failed    []*Client
	)
	for _, c := range clients {
		if c.enqueue(data) {
			delivered++
			continue
		}
		failed = append(failed, c)
	}

	h.metrics.deliveries.WithLabelValues(kind, "ok").Add(float64(delivered))
	if len(failed) == 0 {
		return delivered
	}

	h.metrics.deliveries.WithLabelValues(kind, "failed").Add(float64(len(failed)))
	for _, c := range failed {
		h.logger.Warn().
			Str("conn_id", c.id).
			Str("kind", kind).
			Msg("dropping live connection that did not accept a message")
		h.Unregister(c)
	}
	return delivered
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes every connection and refuses later registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.closed = true
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.metrics.connections.Set(0)
	h.logger.Info().
		Int("clients_closed", len(clients)).
		Msg("live hub closed")
}

// ServeWS upgrades r into a live connection and registers it. Requests
// offering a rejected subprotocol (dev tooling handshakes) get 403.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	for _, proto := range websocket.Subprotocols(r) {
		if slices.Contains(h.cfg.RejectedSubprotocols, proto) {
			h.logger.Debug().
				Str("subprotocol", proto).
				Msg("rejected live connection handshake")
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error.
		h.logger.Error().
			Err(err).
			Msg("failed to upgrade live connection")
		return
	}

	c := newClient(h, conn)
	if !h.Register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			deadlineFrom(h.cfg.WriteWait))
		_ = conn.Close()
		return
	}
	c.start()
}
