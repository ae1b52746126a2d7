package publish

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mselser95/cex-arb/internal/arbitrage"
	"github.com/mselser95/cex-arb/pkg/types"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds incoming messages; clients only listen.
	maxMessageSize = 512

	// sendBufferSize is the per-client outgoing buffer. A client that
	// falls this far behind is dropped.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		// The feed is read-only public data.
		return true
	},
}

// envelope is the wire frame for every hub message.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// client is one WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes each ranking and status snapshot to every connected WebSocket
// client. Registration and broadcast run on a single event loop; slow
// clients are dropped rather than allowed to stall the loop.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	logger     *zap.Logger

	mu          sync.Mutex
	lastRanking []byte
	closed      bool
}

// NewHub creates an idle hub; call Run to start the event loop.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		logger:     logger.With(zap.String("component", "ws-hub")),
	}
}

// Run drives the hub until the context is cancelled, then disconnects all
// clients.
func (h *Hub) Run(ctx context.Context) {
	// done unblocks register/unregister senders once the loop is gone.
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}

			WSClients.Set(0)
			h.logger.Info("hub-stopped")

			return

		case c := <-h.register:
			h.clients[c] = true
			WSClients.Set(float64(len(h.clients)))
			h.logger.Info("ws-client-connected", zap.Int("total_clients", len(h.clients)))

			// New clients get the latest ranking right away.
			if last := h.latestRanking(); last != nil {
				select {
				case c.send <- last:
				default:
				}
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

			WSClients.Set(float64(len(h.clients)))
			h.logger.Info("ws-client-disconnected", zap.Int("total_clients", len(h.clients)))

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn("ws-dropping-slow-client")
					delete(h.clients, c)
					close(c.send)
				}
			}

			WSClients.Set(float64(len(h.clients)))
		}
	}
}

// Name implements Publisher.
func (h *Hub) Name() string {
	return "websocket"
}

// Publish broadcasts the ranking as {"type":"opportunities","data":[...]}.
func (h *Hub) Publish(_ context.Context, opps []arbitrage.Opportunity) error {
	msg, err := json.Marshal(envelope{Type: "opportunities", Data: opps})
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.lastRanking = msg
	closed := h.closed
	h.mu.Unlock()

	if closed {
		return nil
	}

	select {
	case h.broadcast <- msg:
	default:
		// The event loop is behind; this snapshot is superseded within a
		// tick anyway.
	}

	return nil
}

// PublishStatus broadcasts {"type":"status","data":{...}}.
func (h *Hub) PublishStatus(_ context.Context, statuses map[string]types.ExchangeStatus) error {
	msg, err := json.Marshal(envelope{Type: "status", Data: statuses})
	if err != nil {
		return err
	}

	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()

	if closed {
		return nil
	}

	select {
	case h.broadcast <- msg:
	default:
	}

	return nil
}

// Close stops accepting broadcasts. The event loop itself stops with its
// context.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	return nil
}

// ServeWS upgrades an HTTP request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws-upgrade-failed", zap.Error(err))
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}

	select {
	case h.register <- c:
	case <-h.done:
		// The event loop is gone; nobody would ever service this client.
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) latestRanking() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.lastRanking
}

// readPump discards client input and notices disconnects.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}

		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
