package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/riskgov/internal/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The control plane is expected to sit behind an internal proxy;
	// origin policy belongs there.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans each tick result out to connected dashboard clients. Slow
// clients are dropped rather than allowed to back-pressure the loop.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan *engine.TickResult
	clients    map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan *engine.TickResult
}

// NewHub creates an empty broadcast hub.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan *engine.TickResult, 16),
		clients:    make(map[*client]struct{}),
	}
}

// Run owns the client set; call it once in its own goroutine. Exits when
// the context is cancelled, closing every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			log.Debug().Int("clients", len(h.clients)).Msg("stream client connected")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case result := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- result:
				default:
					// Client can't keep up; disconnect it.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Broadcast queues a tick result for fan-out. Never blocks the tick loop:
// when the queue is full the result is dropped for streaming purposes
// (it is still in the audit ledger and /v1/decision).
func (h *Hub) Broadcast(result *engine.TickResult) {
	select {
	case h.broadcast <- result:
	default:
	}
}

// handleStream upgrades the connection and streams tick results.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan *engine.TickResult, 8)}
	s.hub.register <- c

	go c.writeLoop()
	c.readLoop(s.hub)
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for result := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteJSON(result); err != nil {
			return
		}
	}
}

// readLoop exists to detect disconnects; inbound messages are ignored.
func (c *client) readLoop(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
