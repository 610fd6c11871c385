package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"keybrame/internal/event"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Overlay pages are loaded by local browser sources from any origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans engine events out to connected overlay clients
type Hub struct {
	bus     *event.Bus
	current func() string

	mu      sync.RWMutex
	clients map[*wsClient]bool

	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
}

// wsClient represents a connected overlay
type wsClient struct {
	hub  *Hub
	id   string
	conn *websocket.Conn
	send chan []byte
	addr string
}

// NewHub creates a hub fed by bus. current returns the image a newly
// connected client should show first.
func NewHub(bus *event.Bus, current func() string) *Hub {
	return &Hub{
		bus:        bus,
		current:    current,
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	events, cancel := h.bus.Subscribe(event.DefaultBuffer)
	defer cancel()
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			// Flush what was emitted before the client arrived.
			if !h.drain(events) {
				return
			}
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			slog.Info("[ws] client connected", "id", c.id, "remote", c.addr, "clients", n)

			// Registration and events share this loop, so the initial image
			// always precedes later events for this client.
			h.sendTo(c, event.NewImageChange(h.current()))

		case c := <-h.unregister:
			h.drop(c)

		case ev, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(ev)

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// drain broadcasts queued events without blocking. It returns false when
// the subscription was closed.
func (h *Hub) drain(events <-chan event.Event) bool {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			h.broadcast(ev)
		default:
			return true
		}
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		slog.Info("[ws] client disconnected", "id", c.id, "clients", len(h.clients))
	}
}

func (h *Hub) sendTo(c *wsClient, ev event.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("[ws] failed to marshal event", "kind", ev.Kind, "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		h.drop(c)
	}
}

func (h *Hub) broadcast(ev event.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("[ws] failed to marshal event", "kind", ev.Kind, "error", err)
		return
	}

	var slow []*wsClient
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("[ws] client too slow, dropping", "id", c.id)
		h.drop(c)
	}
}

// ServeWS upgrades the request and registers the client
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[ws] failed to upgrade connection", "error", err)
		return
	}

	c := &wsClient{
		hub:  h,
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		addr: r.RemoteAddr,
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump keeps the read deadline alive and notices disconnects. Overlay
// clients do not send anything meaningful.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("[ws] read error", "id", c.id, "error", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
