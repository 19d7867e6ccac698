package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/models"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// wsClient wraps one subscriber connection with its own write lock. Sessions
// broadcast from their own goroutines and gorilla/websocket allows only one
// concurrent writer per connection, so every write goes through the lock.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) write(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

// Hub pushes test lifecycle events to WebSocket subscribers. Delivery is
// fire-and-forget: a slow or dead client is dropped, never waited on.
type Hub struct {
	log      *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]*wsClient
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Cross-origin policy is enforced by the CORS layer in front.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*wsClient),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = &wsClient{conn: conn}
	h.mu.Unlock()
	h.log.Debug("WebSocket client connected: %s", conn.RemoteAddr())

	// Drain reads so close frames and pings are processed; subscribers never
	// send application data.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends a message to every connected client. Safe to call from any
// number of session goroutines; writes to one connection are serialized by
// the client's own lock.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(msg); err != nil {
			h.log.Debug("Dropping WebSocket client %s: %v", c.conn.RemoteAddr(), err)
			h.drop(c.conn)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Progress(sessionID string, variant *models.Variant) {
	h.Broadcast(Message{Topic: TopicProgress, SessionID: sessionID, Payload: variant, Timestamp: time.Now()})
}

func (h *Hub) Success(sessionID string, variant *models.Variant) {
	h.Broadcast(Message{Topic: TopicSuccess, SessionID: sessionID, Payload: variant, Timestamp: time.Now()})
}

func (h *Hub) SessionError(sessionID, kind, detail string) {
	h.Broadcast(Message{Topic: TopicError, SessionID: sessionID, Payload: ErrorPayload{Kind: kind, Detail: detail}, Timestamp: time.Now()})
}

func (h *Hub) Final(sessionID string, variants []models.Variant) {
	h.Broadcast(Message{Topic: TopicFinal, SessionID: sessionID, Payload: variants, Timestamp: time.Now()})
}
