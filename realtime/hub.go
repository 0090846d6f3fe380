// Package realtime fans field events out to websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"field-swarm/events"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// DefaultBuffer is the number of pending broadcasts the hub holds.
const DefaultBuffer = 256

// Hub owns the set of connected websocket clients. Delivery is at most once:
// a client only sees broadcasts sent while it is connected.
type Hub struct {
	upgrader websocket.Upgrader
	pub      events.Publisher
	log      *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	queue chan []byte
}

// NewHub builds a hub. pub may be nil when no bus is configured.
func NewHub(buffer int, pub events.Publisher, log *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pub:     pub,
		log:     log,
		clients: make(map[*websocket.Conn]bool),
		queue:   make(chan []byte, buffer),
	}
}

// ServeWS upgrades the request and keeps the client registered until it
// disconnects. Inbound messages are read and discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	h.mu.Unlock()
	h.log.Info("websocket client connected", zap.Int("total", total))

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		total := len(h.clients)
		h.mu.Unlock()
		conn.Close()
		h.log.Info("websocket client disconnected", zap.Int("total", total))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Handler exposes ServeWS as an http.Handler.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(h.ServeWS)
}

// Broadcast queues {type, data} for every connected client and mirrors it to
// the bus. It never blocks; when the queue is full the message is dropped.
func (h *Hub) Broadcast(messageType string, data any) {
	msg := events.Message{Type: messageType, Data: data}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal broadcast", zap.String("type", messageType), zap.Error(err))
		return
	}

	select {
	case h.queue <- payload:
	default:
		h.log.Warn("broadcast queue full, dropping message", zap.String("type", messageType))
	}

	if err := h.pub.Publish(context.Background(), events.Subject(messageType), msg); err != nil {
		h.log.Warn("publish event", zap.String("type", messageType), zap.Error(err))
	}
}

// Run delivers queued broadcasts until ctx is cancelled, then disconnects
// every client.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.Close()
			return nil
		case payload := <-h.queue:
			h.deliver(payload)
		}
	}
}

func (h *Hub) deliver(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
		if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn("websocket write failed", zap.Error(err))
			client.Close()
			delete(h.clients, client)
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		client.Close()
		delete(h.clients, client)
	}
}
