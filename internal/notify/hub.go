// Package notify pushes state-change messages to connected WebSocket clients
// so open views can refresh without polling.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// TypeHello is sent once to every client right after it connects.
const TypeHello = "hello"

const writeTimeout = 5 * time.Second

// Message is one broadcast frame.
type Message struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Hub fans messages out to every connected client. It implements
// http.Handler for the upgrade endpoint.
type Hub struct {
	logger  *slog.Logger
	origins []string

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]struct{}

	broadcast chan Message
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewHub starts a hub. originPatterns are host patterns accepted for
// cross-origin upgrades; nil allows same-origin only.
func NewHub(logger *slog.Logger, originPatterns []string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		logger:    logger,
		origins:   originPatterns,
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

// Notify broadcasts data, JSON-encoded, under kind.
func (h *Hub) Notify(kind string, data any) {
	msg := Message{Type: kind}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			h.logger.Warn("notify: marshal failed", "type", kind, "error", err)
			return
		}
		msg.Data = raw
	}
	h.Broadcast(msg)
}

// Broadcast queues msg for every client. It never blocks; when the queue is
// full the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case <-h.ctx.Done():
	case h.broadcast <- msg:
	default:
		h.logger.Warn("notify: queue full, dropping message", "type", msg.Type)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and stops the broadcast loop.
func (h *Hub) Close() {
	h.cancel()
	h.clientsMu.Lock()
	for conn := range h.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.clients, conn)
	}
	h.clientsMu.Unlock()
	h.wg.Wait()
}

// ServeHTTP upgrades the request and holds the connection until the client
// goes away or the hub closes. Client frames are read and discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.logger.Warn("notify: upgrade failed", "error", err)
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.clientsMu.Unlock()
	h.logger.Info("notify: client connected", "clients", n)

	if err := h.write(conn, Message{Type: TypeHello, Timestamp: time.Now().UTC()}); err != nil {
		h.remove(conn)
		return
	}

	defer h.remove(conn)
	for {
		if _, _, err := conn.Read(h.ctx); err != nil {
			return
		}
	}
}

func (h *Hub) loop() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg := <-h.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now().UTC()
			}
			h.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.clientsMu.RUnlock()

			for _, conn := range conns {
				if err := h.write(conn, msg); err != nil {
					h.logger.Info("notify: send failed, dropping client", "error", err)
					h.remove(conn)
				}
			}
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(h.ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.clientsMu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	n := len(h.clients)
	h.clientsMu.Unlock()
	if ok {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		h.logger.Info("notify: client disconnected", "clients", n)
	}
}
