package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"ChallengeArena/internal/usecase"
	xlogger "ChallengeArena/pkg/logger"
)

// StatusSource produces the payload pushed to every client.
type StatusSource interface {
	Status() usecase.StatusPayload
}

type message struct {
	Type string                `json:"type"`
	Data usecase.StatusPayload `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans the status payload out to /ws/live subscribers. Slow clients
// lose frames instead of stalling the broadcast.
type Hub struct {
	src          StatusSource
	lgr          *xlogger.Logger
	interval     time.Duration
	pingInterval time.Duration
	writeWait    time.Duration
	upgrader     websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type Option func(*Hub)

func WithInterval(d time.Duration) Option { return func(h *Hub) { h.interval = d } }

func WithPingInterval(d time.Duration) Option { return func(h *Hub) { h.pingInterval = d } }

func NewHub(src StatusSource, lgr *xlogger.Logger, opts ...Option) *Hub {
	h := &Hub{
		src:          src,
		lgr:          lgr,
		interval:     3 * time.Second,
		pingInterval: 30 * time.Second,
		writeWait:    5 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/live", h.Serve)
}

// Serve upgrades the request and blocks until the client goes away.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.lgr.Warn("ws upgrade failed", xlogger.Error(err))
		return nil
	}
	cl := &client{conn: conn, send: make(chan []byte, 8)}
	if !h.add(cl) {
		_ = conn.Close()
		return nil
	}
	h.lgr.Debug("ws client connected", xlogger.String("remote", c.RealIP()), xlogger.Int("clients", h.Clients()))

	if b, err := h.encode(); err == nil {
		h.push(cl, b)
	}
	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

// readLoop discards inbound frames; it exists to notice disconnects and pongs.
func (h *Hub) readLoop(cl *client) {
	defer h.remove(cl)
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case b, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl] = struct{}{}
	return true
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

// push never blocks; a client that is gone or full misses the frame.
func (h *Hub) push(cl *client, b []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; !ok {
		return false
	}
	select {
	case cl.send <- b:
		return true
	default:
		return false
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) encode() ([]byte, error) {
	return json.Marshal(message{Type: "status", Data: h.src.Status()})
}

// Broadcast pushes one status frame and returns how many clients got it.
func (h *Hub) Broadcast() int {
	h.mu.Lock()
	n := len(h.clients)
	h.mu.Unlock()
	if n == 0 {
		return 0
	}

	b, err := h.encode()
	if err != nil {
		h.lgr.Error("ws encode status", xlogger.Error(err))
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	sent := 0
	for cl := range h.clients {
		select {
		case cl.send <- b:
			sent++
		default:
			// drop on backpressure
		}
	}
	return sent
}

// Run broadcasts every interval until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.Close()
			return
		case <-ticker.C:
			h.Broadcast()
		}
	}
}

// Close refuses new clients and closes existing ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
	}
}
