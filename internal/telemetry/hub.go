// internal/telemetry/hub.go
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const hubWriteTimeout = 200 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub broadcasts primary telemetry lines to websocket clients.
// Slow or broken clients are dropped.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	buf    []byte
	logger *slog.Logger
}

// NewHub returns a hub with no clients.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{conns: make(map[*websocket.Conn]bool), logger: logger}
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Send writes the frame's primary line to every client.
func (h *Hub) Send(fr Frame) error {
	clients := h.snapshot()
	if len(clients) == 0 {
		return nil
	}
	h.buf = AppendPrimary(h.buf[:0], fr)
	for _, c := range clients {
		_ = c.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
		if err := c.WriteMessage(websocket.TextMessage, h.buf); err != nil {
			h.logger.Debug("dropping websocket client", "remote", c.RemoteAddr().String(), "error", err)
			_ = c.Close()
			h.remove(c)
		}
	}
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() error {
	for _, c := range h.snapshot() {
		_ = c.Close()
		h.remove(c)
	}
	return nil
}

// ServeHTTP upgrades the request and keeps the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.add(conn)
	h.logger.Info("websocket client connected", "remote", r.RemoteAddr)
	defer func() {
		h.remove(conn)
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ListenAndServe serves the hub at /ws on addr until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("websocket server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
