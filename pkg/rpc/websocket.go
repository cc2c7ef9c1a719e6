package rpc

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CipherCoRetech/SypherLang/pkg/node"
)

const wsWriteTimeout = 10 * time.Second

// wsHub fans the node's event feed out to websocket subscribers. Clients
// connect to /ws and receive a JSON event per mined block or adopted
// chain; the hub never reads application data from clients.
type wsHub struct {
	upgrader websocket.Upgrader
	node     *node.Node

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	log      *slog.Logger
}

func newWSHub(n *node.Node) *wsHub {
	return &wsHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		node:   n,
		conns:  make(map[*websocket.Conn]struct{}),
		stopCh: make(chan struct{}),
		log:    slog.With("component", "rpc.ws"),
	}
}

// run pumps node events to connected clients until stop is called.
func (h *wsHub) run() {
	events, cancel := h.node.Subscribe()
	defer cancel()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(ev)
		case <-h.stopCh:
			return
		}
	}
}

func (h *wsHub) stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
	}
	h.conns = make(map[*websocket.Conn]struct{})
}

func (h *wsHub) broadcast(ev node.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encoding event failed", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Debug("dropping websocket subscriber", "err", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *wsHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", "err", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	go h.readLoop(conn)
}

// readLoop discards client frames and detects disconnects.
func (h *wsHub) readLoop(conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
