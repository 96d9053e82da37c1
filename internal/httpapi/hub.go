package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hamed0406/netwatch/internal/domain"
	"github.com/hamed0406/netwatch/internal/status"
)

const (
	wsWriteWait  = 5 * time.Second
	wsQueueDepth = 8
)

// wsFrame is one message pushed to websocket consumers.
type wsFrame struct {
	Type     string               `json:"type"`
	Snapshot *domain.Snapshot     `json:"snapshot"`
	Events   []domain.ChangeEvent `json:"events,omitempty"`
}

// Hub streams cycle outcomes to websocket subscribers. Broadcast never
// blocks the coordinator: a subscriber whose queue is full skips frames and
// catches up on the next cycle, which is harmless because every frame
// carries the full snapshot.
type Hub struct {
	Logger  *zap.Logger
	Tracker *status.Tracker

	upgrader websocket.Upgrader
	mu       sync.Mutex
	conns    map[*websocket.Conn]chan wsFrame
}

func NewHub(logger *zap.Logger, tracker *status.Tracker) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		Logger:  logger,
		Tracker: tracker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The REST API is CORS-open for browser dashboards; the
			// socket matches that posture.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]chan wsFrame),
	}
}

// OnCycle implements the coordinator Listener.
func (h *Hub) OnCycle(_ context.Context, snap *domain.Snapshot, events []domain.ChangeEvent) {
	h.broadcast(wsFrame{Type: "snapshot", Snapshot: snap, Events: events})
}

func (h *Hub) broadcast(f wsFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.conns {
		select {
		case ch <- f:
		default:
			h.Logger.Debug("ws_frame_skipped", zap.String("remote", conn.RemoteAddr().String()))
		}
	}
}

// ServeWS upgrades the connection and streams one frame per completed cycle,
// starting with the current snapshot when one exists.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("ws_upgrade_failed", zap.Error(err))
		return
	}

	ch := make(chan wsFrame, wsQueueDepth)
	if snap, ok := h.Tracker.Latest(); ok {
		ch <- wsFrame{Type: "snapshot", Snapshot: snap}
	}

	h.mu.Lock()
	h.conns[conn] = ch
	h.mu.Unlock()
	h.Logger.Info("ws_connected", zap.String("remote", conn.RemoteAddr().String()))

	// read pump: we never expect client frames, but reading is how the
	// close handshake surfaces
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer h.drop(conn)
		for {
			select {
			case <-done:
				return
			case f := <-ch:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(f); err != nil {
					return
				}
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
	h.Logger.Info("ws_disconnected", zap.String("remote", conn.RemoteAddr().String()))
}
