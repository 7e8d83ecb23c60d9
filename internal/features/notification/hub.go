package notification

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Hub tracks live websocket connections per user so accepted
// transitions can be pushed without the UI polling. Delivery here is
// best-effort; the Mongo inbox row is the durable copy.
type Hub struct {
	mu    sync.RWMutex
	conns map[string][]*websocket.Conn // userID -> open sockets
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns: make(map[string][]*websocket.Conn),
		log:   log,
	}
}

func (h *Hub) Register(userID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[userID] = append(h.conns[userID], c)
}

func (h *Hub) Unregister(userID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.conns[userID]
	for i, conn := range conns {
		if conn == c {
			h.conns[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// Push sends a notification to every open socket of the user. Errors
// are logged, not returned: a dropped socket must never fail a
// decision submission.
func (h *Hub) Push(userID string, n *Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		h.log.Error("failed to marshal notification", zap.Error(err))
		return
	}

	h.mu.RLock()
	conns := append([]*websocket.Conn(nil), h.conns[userID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn("websocket push failed",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
}

// HandleConn services one websocket until the client goes away.
func (h *Hub) HandleConn(userID string, c *websocket.Conn) {
	h.Register(userID, c)
	defer func() {
		h.Unregister(userID, c)
		c.Close()
	}()

	for {
		// Clients only listen; reads just detect disconnect.
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
