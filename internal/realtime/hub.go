// Package realtime pushes committed state changes to connected websocket
// clients.
package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/utils"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Message struct {
	Event events.EventType `json:"event"`
	Data  events.Event     `json:"data"`
}

type client struct {
	userID uint
	admin  bool
	send   chan Message
}

// Hub routes events to the user they concern and to every connected admin.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *utils.Logger

	versionMu sync.Mutex
	versions  map[uint]uint64
}

func NewHub(logger *utils.Logger) *Hub {
	return &Hub{
		clients:  make(map[*client]struct{}),
		logger:   logger,
		versions: make(map[uint]uint64),
	}
}

// Subscribe registers the hub for every event it forwards.
func (h *Hub) Subscribe(bus *events.Bus) {
	for _, t := range []events.EventType{
		events.EventTypeBalanceUpdated,
		events.EventTypeUserOnline,
		events.EventTypeWithdrawalRequested,
		events.EventTypeDepositSubmitted,
	} {
		bus.Subscribe(t, h.Publish)
	}
}

// recipient is the user an event is addressed to, or zero when only admins
// should see it.
func recipient(e events.Event) uint {
	if b, ok := e.(events.BalanceUpdatedEvent); ok {
		return b.UserID
	}
	return 0
}

// fresh records the newest balance version per user and reports whether v
// is newer than anything already forwarded.
func (h *Hub) fresh(userID uint, v uint64) bool {
	h.versionMu.Lock()
	defer h.versionMu.Unlock()
	if v <= h.versions[userID] {
		return false
	}
	h.versions[userID] = v
	return true
}

func (h *Hub) Publish(_ context.Context, e events.Event) {
	if b, ok := e.(events.BalanceUpdatedEvent); ok && b.Version > 0 && !h.fresh(b.UserID, b.Version) {
		h.logger.Debugf("Skipping stale balance v%d for user %d", b.Version, b.UserID)
		return
	}

	msg := Message{Event: e.Type(), Data: e}
	userID := recipient(e)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.admin && (userID == 0 || c.userID != userID) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.logger.Warnf("Dropping %s for slow websocket client of user %d", e.Type(), c.userID)
		}
	}
}

func (h *Hub) register(userID uint, admin bool) *client {
	c := &client{userID: userID, admin: admin, send: make(chan Message, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Clients reports how many connections are open.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades the request and streams events until the peer goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uint, admin bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := h.register(userID, admin)
	defer h.unregister(c)
	h.logger.Debugf("Websocket connected for user %d (admin=%t)", userID, admin)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debugf("ws write error: %v", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
