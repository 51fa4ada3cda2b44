package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dailytracker/backend/internal/logging"
	"github.com/dailytracker/backend/internal/model/chat"
	"github.com/dailytracker/backend/internal/transport"
)

const defaultWriteTimeout = 10 * time.Second

// Hub keeps the live connection of each user. A newer connection replaces the older one.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]*client
	logger  logging.Logger
}

type client struct {
	id     string
	userID int64
	conn   *websocket.Conn

	writeMu sync.Mutex
}

// NewHub creates an empty hub.
func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]*client),
		logger:  logger.With("component", "websocket"),
	}
}

func (h *Hub) Name() string { return "websocket" }

// Reaches reports whether the user has a live connection.
func (h *Hub) Reaches(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Len is the number of connected users.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendText writes a reply to the user's live connection.
func (h *Hub) SendText(ctx context.Context, userID int64, text string, menu chat.Menu) error {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("websocket user %d: %w", userID, transport.ErrNoRoute)
	}

	return c.write(ctx, outgoingMessage{
		Type:      "message",
		UserID:    userID,
		Data:      replyData{Text: text, Menu: menu},
		Timestamp: time.Now().Unix(),
	})
}

func (h *Hub) register(userID int64, conn *websocket.Conn) *client {
	c := &client{id: uuid.NewString(), userID: userID, conn: conn}

	h.mu.Lock()
	prev := h.clients[userID]
	h.clients[userID] = c
	h.mu.Unlock()

	if prev != nil {
		h.logger.Infow("replacing connection", "user_id", userID, "old_client", prev.id, "new_client", c.id)
		prev.conn.Close()
	}
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.userID]; ok && cur == c {
		delete(h.clients, c.userID)
	}
	h.mu.Unlock()
}

// write serialises writers; gorilla allows one concurrent writer per connection.
func (c *client) write(ctx context.Context, msg outgoingMessage) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultWriteTimeout)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}
