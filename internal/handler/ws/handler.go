package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dailytracker/backend/internal/logging"
	"github.com/dailytracker/backend/internal/model/chat"
	"github.com/dailytracker/backend/internal/service/conversation"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
)

// EventHandler consumes decoded inbound events.
type EventHandler interface {
	Handle(ctx context.Context, ev chat.Event) (conversation.Outcome, error)
}

// Handler upgrades connections, registers them on the hub and feeds inbound messages to the engine.
type Handler struct {
	hub      *Hub
	events   EventHandler
	logger   logging.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the websocket endpoint handler.
func NewHandler(hub *Hub, events EventHandler, logger logging.Logger) *Handler {
	return &Handler{
		hub:    hub,
		events: events,
		logger: logger.With("component", "websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts /ws/{userID} on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{userID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Token string `json:"token"`
	Text  string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	UserID    int64       `json:"userId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type replyData struct {
	Text string    `json:"text"`
	Menu chat.Menu `json:"menu,omitempty"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "userID must be a positive integer", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("upgrade failed", "user_id", userID, "error", err)
		return
	}
	defer conn.Close()

	c := h.hub.register(userID, conn)
	defer h.hub.unregister(c)

	h.logger.Infow("connection opened", "user_id", userID, "client", c.id)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.send(ctx, c, outgoingMessage{
		Type:      "connected",
		UserID:    userID,
		Data:      map[string]string{"client": c.id},
		Timestamp: time.Now().Unix(),
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.logger.Warnw("read failed", "user_id", userID, "client", c.id, "error", err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(pongWait))

		ev, ok := toEvent(userID, msg)
		if !ok {
			h.sendError(ctx, c, "unsupported message type: "+msg.Type)
			continue
		}
		if _, err := h.events.Handle(ctx, ev); err != nil {
			h.logger.Warnw("handle event failed", "user_id", userID, "error", err)
		}
	}
}

func toEvent(userID int64, msg inboundMessage) (chat.Event, bool) {
	switch chat.EventKind(msg.Type) {
	case chat.KindCommand:
		return chat.Command(userID, msg.Name), msg.Name != ""
	case chat.KindMenu:
		return chat.Selection(userID, msg.Token), msg.Token != ""
	case chat.KindText:
		return chat.Text(userID, msg.Text), true
	default:
		return chat.Event{}, false
	}
}

func (h *Handler) send(ctx context.Context, c *client, msg outgoingMessage) {
	if err := c.write(ctx, msg); err != nil {
		h.logger.Warnw("write failed", "user_id", c.userID, "type", msg.Type, "error", err)
	}
}

func (h *Handler) sendError(ctx context.Context, c *client, message string) {
	h.send(ctx, c, outgoingMessage{
		Type:      "error",
		UserID:    c.userID,
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(defaultWriteTimeout)); err != nil {
				return
			}
		}
	}
}
