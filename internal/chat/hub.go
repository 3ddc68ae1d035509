package chat

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jinsuh/supplyhub/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16

	sendBufferSize = 64
)

// Message is the JSON frame exchanged on a room socket.
type Message struct {
	Event      string    `json:"event"`
	RoomID     string    `json:"room_id"`
	MessageID  string    `json:"message_id,omitempty"`
	SenderID   string    `json:"sender_id,omitempty"`
	SenderName string    `json:"sender_name,omitempty"`
	Content    string    `json:"content,omitempty"`
	SentAt     time.Time `json:"sent_at,omitempty"`
}

type inbound struct {
	Content string `json:"content"`
}

// InboundHandler receives each chat frame a connected member sends. It is
// wired after construction because the message service both owns posting and
// depends on the hub for fan-out.
type InboundHandler func(ctx context.Context, roomID, userID, userName, content string)

// Hub fans chat messages out to the live sockets of a room's members.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*connection]struct{}

	handlerMu sync.RWMutex
	handler   InboundHandler

	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return hostWithoutPort(origin) == hostWithoutPort(r.Host) || isLoopback(hostWithoutPort(origin))
			},
		},
		log: logger.WithModule("chat"),
	}
}

// SetInboundHandler installs the callback invoked for each received frame.
func (h *Hub) SetInboundHandler(handler InboundHandler) {
	h.handlerMu.Lock()
	h.handler = handler
	h.handlerMu.Unlock()
}

// Serve upgrades the request and attaches the member to the room until the
// socket closes. Membership must be verified by the caller beforehand.
func (h *Hub) Serve(roomID, userID, userName string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("chat upgrade failed", zap.String("room_id", roomID), zap.Error(err))
		return
	}

	client := &connection{
		hub:      h,
		socket:   conn,
		roomID:   roomID,
		userID:   userID,
		userName: userName,
		send:     make(chan Message, sendBufferSize),
	}
	h.register(client)

	go client.writeLoop()
	client.readLoop(r.Context())
}

// Broadcast delivers a message to every socket attached to the room. Clients
// whose send buffer is full are dropped rather than waited on. Closing a
// client re-enters the hub lock through unregister, so stale clients are
// collected under the read lock and closed after it is released.
func (h *Hub) Broadcast(roomID string, message Message) {
	message.RoomID = roomID

	var stale []*connection
	h.mu.RLock()
	for client := range h.rooms[roomID] {
		select {
		case client.send <- message:
		default:
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		h.log.Warn("dropping backpressured chat client",
			zap.String("room_id", roomID),
			zap.String("user_id", client.userID))
		client.close()
	}
}

// DisconnectUser closes every socket the user has attached to the room. Used
// when a member leaves so their live transport goes away with the membership.
func (h *Hub) DisconnectUser(roomID, userID string) {
	var targets []*connection
	h.mu.RLock()
	for client := range h.rooms[roomID] {
		if client.userID == userID {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.close()
	}
}

// RoomSize reports how many sockets are attached to a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) register(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[client.roomID] == nil {
		h.rooms[client.roomID] = make(map[*connection]struct{})
	}
	h.rooms[client.roomID][client] = struct{}{}
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.rooms[client.roomID]
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.rooms, client.roomID)
	}
}

type connection struct {
	hub      *Hub
	socket   *websocket.Conn
	roomID   string
	userID   string
	userName string
	send     chan Message
	once     sync.Once
}

func (c *connection) readLoop(ctx context.Context) {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("unexpected chat close",
					zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var frame inbound
		if err := json.Unmarshal(payload, &frame); err != nil || strings.TrimSpace(frame.Content) == "" {
			continue
		}

		c.hub.handlerMu.RLock()
		handler := c.hub.handler
		c.hub.handlerMu.RUnlock()
		if handler != nil {
			handler(ctx, c.roomID, c.userID, c.userName, frame.Content)
		}
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.send)
		if c.socket != nil {
			_ = c.socket.Close()
		}
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "https://")
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
