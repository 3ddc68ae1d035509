package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jinsuh/supplyhub/internal/chat"
	"github.com/jinsuh/supplyhub/internal/models"
	"github.com/jinsuh/supplyhub/internal/services"
	"github.com/jinsuh/supplyhub/pkg/errors"
	"github.com/jinsuh/supplyhub/pkg/response"
)

// ChatHandler exposes the room directory and room transport over HTTP.
type ChatHandler struct {
	rooms    *services.ChatRoomService
	messages *services.ChatMessageService
	hub      *chat.Hub
}

// NewChatHandler constructs a chat handler.
func NewChatHandler(rooms *services.ChatRoomService, messages *services.ChatMessageService, hub *chat.Hub) *ChatHandler {
	return &ChatHandler{rooms: rooms, messages: messages, hub: hub}
}

type createRoomRequest struct {
	Kind         string   `json:"kind" validate:"required,oneof=pairwise group support"`
	Name         string   `json:"name" validate:"max=255"`
	Participants []string `json:"participants"`
}

// CreateRoom finds or creates a room. Pairwise and group rooms take explicit
// participants; support rooms pick a manager for the caller.
func (h *ChatHandler) CreateRoom(c *gin.Context) {
	userID, _, _ := currentUser(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req createRoomRequest
	if !bindAndValidate(c, &req) {
		return
	}

	kind := models.RoomKind(req.Kind)
	var (
		room *models.ChatRoom
		err  error
	)
	if kind == models.RoomSupport {
		room, err = h.rooms.CreateSupportRoom(requestContext(c), userID)
	} else {
		// The caller is always the first participant, and therefore the
		// originator of a newly created room.
		participants := append([]string{userID}, req.Participants...)
		room, err = h.rooms.FindOrCreate(requestContext(c), kind, req.Name, participants)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, room)
}

// ListRooms lists the caller's rooms.
func (h *ChatHandler) ListRooms(c *gin.Context) {
	userID, _, _ := currentUser(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	rooms, err := h.rooms.ListForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rooms)
}

// Join adds the caller to a room.
func (h *ChatHandler) Join(c *gin.Context) {
	userID, _, _ := currentUser(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	roomID := strings.TrimSpace(c.Param("id"))
	if err := h.rooms.Join(requestContext(c), roomID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"joined": true})
}

// Leave removes the caller from a room. The last member leaving schedules the
// room for deletion after a grace window.
func (h *ChatHandler) Leave(c *gin.Context) {
	userID, _, _ := currentUser(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	roomID := strings.TrimSpace(c.Param("id"))
	if err := h.rooms.Leave(requestContext(c), roomID, userID); err != nil {
		response.Error(c, err)
		return
	}

	// Membership is gone, so the live transport goes too.
	h.hub.DisconnectUser(roomID, userID)

	response.Success(c, http.StatusOK, gin.H{"left": true})
}

// History returns the room's message log.
func (h *ChatHandler) History(c *gin.Context) {
	userID, _, _ := currentUser(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	roomID := strings.TrimSpace(c.Param("id"))
	limit := parseIntQuery(c, "limit", 100)
	offset := parseIntQuery(c, "offset", 0)

	messages, total, err := h.messages.History(requestContext(c), roomID, userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, messages, limit, offset, total)
}

// Stream upgrades to the room's websocket transport. Only members may attach.
func (h *ChatHandler) Stream(c *gin.Context) {
	userID, userName, _ := currentUser(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	roomID := strings.TrimSpace(c.Param("id"))
	member, err := h.rooms.IsMember(requestContext(c), roomID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !member {
		response.Error(c, errors.ErrNotRoomMember)
		return
	}

	h.hub.Serve(roomID, userID, userName, c.Writer, c.Request)
}
