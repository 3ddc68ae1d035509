package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jinsuh/supplyhub/internal/notify"
	"github.com/jinsuh/supplyhub/internal/push"
	"github.com/jinsuh/supplyhub/pkg/errors"
	"github.com/jinsuh/supplyhub/pkg/response"
)

// NotificationHandler exposes HTTP endpoints for notifications and the push
// stream.
type NotificationHandler struct {
	service *notify.Service
	pusher  *push.Registry
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(service *notify.Service, pusher *push.Registry) *NotificationHandler {
	return &NotificationHandler{service: service, pusher: pusher}
}

// List returns notifications for the current user, filtered to the categories
// their role allows.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, _, role := currentUser(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	opts := notify.ListOptions{
		Category:   strings.TrimSpace(c.Query("category")),
		UnreadOnly: c.Query("unread") == "true",
		Limit:      parseIntQuery(c, "limit", 50),
		Offset:     parseIntQuery(c, "offset", 0),
	}

	items, total, err := h.service.ListForUser(requestContext(c), userID, role, opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, items, opts.Limit, opts.Offset, total)
}

// MarkRead flips one notification to read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, _, _ := currentUser(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if err := h.service.MarkRead(requestContext(c), userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"read": true})
}

// MarkAllRead flips every unread notification for the current user.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, _, _ := currentUser(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	updated, err := h.service.MarkAllRead(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}

// Stream upgrades to a websocket push channel. The client first receives a
// connect acknowledgement, then its unread backlog, then live events as they
// are dispatched.
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID, _, _ := currentUser(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	unread, err := h.service.UnreadForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	initial := make([]push.Event, 0, len(unread)+1)
	initial = append(initial, push.Event{Event: "connect"})
	for i := range unread {
		initial = append(initial, push.Event{
			Event:        notify.PushEventNotification,
			Notification: &unread[i],
		})
	}

	h.pusher.Serve(userID, initial, c.Writer, c.Request)
}
