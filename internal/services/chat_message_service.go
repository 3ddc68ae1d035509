package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jinsuh/supplyhub/internal/chat"
	"github.com/jinsuh/supplyhub/internal/events"
	"github.com/jinsuh/supplyhub/internal/models"
	apperrors "github.com/jinsuh/supplyhub/pkg/errors"
	"github.com/jinsuh/supplyhub/pkg/logger"
)

// ChatMessageService persists room messages, fans them out to live room
// sockets, and raises a chat event per absent member so each gets a NEW_CHAT
// notification.
type ChatMessageService struct {
	db         *gorm.DB
	rooms      *ChatRoomService
	hub        *chat.Hub
	dispatcher *events.Dispatcher
	log        *zap.Logger
}

func NewChatMessageService(db *gorm.DB, rooms *ChatRoomService, hub *chat.Hub, dispatcher *events.Dispatcher) *ChatMessageService {
	s := &ChatMessageService{
		db:         db,
		rooms:      rooms,
		hub:        hub,
		dispatcher: dispatcher,
		log:        logger.WithModule("chat.messages"),
	}
	hub.SetInboundHandler(s.handleInbound)
	return s
}

// PostMessage stores a message and broadcasts it to the room. Senders must be
// members. Notification events fire for every other member; a failing
// notification listener is logged, not surfaced, so chat delivery never
// depends on the notification pipeline.
func (s *ChatMessageService) PostMessage(ctx context.Context, roomID, senderID, senderName, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewBadRequest("Message content is required")
	}

	member, err := s.rooms.IsMember(ctx, roomID, senderID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, apperrors.ErrNotRoomMember
	}

	message := &models.ChatMessage{
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		Status:     models.MessageSent,
	}
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, apperrors.Wrap(err, "Failed to store chat message")
	}

	s.hub.Broadcast(roomID, chat.Message{
		Event:      "message",
		MessageID:  message.ID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		SentAt:     message.CreatedAt,
	})

	memberIDs, err := s.rooms.MemberIDs(ctx, roomID)
	if err != nil {
		s.log.Warn("failed to load members for chat notification",
			zap.String("room_id", roomID), zap.Error(err))
		return message, nil
	}
	for _, memberID := range memberIDs {
		if memberID == senderID {
			continue
		}
		event := events.ChatMessagePosted{
			RoomID:     roomID,
			SenderID:   senderID,
			SenderName: senderName,
			TargetID:   memberID,
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.log.Warn("chat notification listener failed",
				zap.String("room_id", roomID),
				zap.String("target_id", memberID),
				zap.Error(err))
		}
	}

	return message, nil
}

// History returns a room's messages, oldest first.
func (s *ChatMessageService) History(ctx context.Context, roomID, userID string, limit, offset int) ([]models.ChatMessage, int64, error) {
	member, err := s.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, 0, err
	}
	if !member {
		return nil, 0, apperrors.ErrNotRoomMember
	}

	query := s.db.WithContext(ctx).Model(&models.ChatMessage{}).Where("room_id = ?", roomID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "Failed to count chat messages")
	}

	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var messages []models.ChatMessage
	if err := query.Order("created_at ASC").Limit(limit).Offset(offset).Find(&messages).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "Failed to load chat messages")
	}
	return messages, total, nil
}

// handleInbound receives frames from live room sockets. Errors are logged;
// the socket layer has no useful way to surface them.
func (s *ChatMessageService) handleInbound(ctx context.Context, roomID, userID, userName, content string) {
	if _, err := s.PostMessage(ctx, roomID, userID, userName, content); err != nil {
		s.log.Warn("inbound chat message rejected",
			zap.String("room_id", roomID),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
