package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jinsuh/supplyhub/internal/chat"
	"github.com/jinsuh/supplyhub/internal/models"
	apperrors "github.com/jinsuh/supplyhub/pkg/errors"
	"github.com/jinsuh/supplyhub/pkg/logger"
)

// ChatRoomService owns the room directory: creation, lookup, membership, and
// the deletion-marker handshake with the reconciliation loop. It does not
// touch transport.
type ChatRoomService struct {
	db       *gorm.DB
	deletion *chat.DeletionQueue
	log      *zap.Logger
	now      func() time.Time
	pick     func(n int) int
}

// ChatRoomOption customises room service construction.
type ChatRoomOption func(*ChatRoomService)

// WithRoomClock overrides the clock used for join timestamps.
func WithRoomClock(now func() time.Time) ChatRoomOption {
	return func(s *ChatRoomService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithManagerPicker overrides the random index used to choose a support-room
// manager, primarily for tests.
func WithManagerPicker(pick func(n int) int) ChatRoomOption {
	return func(s *ChatRoomService) {
		if pick != nil {
			s.pick = pick
		}
	}
}

func NewChatRoomService(db *gorm.DB, deletion *chat.DeletionQueue, opts ...ChatRoomOption) *ChatRoomService {
	s := &ChatRoomService{
		db:       db,
		deletion: deletion,
		log:      logger.WithModule("chat.rooms"),
		now:      time.Now,
		pick:     rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pairKey produces the canonical identity of a two-party room. Participant
// order must not matter, so the lower ID always sorts first.
func pairKey(kind models.RoomKind, a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return fmt.Sprintf("%s:%s:%s", kind, a, b)
}

// FindOrCreate returns the room joining the participants, creating it if
// absent. For pairwise and support rooms the unique pair key makes the
// check-then-create race safe: the loser of a concurrent create sees the
// unique violation and re-fetches the winner's room. The first participant is
// recorded as the room's originator.
func (s *ChatRoomService) FindOrCreate(ctx context.Context, kind models.RoomKind, name string, participants []string) (*models.ChatRoom, error) {
	participants = dedupe(participants)
	if len(participants) < 2 {
		return nil, apperrors.NewBadRequest("A chat room needs at least two participants")
	}
	if (kind == models.RoomPairwise || kind == models.RoomSupport) && len(participants) != 2 {
		return nil, apperrors.NewBadRequest("Pairwise rooms take exactly two participants")
	}

	if kind == models.RoomPairwise || kind == models.RoomSupport {
		key := pairKey(kind, participants[0], participants[1])

		var existing models.ChatRoom
		err := s.db.WithContext(ctx).Preload("Members").
			Where("pair_key = ?", key).First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(err, "Failed to look up chat room")
		}

		room, err := s.create(ctx, kind, name, &key, participants)
		if err == nil {
			return room, nil
		}
		if isUniqueConstraintError(err) {
			// Both participants raced to create the same room; the winner's
			// row is authoritative.
			var winner models.ChatRoom
			if ferr := s.db.WithContext(ctx).Preload("Members").
				Where("pair_key = ?", key).First(&winner).Error; ferr != nil {
				return nil, apperrors.Wrap(ferr, "Failed to resolve chat room race")
			}
			return &winner, nil
		}
		return nil, err
	}

	return s.create(ctx, kind, name, nil, participants)
}

// CreateSupportRoom opens a support conversation between the requester and a
// randomly chosen manager.
func (s *ChatRoomService) CreateSupportRoom(ctx context.Context, requesterID string) (*models.ChatRoom, error) {
	var managers []models.User
	if err := s.db.WithContext(ctx).
		Where("role = ? AND id <> ?", models.RoleManager, requesterID).
		Find(&managers).Error; err != nil {
		return nil, apperrors.Wrap(err, "Failed to load managers")
	}
	if len(managers) == 0 {
		return nil, apperrors.New("chat.no_manager", "No manager is available for support", http.StatusServiceUnavailable)
	}

	manager := managers[s.pick(len(managers))]
	return s.FindOrCreate(ctx, models.RoomSupport, "Support", []string{requesterID, manager.ID})
}

func (s *ChatRoomService) create(ctx context.Context, kind models.RoomKind, name string, key *string, participants []string) (*models.ChatRoom, error) {
	joinedAt := s.now()
	room := &models.ChatRoom{
		Name:    name,
		Kind:    kind,
		PairKey: key,
	}
	for i, userID := range participants {
		room.Members = append(room.Members, models.ChatMember{
			UserID:       userID,
			IsOriginator: i == 0,
			JoinedAt:     joinedAt,
		})
	}

	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "Failed to create chat room")
	}

	s.log.Info("chat room created",
		zap.String("room_id", room.ID),
		zap.String("kind", string(kind)),
		zap.Int("members", len(participants)))
	return room, nil
}

// Join adds a user to a room. Joining twice is a no-op; the reconciliation
// loop re-checks membership before deleting, so no marker bookkeeping is
// needed here.
func (s *ChatRoomService) Join(ctx context.Context, roomID, userID string) error {
	if _, err := s.get(ctx, roomID); err != nil {
		return err
	}

	member := models.ChatMember{
		RoomID:   roomID,
		UserID:   userID,
		JoinedAt: s.now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&member).Error
	if err != nil && !isUniqueConstraintError(err) {
		return apperrors.Wrap(err, "Failed to join chat room")
	}
	return nil
}

// Leave removes a user's membership. When the last member leaves, the room is
// scheduled for deletion via a TTL marker rather than removed immediately, so
// a rejoin within the grace window keeps the room alive.
func (s *ChatRoomService) Leave(ctx context.Context, roomID, userID string) error {
	result := s.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.ChatMember{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "Failed to leave chat room")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotRoomMember
	}

	remaining, err := s.MemberCount(ctx, roomID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		if err := s.deletion.Mark(ctx, roomID); err != nil {
			// The room stays around until a later leave re-marks it; losing
			// the marker must not fail the leave itself.
			s.log.Warn("failed to mark room for deletion",
				zap.String("room_id", roomID), zap.Error(err))
		}
	}
	return nil
}

// Get returns a room with its members preloaded.
func (s *ChatRoomService) Get(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	return s.get(ctx, roomID)
}

func (s *ChatRoomService) get(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.db.WithContext(ctx).Preload("Members").First(&room, "id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to load chat room")
	}
	return &room, nil
}

// ListForUser returns every room the user currently belongs to.
func (s *ChatRoomService) ListForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := s.db.WithContext(ctx).Preload("Members").
		Joins("JOIN chat_members ON chat_members.room_id = chat_rooms.id").
		Where("chat_members.user_id = ?", userID).
		Order("chat_rooms.created_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to list chat rooms")
	}
	return rooms, nil
}

// IsMember reports whether the user belongs to the room.
func (s *ChatRoomService) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ChatMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, "Failed to check room membership")
	}
	return count > 0, nil
}

// MemberIDs returns the IDs of the room's current members.
func (s *ChatRoomService) MemberIDs(ctx context.Context, roomID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.ChatMember{}).
		Where("room_id = ?", roomID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to load room members")
	}
	return ids, nil
}

// MemberCount returns the room's live membership count.
func (s *ChatRoomService) MemberCount(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ChatMember{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "Failed to count room members")
	}
	return count, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
