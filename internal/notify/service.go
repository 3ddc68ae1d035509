package notify

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jinsuh/supplyhub/internal/models"
	"github.com/jinsuh/supplyhub/internal/push"
	apperrors "github.com/jinsuh/supplyhub/pkg/errors"
	"github.com/jinsuh/supplyhub/pkg/logger"
	"github.com/jinsuh/supplyhub/pkg/metrics"
)

// PushEventNotification is the event name used for realtime notification pushes.
const PushEventNotification = "notification"

// Recipient identifies who a dispatch is aimed at. The role travels with the
// user ID so visibility is checked against the recipient, not the actor that
// caused the event.
type Recipient struct {
	UserID string
	Role   models.Role
}

// Service runs the notification pipeline: strategy resolution, trigger and
// visibility checks, rendering, persistence, and realtime push.
type Service struct {
	db       *gorm.DB
	registry *Registry
	pusher   *push.Registry
	log      *zap.Logger
	now      func() time.Time
}

// ServiceOption customises service construction.
type ServiceOption func(*Service)

// WithServiceClock overrides the clock used for read timestamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(db *gorm.DB, registry *Registry, pusher *push.Registry, opts ...ServiceOption) *Service {
	s := &Service{
		db:       db,
		registry: registry,
		pusher:   pusher,
		log:      logger.WithModule("notify"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch runs one notification through the full pipeline for one recipient.
// A failed trigger predicate or an invisible category is a silent no-op; only
// resolution, rendering, and persistence failures surface as errors.
func (s *Service) Dispatch(ctx context.Context, category Category, payload Context, recipient Recipient) error {
	strategy, err := s.registry.Resolve(category)
	if err != nil {
		metrics.NotificationsDispatched.WithLabelValues(string(category), "error").Inc()
		return err
	}

	if !strategy.ShouldTrigger(payload) {
		metrics.NotificationsDispatched.WithLabelValues(string(category), "skipped_trigger").Inc()
		return nil
	}

	if !IsVisible(recipient.Role, category) {
		metrics.NotificationsDispatched.WithLabelValues(string(category), "skipped_role").Inc()
		return nil
	}

	message, err := strategy.Render(payload)
	if err != nil {
		metrics.NotificationsDispatched.WithLabelValues(string(category), "error").Inc()
		return err
	}

	notification := &models.Notification{
		UserID:   recipient.UserID,
		Category: string(category),
		Message:  message,
		Metadata: marshalMetadata(payload),
		IsRead:   false,
	}
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		metrics.NotificationsDispatched.WithLabelValues(string(category), "error").Inc()
		return apperrors.Wrap(err, "Failed to persist notification")
	}

	metrics.NotificationsDispatched.WithLabelValues(string(category), "persisted").Inc()
	s.log.Debug("notification dispatched",
		zap.String("user_id", recipient.UserID),
		zap.String("category", string(category)))

	s.pusher.Emit(recipient.UserID, push.Event{
		Event:        PushEventNotification,
		Notification: notification,
	})

	return nil
}

// ListOptions filters a notification listing.
type ListOptions struct {
	Category   string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// ListForUser returns the caller's notifications, newest first, restricted to
// the categories their role may see. Asking for a category outside that set
// is rejected rather than silently returning nothing.
func (s *Service) ListForUser(ctx context.Context, userID string, role models.Role, opts ListOptions) ([]models.Notification, int64, error) {
	allowed := AllowedCategories(role)

	categories := make([]string, 0, len(allowed))
	if opts.Category != "" {
		category, ok := ParseCategory(opts.Category)
		if !ok || !IsVisible(role, category) {
			return nil, 0, apperrors.ErrNotificationDenied
		}
		categories = append(categories, string(category))
	} else {
		for _, category := range allowed {
			categories = append(categories, string(category))
		}
	}

	query := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND category IN ?", userID, categories)
	if opts.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "Failed to count notifications")
	}

	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var notifications []models.Notification
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(opts.Offset).
		Find(&notifications).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "Failed to list notifications")
	}

	return notifications, total, nil
}

// UnreadForUser returns the caller's unread notifications, oldest first, for
// replay on stream connect.
func (s *Service) UnreadForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at ASC").
		Find(&notifications).Error; err != nil {
		return nil, apperrors.Wrap(err, "Failed to load unread notifications")
	}
	return notifications, nil
}

// UnreadCount returns how many unread notifications the user has.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(err, "Failed to count unread notifications")
	}
	return count, nil
}

// MarkRead flips one of the caller's notifications to read. Marking an
// already-read notification is a no-op; a notification belonging to another
// user is treated as not found.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	readAt := s.now()
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", notificationID, userID, false).
		Updates(map[string]any{"is_read": true, "read_at": &readAt})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "Failed to mark notification read")
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", notificationID, userID).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "Failed to mark notification read")
		}
		if count == 0 {
			return apperrors.ErrNotFound
		}
	}
	return nil
}

// MarkAllRead flips every unread notification for the user.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	readAt := s.now()
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": &readAt})
	if result.Error != nil {
		return 0, apperrors.Wrap(result.Error, "Failed to mark notifications read")
	}
	return result.RowsAffected, nil
}

func marshalMetadata(payload Context) datatypes.JSON {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
