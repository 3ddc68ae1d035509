package maintenance

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jinsuh/supplyhub/internal/chat"
	"github.com/jinsuh/supplyhub/internal/models"
	"github.com/jinsuh/supplyhub/pkg/logger"
	"github.com/jinsuh/supplyhub/pkg/metrics"
)

const defaultSchedule = "@every 10m"

// Reconciler periodically cross-checks pending deletion markers against live
// room membership and deletes rooms confirmed empty. It is the only writer
// that deletes rooms; the marker is a hint, never a lock, so membership is
// always re-read immediately before a delete.
type Reconciler struct {
	db       *gorm.DB
	deletion *chat.DeletionQueue
	cron     *cron.Cron
	log      *zap.Logger
	schedule string
}

// Option customises the Reconciler.
type Option func(*Reconciler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(r *Reconciler) {
		if c != nil {
			r.cron = c
		}
	}
}

// WithSchedule overrides the cron expression for reconciliation cycles.
func WithSchedule(spec string) Option {
	return func(r *Reconciler) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

func NewReconciler(db *gorm.DB, deletion *chat.DeletionQueue, opts ...Option) *Reconciler {
	r := &Reconciler{
		db:       db,
		deletion: deletion,
		schedule: defaultSchedule,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.cron == nil {
		r.cron = cron.New(
			cron.WithLogger(cron.DiscardLogger),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		)
	}

	return r
}

// Start registers the reconciliation job and launches the scheduler. Cycles
// never overlap; a cycle still running when the next tick fires causes the
// tick to be skipped.
func (r *Reconciler) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, func() {
		if err := r.RunOnce(context.Background()); err != nil {
			r.log.Warn("reconciliation cycle finished with errors", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	r.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for a running cycle to complete.
func (r *Reconciler) Stop() context.Context {
	if r.cron == nil {
		return context.Background()
	}
	return r.cron.Stop()
}

// RunOnce executes a single reconciliation cycle. Per-room failures are
// aggregated rather than aborting the scan; a failure is also logged so a
// permanently skipped room leaves a trace.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	pending, err := r.deletion.Pending(ctx)
	if err != nil {
		return err
	}

	var errs error
	deleted := 0
	for _, roomID := range pending {
		removed, err := r.evaluate(ctx, roomID)
		if err != nil {
			r.log.Warn("room evaluation failed",
				zap.String("room_id", roomID), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		if removed {
			deleted++
		}
	}

	metrics.ReconcileCycles.Inc()
	if len(pending) > 0 {
		r.log.Info("reconciliation cycle complete",
			zap.Int("pending", len(pending)),
			zap.Int("deleted", deleted))
	}
	return errs
}

// evaluate decides one pending room's fate. A marker still inside its grace
// window is left alone for a later cycle. Once the marker has expired the
// room's membership is re-read live: an empty room is deleted, a rejoined
// room survives. Either way the marker is cleared after evaluation; a room
// that empties again gets re-marked by the next leave.
func (r *Reconciler) evaluate(ctx context.Context, roomID string) (bool, error) {
	expired, err := r.deletion.Expired(ctx, roomID)
	if err != nil {
		return false, err
	}
	if !expired {
		return false, nil
	}

	var room models.ChatRoom
	err = r.db.WithContext(ctx).First(&room, "id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, r.deletion.Clear(ctx, roomID)
	}
	if err != nil {
		// Leave the marker so the next cycle retries the lookup.
		return false, err
	}

	var members int64
	if err := r.db.WithContext(ctx).Model(&models.ChatMember{}).
		Where("room_id = ?", roomID).
		Count(&members).Error; err != nil {
		return false, err
	}

	removed := false
	if members == 0 {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("room_id = ?", roomID).Delete(&models.ChatMessage{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.ChatRoom{}, "id = ?", roomID).Error
		})
		if err != nil {
			r.log.Warn("room deletion failed",
				zap.String("room_id", roomID), zap.Error(err))
		} else {
			removed = true
			metrics.RoomsDeleted.Inc()
			r.log.Info("deleted empty chat room", zap.String("room_id", roomID))
		}
	}

	// The marker is cleared regardless of deletion outcome; a failed delete
	// relies on a later leave event re-marking the room.
	if err := r.deletion.Clear(ctx, roomID); err != nil {
		return removed, err
	}
	return removed, nil
}
