package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clearhub-ng/clearance-api/internal/models"
	appErrors "github.com/clearhub-ng/clearance-api/pkg/errors"
	"github.com/clearhub-ng/clearance-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// NotificationService persists workflow notifications through a background
// queue so workflow mutations never block on the feed. It implements
// Notifier for the clearance engine.
type NotificationService struct {
	store  notificationStore
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService wires the store behind a worker queue.
func NewNotificationService(store notificationStore, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{store: store, logger: logger}
	cfg.Logger = logger
	svc.queue = jobs.NewQueue("notifications", svc.persist, cfg)
	return svc
}

// Start launches the queue workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify enqueues a notification. Failures are logged and dropped; the
// feed never fails a workflow mutation.
func (s *NotificationService) Notify(userID string, kind models.NotificationKind, message string) {
	if userID == "" || message == "" {
		return
	}
	job := jobs.Job{
		ID:   uuid.New().String(),
		Type: string(kind),
		Payload: &models.Notification{
			UserID:    userID,
			Kind:      kind,
			Message:   message,
			CreatedAt: time.Now().UTC(),
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("dropping notification",
			zap.String("user_id", userID), zap.String("kind", string(kind)), zap.Error(err))
	}
}

// List returns the user's feed, optionally only unread.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	notifications, err := s.store.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags one notification as read for its owner.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.store.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to mark notification read")
	}
	return nil
}

func (s *NotificationService) persist(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(*models.Notification)
	if !ok {
		s.logger.Error("unexpected notification payload type", zap.String("job_id", job.ID))
		return nil
	}
	return s.store.Create(ctx, notification)
}
