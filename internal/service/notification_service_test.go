package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clearhub-ng/clearance-api/internal/models"
	"github.com/clearhub-ng/clearance-api/pkg/jobs"
	appErrors "github.com/clearhub-ng/clearance-api/pkg/errors"
)

type memoryNotificationStore struct {
	mu            sync.Mutex
	notifications []*models.Notification
}

func (m *memoryNotificationStore) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *n
	m.notifications = append(m.notifications, &clone)
	return nil
}

func (m *memoryNotificationStore) ListByUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, *n)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryNotificationStore) MarkRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memoryNotificationStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifications)
}

func TestNotifyPersistsThroughQueue(t *testing.T) {
	store := &memoryNotificationStore{}
	svc := NewNotificationService(store, jobs.QueueConfig{Workers: 2, BufferSize: 8}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	svc.Notify("u1", models.NotificationSubmissionReceived, "new clearance submission from Ada Obi")
	svc.Notify("u1", models.NotificationSubmissionApproved, "Head of Department approved your submission")
	svc.Notify("u2", models.NotificationClearanceComplete, "your clearance is complete")

	require.Eventually(t, func() bool { return store.count() == 3 }, 2*time.Second, 10*time.Millisecond)
	svc.Stop()

	feed, err := svc.List(context.Background(), "u1", false, 0)
	require.NoError(t, err)
	assert.Len(t, feed, 2)
}

func TestNotifyDropsBlankTargets(t *testing.T) {
	store := &memoryNotificationStore{}
	svc := NewNotificationService(store, jobs.QueueConfig{Workers: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	svc.Notify("", models.NotificationSubmissionReceived, "orphaned")
	svc.Notify("u1", models.NotificationSubmissionReceived, "")
	svc.Stop()

	assert.Zero(t, store.count())
}

func TestMarkReadUnknownNotification(t *testing.T) {
	store := &memoryNotificationStore{}
	svc := NewNotificationService(store, jobs.QueueConfig{}, zap.NewNop())

	err := svc.MarkRead(context.Background(), "missing", "u1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	store := &memoryNotificationStore{notifications: []*models.Notification{
		{ID: "n1", UserID: "u1", Kind: models.NotificationSubmissionApproved, Message: "approved"},
	}}
	svc := NewNotificationService(store, jobs.QueueConfig{}, zap.NewNop())

	err := svc.MarkRead(context.Background(), "n1", "u2")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	require.NoError(t, svc.MarkRead(context.Background(), "n1", "u1"))

	unread, err := svc.List(context.Background(), "u1", true, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
