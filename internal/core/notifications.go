package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taskquest/internal/repository"
	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

// NotificationService stores in-app notifications; delivery is up to the client polling them
type NotificationService interface {
	WithStore(tx repository.Store) NotificationService
	Create(ctx context.Context, userID string, kind models.NotificationType, title, message string, data map[string]interface{}) (*models.Notification, error)
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Archive(ctx context.Context, userID, id string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type notificationService struct {
	store repository.Store
	clock Clock
}

// NewNotificationService creates a new notification service
func NewNotificationService(store repository.Store, clock Clock) NotificationService {
	if clock == nil {
		clock = SystemClock()
	}
	return &notificationService{store: store, clock: clock}
}

func (s *notificationService) WithStore(tx repository.Store) NotificationService {
	return &notificationService{store: tx, clock: s.clock}
}

func (s *notificationService) Create(ctx context.Context, userID string, kind models.NotificationType, title, message string, data map[string]interface{}) (*models.Notification, error) {
	n := &models.Notification{
		ID:        utils.NewID(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: s.clock.Now(),
	}
	if len(data) > 0 {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode notification data: %w", err)
		}
		n.Data = raw
	}
	if err := s.store.Notifications().Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	list, err := s.store.Notifications().ListByUser(ctx, userID, unreadOnly, s.clock.Now(), utils.ValidateLimit(limit, 20, 100))
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.store.Notifications().CountUnread(ctx, userID, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.store.Notifications().MarkRead(ctx, userID, id, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.store.Notifications().MarkAllRead(ctx, userID, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

func (s *notificationService) Archive(ctx context.Context, userID, id string) error {
	if err := s.store.Notifications().Archive(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to archive notification: %w", err)
	}
	return nil
}

// PurgeOlderThan deletes notifications created before cutoff, read or not
func (s *notificationService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := s.store.Notifications().DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	return n, nil
}
