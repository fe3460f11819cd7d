package repository

import (
	"context"
	"time"

	"taskquest/pkg/models"
)

// NotificationRepository handles notification persistence
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	// ListByUser returns visible notifications: not archived and not expired at now
	ListByUser(ctx context.Context, userID string, unreadOnly bool, now time.Time, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID string, now time.Time) (int, error)
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	Archive(ctx context.Context, userID, id string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type notificationRepository struct {
	db DBTX
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db DBTX) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts a notification record
func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, notification_type, title, message, data,
		                           is_read, is_archived, read_at, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	var data []byte
	if len(n.Data) > 0 {
		data = n.Data
	}
	_, err := r.db.Exec(ctx, query,
		n.ID, n.UserID, string(n.Type), n.Title, n.Message, data,
		n.IsRead, n.IsArchived, n.ReadAt, n.ExpiresAt, n.CreatedAt,
	)
	if err != nil {
		return mapDBError(err, "create_notification")
	}
	return nil
}

// ListByUser returns visible notifications, newest first
func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, now time.Time, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, notification_type, title, message, data,
		       is_read, is_archived, read_at, expires_at, created_at
		FROM notifications
		WHERE user_id = $1
		  AND is_archived = FALSE
		  AND (expires_at IS NULL OR expires_at > $2)
		  AND ($3 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, userID, now, unreadOnly, limit)
	if err != nil {
		return nil, mapDBError(err, "list_notifications")
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var kind string
		var data []byte
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Message, &data,
			&n.IsRead, &n.IsArchived, &n.ReadAt, &n.ExpiresAt, &n.CreatedAt); err != nil {
			return nil, mapDBError(err, "scan_notification")
		}
		n.Type = models.NotificationType(kind)
		n.Data = data
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnread counts visible unread notifications
func (r *notificationRepository) CountUnread(ctx context.Context, userID string, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE user_id = $1 AND is_read = FALSE AND is_archived = FALSE
		  AND (expires_at IS NULL OR expires_at > $2)
	`
	return queryInt(ctx, r.db, "count_unread_notifications", query, userID, now)
}

// MarkRead flags one of the user's notifications as read
func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.db.Exec(ctx, query, id, userID, at)
	if err != nil {
		return mapDBError(err, "mark_notification_read")
	}
	if tag.RowsAffected() == 0 {
		return mapDBError(errNoRows, "mark_notification_read")
	}
	return nil
}

// MarkAllRead flags every unread notification of the user
func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = $2
		WHERE user_id = $1 AND is_read = FALSE
	`
	tag, err := r.db.Exec(ctx, query, userID, at)
	if err != nil {
		return 0, mapDBError(err, "mark_all_notifications_read")
	}
	return int(tag.RowsAffected()), nil
}

// Archive hides one of the user's notifications
func (r *notificationRepository) Archive(ctx context.Context, userID, id string) error {
	query := `UPDATE notifications SET is_archived = TRUE WHERE id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return mapDBError(err, "archive_notification")
	}
	if tag.RowsAffected() == 0 {
		return mapDBError(errNoRows, "archive_notification")
	}
	return nil
}

// DeleteOlderThan purges notifications created before cutoff
func (r *notificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM notifications WHERE created_at < $1`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, mapDBError(err, "purge_notifications")
	}
	return int(tag.RowsAffected()), nil
}
