package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func (db *DB) CreateNotification(ctx context.Context, userID, title, message string) (*Notification, error) {
	notification := &Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Message: message,
	}

	if err := db.g.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, errors.Wrapf(err, "creating notification for user %s", userID)
	}

	return notification, nil
}

func (db *DB) ListNotifications(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 10
	}

	tx := db.g.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc")
	if unreadOnly {
		tx = tx.Where("read = ?", false)
	}

	var notifications []Notification
	err := tx.Offset(pageOffset(page, limit)).Limit(limit).Find(&notifications).Error
	if err != nil {
		return nil, errors.Wrapf(err, "listing notifications for user %s", userID)
	}

	return notifications, nil
}

// MarkNotificationRead flags one notification as read. Unknown IDs are
// reported so the API can answer 404.
func (db *DB) MarkNotificationRead(ctx context.Context, id string) error {
	res := db.g.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", id).
		Update("read", true)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "marking notification %s read", id)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
