// File: /repositories/notification_repository.go
package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"runmeet-api/models"
)

// NotificationRepository is the durable notification sink. Writes carrying a
// dedup key are idempotent: a (recipient, key) collision is skipped silently,
// which is what lets scheduled triggers re-run without double-notifying.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

// CreateOne stores a single notification record. Returns (false, nil) when a
// dedup-key collision made the write a no-op.
func (r *NotificationRepository) CreateOne(n *models.Notification) (bool, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	if n.DedupKey != nil {
		exists, err := r.dedupExists(n.RecipientID, *n.DedupKey)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}

	if err := r.db.Create(n).Error; err != nil {
		// The unique index may still catch a concurrent writer.
		if n.DedupKey != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateMany stores a batch, skipping dedup-key collisions, and returns how
// many records were actually written.
func (r *NotificationRepository) CreateMany(ns []models.Notification) (int, error) {
	created := 0
	for i := range ns {
		ok, err := r.CreateOne(&ns[i])
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (r *NotificationRepository) dedupExists(recipientID, key string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND dedup_key = ?", recipientID, key).
		Count(&count).Error
	return count > 0, err
}

// ListForRecipient returns one page of a recipient's notifications, newest
// first, plus the total count.
func (r *NotificationRepository) ListForRecipient(recipientID string, page, limit int) ([]models.Notification, int64, error) {
	var total int64
	if err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

// Stats returns unread and total counts for a recipient.
func (r *NotificationRepository) Stats(recipientID string) (*models.NotificationStats, error) {
	var stats models.NotificationStats
	if err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&stats.TotalCount).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&stats.UnreadCount).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// MarkRead flags one of the recipient's notifications as read.
func (r *NotificationRepository) MarkRead(recipientID, notificationID string) error {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
