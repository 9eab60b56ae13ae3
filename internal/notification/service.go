package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a notification does not exist or does not
// belong to the requesting recipient. The two cases are deliberately
// indistinguishable so callers cannot probe other users' records.
var ErrNotFound = errors.New("notification: not found")

// Service exposes the read-state operations on notifications.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListForUser returns the recipient's notifications within their tenant,
// newest first. When unreadOnly is set, read notifications are excluded.
func (s *Service) ListForUser(ctx context.Context, userID, tenantID uint, unreadOnly bool) ([]model.Notification, error) {
	query := s.db.WithContext(ctx).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		Order("created_at DESC")
	if unreadOnly {
		query = query.Where("status = ?", model.NotificationUnread)
	}

	var notifications []model.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flips a single notification from unread to read. Only the
// recipient may mark their own notification; anything else reports not-found.
// The transition is one-way — marking an already-read notification is a
// no-op.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID uint) error {
	result := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("status", model.NotificationRead)
	if result.Error != nil {
		return fmt.Errorf("mark read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flips every unread notification of the recipient within the
// tenant and returns how many rows changed.
func (s *Service) MarkAllRead(ctx context.Context, userID, tenantID uint) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND tenant_id = ? AND status = ?", userID, tenantID, model.NotificationUnread).
		Update("status", model.NotificationRead)
	if result.Error != nil {
		return 0, fmt.Errorf("mark all read: %w", result.Error)
	}
	return result.RowsAffected, nil
}
