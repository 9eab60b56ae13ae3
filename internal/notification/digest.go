package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"github.com/afsalck/sme-business-suite-sub002/prometheus"
	"go.uber.org/zap"
)

// DigestSender is the external email collaborator. The engine only groups
// rows per recipient; formatting and transmission are the sender's problem.
type DigestSender interface {
	SendDigest(ctx context.Context, recipientEmail string, notifications []model.Notification) error
}

// RunDailyDigest reads today's notifications grouped by recipient and hands
// each group to the sender. A failure for one recipient does not stop the
// rest. Returns the number of digests handed off.
func (e *Engine) RunDailyDigest(ctx context.Context, sender DigestSender) (int, error) {
	y, m, d := e.now().In(e.loc).Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, e.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var notifications []model.Notification
	err := e.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Order("user_id, created_at").
		Find(&notifications).Error
	if err != nil {
		return 0, fmt.Errorf("fetch today's notifications: %w", err)
	}

	byRecipient := make(map[uint][]model.Notification)
	for _, n := range notifications {
		byRecipient[n.UserID] = append(byRecipient[n.UserID], n)
	}
	if len(byRecipient) == 0 {
		return 0, nil
	}

	userIDs := make([]uint, 0, len(byRecipient))
	for id := range byRecipient {
		userIDs = append(userIDs, id)
	}

	var users []model.User
	if err := e.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return 0, fmt.Errorf("fetch digest recipients: %w", err)
	}

	sent := 0
	for _, user := range users {
		rows := byRecipient[user.ID]
		if user.Email == "" || len(rows) == 0 {
			continue
		}
		if err := sender.SendDigest(ctx, user.Email, rows); err != nil {
			e.log.Error("digest handoff failed",
				zap.String("recipient", user.Email),
				zap.Int("notifications", len(rows)),
				zap.Error(err))
			continue
		}
		prometheus.DigestSentCounter.Inc()
		sent++
	}

	e.log.Info("daily digest completed",
		zap.Int("recipients", len(byRecipient)),
		zap.Int("sent", sent))
	return sent, nil
}
