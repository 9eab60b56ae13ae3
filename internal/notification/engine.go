package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"github.com/afsalck/sme-business-suite-sub002/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine scans domain entities for upcoming deadlines and materializes
// deduplicated per-recipient reminder records. All date comparisons happen at
// calendar-day granularity in the configured location.
type Engine struct {
	db  *gorm.DB
	log *zap.Logger
	loc *time.Location
	now func() time.Time
}

func NewEngine(db *gorm.DB, loc *time.Location, log *zap.Logger) *Engine {
	return &Engine{
		db:  db,
		log: log,
		loc: loc,
		now: time.Now,
	}
}

// daysUntil returns the number of whole calendar days from today until due,
// both evaluated in the engine's location. Negative when due is in the past.
func (e *Engine) daysUntil(due time.Time) int {
	y, m, d := e.now().In(e.loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	y, m, d = due.In(e.loc).Date()
	dueDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	return int(dueDay.Sub(today).Hours() / 24)
}

// adminRecipients fetches every admin once per batch, grouped by tenant, so
// individual scans stay pure with respect to recipient selection.
func (e *Engine) adminRecipients(ctx context.Context) (map[uint][]model.User, error) {
	var admins []model.User
	if err := e.db.WithContext(ctx).Where("role = ?", model.RoleAdmin).Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("fetch admin recipients: %w", err)
	}

	recipients := make(map[uint][]model.User)
	for _, admin := range admins {
		recipients[admin.TenantID] = append(recipients[admin.TenantID], admin)
	}
	return recipients, nil
}

// create inserts a notification guarded by its dedup key. A pre-existing row
// with the same key, whether found by the read or raised as a uniqueness
// violation by a concurrent writer, is a no-op, not an error. Returns true
// when a row was actually created.
func (e *Engine) create(ctx context.Context, n *model.Notification, entityRef string) (bool, error) {
	n.DedupKey = DedupKey(n.Type, n.UserID, entityRef, n.DueDate, e.loc)
	if n.Status == "" {
		n.Status = model.NotificationUnread
	}

	var existing model.Notification
	err := e.db.WithContext(ctx).Where("dedup_key = ?", n.DedupKey).First(&existing).Error
	if err == nil {
		prometheus.NotificationDuplicateCounter.WithLabelValues(n.Type).Inc()
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}

	if err := e.db.WithContext(ctx).Create(n).Error; err != nil {
		// Two overlapping scan runs can race past the read above; the unique
		// index is the real guard.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			prometheus.NotificationDuplicateCounter.WithLabelValues(n.Type).Inc()
			return false, nil
		}
		return false, fmt.Errorf("create notification: %w", err)
	}

	prometheus.NotificationCreatedCounter.WithLabelValues(n.Type).Inc()
	return true, nil
}

// fanOut creates one notification per admin of the given tenant. Each copy
// carries its own dedup key since the recipient is part of the key.
func (e *Engine) fanOut(ctx context.Context, recipients map[uint][]model.User, tenantID uint, entityRef string, template model.Notification) (int, error) {
	created := 0
	for _, admin := range recipients[tenantID] {
		n := template
		n.UserID = admin.ID
		n.TenantID = tenantID

		ok, err := e.create(ctx, &n, entityRef)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}
