package notification

import (
	"fmt"
	"time"
)

// dayFormat is the calendar-day component of dedup keys. Day-level equality
// must be exact, so keys are always formatted in the engine's configured
// location.
const dayFormat = "2006-01-02"

// noDate is used in place of the day component when a notification has no due
// date.
const noDate = "no-date"

// globalEntity is used in place of the entity id for notifications not tied
// to a specific record (e.g. the VAT filing reminder).
const globalEntity = "global"

// DedupKey deterministically derives the system-wide unique key for a
// notification: type + recipient + related entity + calendar day. Rerunning a
// scan regenerates identical keys, which is what makes scans idempotent.
func DedupKey(notifType string, recipientID uint, entityID string, dueDate *time.Time, loc *time.Location) string {
	day := noDate
	if dueDate != nil {
		day = dueDate.In(loc).Format(dayFormat)
	}
	if entityID == "" {
		entityID = globalEntity
	}
	return fmt.Sprintf("%s_%d_%s_%s", notifType, recipientID, entityID, day)
}
