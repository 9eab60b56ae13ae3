package billing

import (
	"time"
)

// vatFilingDay is the day of the month on which the monthly VAT return is
// due.
const vatFilingDay = 28

// VATFilingDeadline returns the next monthly VAT filing deadline as seen from
// now: the 28th of the current month, rolling to the next month once the 28th
// has passed. The calendar day is evaluated in loc, not in the server's local
// zone.
func VATFilingDeadline(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	year, month, day := local.Date()

	deadline := time.Date(year, month, vatFilingDay, 0, 0, 0, 0, loc)
	if day > vatFilingDay {
		deadline = deadline.AddDate(0, 1, 0)
	}
	return deadline
}
