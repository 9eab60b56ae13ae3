package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVATFilingDeadlineBeforeThe28th(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Dubai")
	require.NoError(t, err)

	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, loc)
	deadline := VATFilingDeadline(now, loc)

	assert.Equal(t, time.Date(2025, time.March, 28, 0, 0, 0, 0, loc), deadline)
}

func TestVATFilingDeadlineOnThe28th(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, time.March, 28, 23, 59, 0, 0, loc)

	// The 28th itself still counts as the current month's deadline.
	assert.Equal(t, time.Date(2025, time.March, 28, 0, 0, 0, 0, loc), VATFilingDeadline(now, loc))
}

func TestVATFilingDeadlineRollsToNextMonth(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, time.March, 29, 0, 0, 0, 0, loc)

	assert.Equal(t, time.Date(2025, time.April, 28, 0, 0, 0, 0, loc), VATFilingDeadline(now, loc))
}

func TestVATFilingDeadlineYearRollover(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, time.December, 30, 0, 0, 0, 0, loc)

	assert.Equal(t, time.Date(2026, time.January, 28, 0, 0, 0, 0, loc), VATFilingDeadline(now, loc))
}

func TestVATFilingDeadlineUsesConfiguredLocation(t *testing.T) {
	dubai, err := time.LoadLocation("Asia/Dubai")
	require.NoError(t, err)

	// 22:00 UTC on the 28th is already the 29th in Dubai, so the deadline
	// rolls even though the UTC date has not.
	now := time.Date(2025, time.March, 28, 22, 0, 0, 0, time.UTC)
	deadline := VATFilingDeadline(now, dubai)

	assert.Equal(t, time.Date(2025, time.April, 28, 0, 0, 0, 0, dubai), deadline)
}
