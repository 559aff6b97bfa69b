package documents

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core"
)

var refNow = time.Date(2026, 10, 14, 16, 45, 0, 0, time.UTC)

func inDays(n int) core.Date {
	d := refNow.AddDate(0, 0, n)
	return core.NewDate(d.Year(), int(d.Month()), d.Day())
}

func TestClassify(t *testing.T) {
	c := NewClassifier(refNow, time.UTC)
	tests := []struct {
		name  string
		date  core.Date
		tier  Tier
		label string
		days  int
	}{
		{"expired yesterday", inDays(-1), TierExpired, "Expired 1 days ago", -1},
		{"expired long ago", inDays(-45), TierExpired, "Expired 45 days ago", -45},
		{"today", inDays(0), TierToday, "Expires Today", 0},
		{"tomorrow", inDays(1), TierCritical, "Expires in 1 days", 1},
		{"five days", inDays(5), TierCritical, "Expires in 5 days", 5},
		{"seven days", inDays(7), TierCritical, "Expires in 7 days", 7},
		{"eight days", inDays(8), TierAttention, "Expires in 8 days", 8},
		{"thirty days", inDays(30), TierAttention, "Expires in 30 days", 30},
		{"thirty one days", inDays(31), TierValid, "Valid", 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := c.Classify(tt.date)
			assert.Equal(t, tt.tier, s.Tier)
			assert.Equal(t, tt.label, s.Label)
			require.NotNil(t, s.DaysLeft)
			assert.Equal(t, tt.days, *s.DaysLeft)
		})
	}
}

func TestDaysLeftBeyondDurationRange(t *testing.T) {
	c := NewClassifier(refNow, time.UTC)

	days, ok := c.DaysLeft(core.NewDate(1000, 1, 1))
	require.True(t, ok)
	assert.Equal(t, -375025, days)
	assert.Equal(t, "Expired 375025 days ago", c.Classify(core.NewDate(1000, 1, 1)).Label)

	days, ok = c.DaysLeft(core.NewDate(9999, 12, 31))
	require.True(t, ok)
	assert.Equal(t, 2912156, days)
}

func TestClassifyUnknown(t *testing.T) {
	s := NewClassifier(refNow, time.UTC).Classify(core.Date{})
	assert.Equal(t, TierUnknown, s.Tier)
	assert.Nil(t, s.DaysLeft)
	assert.False(t, s.Tier.Comparable())
	assert.False(t, s.Tier.ActionRequired())
}

func TestClassifierUsesCalendarDayInLocation(t *testing.T) {
	dubai := time.FixedZone("GST", 4*3600)
	// 21:00 UTC on the 14th is the 15th in Dubai, so a document expiring on
	// the 15th is due today there.
	c := NewClassifier(time.Date(2026, 10, 14, 21, 0, 0, 0, time.UTC), dubai)
	assert.Equal(t, TierToday, c.Classify(core.NewDate(2026, 10, 15)).Tier)
	assert.Equal(t, core.NewDate(2026, 10, 15), c.Today())
}

func TestSeverityOrdering(t *testing.T) {
	assert.Greater(t, TierExpired.Severity(), TierToday.Severity())
	assert.Equal(t, TierToday.Severity(), TierCritical.Severity())
	assert.Greater(t, TierCritical.Severity(), TierAttention.Severity())
	assert.Greater(t, TierAttention.Severity(), TierValid.Severity())
	assert.True(t, TierToday.ActionRequired())
	assert.True(t, TierCritical.ActionRequired())
	assert.False(t, TierAttention.ActionRequired())
	assert.True(t, TierAttention.Queued())
	assert.False(t, TierValid.Queued())
}

func TestClassifyMonotonic(t *testing.T) {
	c := NewClassifier(refNow, time.UTC)
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		a, b := r.Intn(200)-100, r.Intn(200)-100
		if a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		sa, sb := c.Classify(inDays(a)), c.Classify(inDays(b))
		assert.GreaterOrEqual(t, sa.Tier.Severity(), sb.Tier.Severity(), "daysLeft %d vs %d", a, b)
	}
}
