package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core"
	"backoffice/internal/timebucket"
)

func expenseAt(at time.Time, cents, fee int64) core.LedgerRecord {
	return core.LedgerRecord{
		Type:       core.Expense,
		Method:     core.MethodCash,
		Amount:     core.Cents(cents),
		ServiceFee: core.Cents(fee),
		CreatedAt:  at,
		Published:  true,
	}
}

func TestRollingSevenDays(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	buckets := timebucket.LastSevenDays(now, time.UTC)

	records := []core.LedgerRecord{
		expenseAt(time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC), 1000, 100),
		expenseAt(time.Date(2026, 10, 14, 23, 59, 0, 0, time.UTC), 500, 0),
		expenseAt(time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC), 200, 20),
		expenseAt(time.Date(2026, 10, 7, 23, 59, 0, 0, time.UTC), 9999, 99), // before window
		{Type: core.Income, Amount: core.Cents(7777), CreatedAt: now, Published: true},
	}

	s := Rolling(records, buckets)
	require.Len(t, s.ExpenseTotals, 7)
	require.Len(t, s.ProfitTotals, 7)

	assert.Equal(t, core.Cents(200), s.ExpenseTotals[0])
	assert.Equal(t, core.Cents(20), s.ProfitTotals[0])
	assert.Equal(t, core.Cents(1500), s.ExpenseTotals[6])
	assert.Equal(t, core.Cents(100), s.ProfitTotals[6])
	for i := 1; i < 6; i++ {
		assert.True(t, s.ExpenseTotals[i].IsZero(), "empty bucket %d must be zero", i)
		assert.True(t, s.ProfitTotals[i].IsZero())
	}
}

func TestRollingTwelveMonths(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	buckets := timebucket.LastTwelveMonths(now, time.UTC)
	hidden := expenseAt(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 5000, 0)
	hidden.Published = false

	s := Rolling([]core.LedgerRecord{
		expenseAt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 300, 30),
		expenseAt(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC), 400, 0),
		expenseAt(time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC), 100, 10),
		hidden,
	}, buckets)

	want := make([]core.Money, 12)
	want[0] = core.Cents(300)
	want[9] = core.Cents(400)
	want[11] = core.Cents(100)
	assert.Equal(t, want, s.ExpenseTotals)
	assert.Equal(t, core.Cents(30), s.ProfitTotals[0])
	assert.Equal(t, core.Cents(10), s.ProfitTotals[11])
	assert.Equal(t, "March 2025", s.Labels[0])
}

func TestRollingNoBuckets(t *testing.T) {
	s := Rolling([]core.LedgerRecord{expenseAt(time.Now(), 1, 1)}, nil)
	assert.Empty(t, s.ExpenseTotals)
	assert.Empty(t, s.ProfitTotals)
}
