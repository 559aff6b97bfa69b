package reports

import (
	"backoffice/internal/core"
	"backoffice/internal/timebucket"
)

// Series holds one expense total and one profit total per bucket, in bucket
// order.
type Series struct {
	Labels        []string
	ExpenseTotals []core.Money
	ProfitTotals  []core.Money
}

// Rolling sums published expense amounts and their service fees into the
// given buckets. Every bucket yields an entry, zero when nothing matched.
func Rolling(records []core.LedgerRecord, buckets []timebucket.Bucket) Series {
	s := Series{
		Labels:        timebucket.Labels(buckets),
		ExpenseTotals: make([]core.Money, len(buckets)),
		ProfitTotals:  make([]core.Money, len(buckets)),
	}
	if len(buckets) == 0 {
		return s
	}
	start, end := timebucket.Span(buckets)
	for _, r := range records {
		if !r.Published || r.Type != core.Expense {
			continue
		}
		if r.CreatedAt.Before(start) || !r.CreatedAt.Before(end) {
			continue
		}
		for i, b := range buckets {
			if !b.Contains(r.CreatedAt) {
				continue
			}
			s.ExpenseTotals[i] = s.ExpenseTotals[i].Add(r.Amount)
			if r.ServiceFee.IsPositive() {
				s.ProfitTotals[i] = s.ProfitTotals[i].Add(r.ServiceFee)
			}
			break
		}
	}
	return s
}
