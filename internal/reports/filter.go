package reports

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/timebucket"
)

// Filter is the {month, year} query shape accepted by the accounts report.
type Filter struct {
	Month string
	Year  string
}

// Window is a resolved [From, To) createdAt range. A zero window is all time.
type Window struct {
	From time.Time
	To   time.Time
}

// IsAllTime reports whether the window is unbounded.
func (w Window) IsAllTime() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Key identifies the window for caching.
func (w Window) Key() string {
	if w.IsAllTime() {
		return "all"
	}
	return w.From.Format(time.RFC3339) + "/" + w.To.Format(time.RFC3339)
}

// Resolve maps the filter onto a createdAt range in loc:
//   - neither field: all time
//   - month "current": the current calendar month
//   - month only: that month of the current year
//   - year only: the whole year
//   - both: that month of that year
func (f Filter) Resolve(now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	month := strings.ToLower(strings.TrimSpace(f.Month))
	yearStr := strings.TrimSpace(f.Year)

	if month == "" && yearStr == "" {
		return Window{}, nil
	}
	if month == "current" {
		start := timebucket.StartOfMonth(now, loc)
		return Window{From: start, To: start.AddDate(0, 1, 0)}, nil
	}

	year := now.Year()
	if yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil || y < 1970 || y > 9999 {
			return Window{}, fmt.Errorf("%w: year %q", core.ErrInvalidFilter, f.Year)
		}
		year = y
	}
	if month == "" {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		return Window{From: start, To: start.AddDate(1, 0, 0)}, nil
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return Window{}, fmt.Errorf("%w: month %q", core.ErrInvalidFilter, f.Month)
	}
	start := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, loc)
	return Window{From: start, To: start.AddDate(0, 1, 0)}, nil
}

// Query converts the window into a storage query.
func (w Window) Query() core.RecordQuery {
	return core.RecordQuery{From: w.From, To: w.To}
}
