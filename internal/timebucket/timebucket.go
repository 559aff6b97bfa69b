// Package timebucket builds calendar-anchored day and month buckets relative
// to an explicit reference instant. It defines boundaries only; callers do
// the summing.
package timebucket

import (
	"fmt"
	"time"
)

// Bucket is a half-open span [Start, End) in a fixed location.
type Bucket struct {
	Key   string
	Label string
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the bucket.
func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// StartOfDay returns local midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// StartOfMonth returns local midnight of the first day of t's month in loc.
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// LastSevenDays returns seven one-day buckets, oldest first, the last one
// being today in loc. Labels are weekday initials and may repeat.
func LastSevenDays(now time.Time, loc *time.Location) []Bucket {
	loc = orUTC(loc)
	today := StartOfDay(now, loc)
	out := make([]Bucket, 0, 7)
	for i := 6; i >= 0; i-- {
		start := today.AddDate(0, 0, -i)
		out = append(out, Bucket{
			Key:   start.Format(time.DateOnly),
			Label: start.Weekday().String()[:1],
			Start: start,
			End:   start.AddDate(0, 0, 1),
		})
	}
	return out
}

// LastTwelveMonths returns twelve month buckets, oldest first, the last one
// being the current (partial) month in loc. Labels carry the year so the
// window stays unambiguous across a year boundary.
func LastTwelveMonths(now time.Time, loc *time.Location) []Bucket {
	loc = orUTC(loc)
	current := StartOfMonth(now, loc)
	out := make([]Bucket, 0, 12)
	for i := 11; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		out = append(out, Bucket{
			Key:   start.Format("2006-01"),
			Label: fmt.Sprintf("%s %d", start.Month(), start.Year()),
			Start: start,
			End:   start.AddDate(0, 1, 0),
		})
	}
	return out
}

// Span returns the overall [start, end) covered by buckets, which must be
// ordered oldest first.
func Span(buckets []Bucket) (time.Time, time.Time) {
	if len(buckets) == 0 {
		return time.Time{}, time.Time{}
	}
	return buckets[0].Start, buckets[len(buckets)-1].End
}

// Labels returns the bucket labels in order.
func Labels(buckets []Bucket) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Label
	}
	return out
}

// Keys returns the bucket keys in order.
func Keys(buckets []Bucket) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Key
	}
	return out
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
