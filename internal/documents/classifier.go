// Package documents classifies document expiry dates into urgency tiers and
// rolls them up per entity.
//
// Every classification in a batch goes through one Classifier so that all
// documents are measured against the same calendar day.
package documents

import (
	"fmt"
	"time"

	"backoffice/internal/core"
)

// Tier is the urgency tier of a document.
type Tier string

const (
	TierUnknown   Tier = "unknown"
	TierExpired   Tier = "expired"
	TierToday     Tier = "today"
	TierCritical  Tier = "critical"
	TierAttention Tier = "attention"
	TierValid     Tier = "valid"
)

const (
	criticalDays  = 7
	attentionDays = 30
	secondsPerDay = 24 * 60 * 60
)

// Severity orders tiers for urgency comparisons. today and critical share a
// level. unknown returns 0 and is not comparable.
func (t Tier) Severity() int {
	switch t {
	case TierExpired:
		return 4
	case TierToday, TierCritical:
		return 3
	case TierAttention:
		return 2
	case TierValid:
		return 1
	}
	return 0
}

// Comparable reports whether the tier takes part in severity ordering.
func (t Tier) Comparable() bool { return t.Severity() > 0 }

// ActionRequired reports whether the document needs attention now.
func (t Tier) ActionRequired() bool {
	switch t {
	case TierExpired, TierToday, TierCritical:
		return true
	}
	return false
}

// Queued reports whether documents in this tier belong to urgency queues.
func (t Tier) Queued() bool {
	return t.ActionRequired() || t == TierAttention
}

// Status is the classification of one expiry date.
type Status struct {
	Tier     Tier   `json:"status"`
	Label    string `json:"label"`
	DaysLeft *int   `json:"daysLeft,omitempty"`
}

// Classifier classifies expiry dates against a fixed calendar day.
type Classifier struct {
	today time.Time
}

// NewClassifier fixes the reference day to now's calendar date in loc.
func NewClassifier(now time.Time, loc *time.Location) Classifier {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	return Classifier{today: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)}
}

// Today returns the reference calendar day.
func (c Classifier) Today() core.Date {
	return core.Date{Time: c.today}
}

// DaysLeft returns the number of calendar days from the reference day to
// expiry. ok is false when there is no expiry date.
func (c Classifier) DaysLeft(expiry core.Date) (days int, ok bool) {
	if expiry.IsEmpty() {
		return 0, false
	}
	e := time.Date(expiry.Year(), expiry.Time.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	// both are UTC midnights, so the difference is a whole number of days;
	// Unix seconds avoid time.Duration's 292-year range
	return int((e.Unix() - c.today.Unix()) / secondsPerDay), true
}

// Classify maps an expiry date onto a tier. Tiers are tested in order and
// the first match wins.
func (c Classifier) Classify(expiry core.Date) Status {
	days, ok := c.DaysLeft(expiry)
	if !ok {
		return Status{Tier: TierUnknown, Label: "No expiry date"}
	}
	s := Status{DaysLeft: &days}
	switch {
	case days < 0:
		s.Tier = TierExpired
		s.Label = fmt.Sprintf("Expired %d days ago", -days)
	case days == 0:
		s.Tier = TierToday
		s.Label = "Expires Today"
	case days <= criticalDays:
		s.Tier = TierCritical
		s.Label = fmt.Sprintf("Expires in %d days", days)
	case days <= attentionDays:
		s.Tier = TierAttention
		s.Label = fmt.Sprintf("Expires in %d days", days)
	default:
		s.Tier = TierValid
		s.Label = "Valid"
	}
	return s
}
