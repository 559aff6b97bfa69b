package documents

import (
	"slices"

	"backoffice/internal/core"
)

// EntitySummary is one row of an urgency-ordered entity listing.
type EntitySummary struct {
	ID         string          `json:"id"`
	Kind       core.EntityKind `json:"kind"`
	Name       string          `json:"name"`
	ExpiryDate core.Date       `json:"expiryDate"`
	Docs       int             `json:"docs"`
	Status
}

// NearestExpiry returns the earliest expiry among docs. Documents without an
// expiry are ignored; ok is false when none has one.
func NearestExpiry(docs []core.Document) (nearest core.Date, ok bool) {
	for _, d := range docs {
		if d.ExpiryDate.IsEmpty() {
			continue
		}
		if !ok || d.ExpiryDate.Before(nearest.Time) {
			nearest = d.ExpiryDate
			ok = true
		}
	}
	return nearest, ok
}

// Summarize rolls an entity's documents up into its nearest expiry and the
// status of that date.
func (c Classifier) Summarize(e core.Entity) EntitySummary {
	nearest, _ := NearestExpiry(e.Documents)
	return EntitySummary{
		ID:         e.ID,
		Kind:       e.Kind,
		Name:       e.Name,
		ExpiryDate: nearest,
		Docs:       len(e.Documents),
		Status:     c.Classify(nearest),
	}
}

// SummarizeAll summarizes every entity and sorts the result by nearest
// expiry.
func (c Classifier) SummarizeAll(entities []core.Entity) []EntitySummary {
	out := make([]EntitySummary, 0, len(entities))
	for _, e := range entities {
		out = append(out, c.Summarize(e))
	}
	SortByNearestExpiry(out)
	return out
}

// SortByNearestExpiry orders summaries by ascending expiry date with
// entities that have no expiry last. Ties keep their input order.
func SortByNearestExpiry(s []EntitySummary) {
	slices.SortStableFunc(s, func(a, b EntitySummary) int {
		switch {
		case a.ExpiryDate.IsEmpty() && b.ExpiryDate.IsEmpty():
			return 0
		case a.ExpiryDate.IsEmpty():
			return 1
		case b.ExpiryDate.IsEmpty():
			return -1
		}
		return a.ExpiryDate.Compare(b.ExpiryDate.Time)
	})
}
