package documents

import (
	"cmp"
	"slices"

	"backoffice/internal/core"
)

// QueueItem is a document that needs attention.
type QueueItem struct {
	Document   core.Document `json:"document"`
	EntityName string        `json:"entityName"`
	Status
}

// Queue lists the documents of entities that are expired or expire within
// the attention horizon, minus those covered by a dismissal. Most urgent
// first; within a tier the earliest expiry comes first.
func (c Classifier) Queue(entities []core.Entity, dismissals []core.Dismissal) []QueueItem {
	dismissed := make(map[string][]core.Dismissal, len(dismissals))
	for _, d := range dismissals {
		dismissed[d.DocumentID] = append(dismissed[d.DocumentID], d)
	}

	var out []QueueItem
	for _, e := range entities {
		for _, doc := range e.Documents {
			st := c.Classify(doc.ExpiryDate)
			if !st.Tier.Queued() || isDismissed(doc, dismissed[doc.ID]) {
				continue
			}
			out = append(out, QueueItem{Document: doc, EntityName: e.Name, Status: st})
		}
	}

	slices.SortStableFunc(out, func(a, b QueueItem) int {
		if n := cmp.Compare(b.Tier.Severity(), a.Tier.Severity()); n != 0 {
			return n
		}
		return cmp.Compare(*a.DaysLeft, *b.DaysLeft)
	})
	return out
}

// ActionRequired counts queue items that need action now.
func ActionRequired(items []QueueItem) int {
	n := 0
	for _, it := range items {
		if it.Tier.ActionRequired() {
			n++
		}
	}
	return n
}

func isDismissed(doc core.Document, ds []core.Dismissal) bool {
	for _, d := range ds {
		if d.Covers(doc) {
			return true
		}
	}
	return false
}
