package documents

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core"
)

func TestSummarizeIgnoresMissingExpiry(t *testing.T) {
	c := NewClassifier(refNow, time.UTC)
	s := c.Summarize(core.Entity{
		ID:   "e1",
		Kind: core.KindCompany,
		Name: "Acme",
		Documents: []core.Document{
			{ID: "d1", Name: "Memo"},
			{ID: "d2", Name: "Licence", ExpiryDate: inDays(10)},
		},
	})

	assert.Equal(t, inDays(10), s.ExpiryDate)
	assert.Equal(t, 2, s.Docs)
	assert.Equal(t, TierAttention, s.Tier)
}

func TestSummarizeNoDocuments(t *testing.T) {
	s := NewClassifier(refNow, time.UTC).Summarize(core.Entity{ID: "e1", Name: "Empty"})
	assert.True(t, s.ExpiryDate.IsEmpty())
	assert.Equal(t, 0, s.Docs)
	assert.Equal(t, TierUnknown, s.Tier)
}

func TestNearestExpiry(t *testing.T) {
	_, ok := NearestExpiry(nil)
	assert.False(t, ok)

	got, ok := NearestExpiry([]core.Document{
		{ExpiryDate: inDays(40)},
		{},
		{ExpiryDate: inDays(-3)},
		{ExpiryDate: inDays(2)},
	})
	require.True(t, ok)
	assert.Equal(t, inDays(-3), got)
}

func TestSummarizeAllSortsNoneLast(t *testing.T) {
	c := NewClassifier(refNow, time.UTC)
	got := c.SummarizeAll([]core.Entity{
		{ID: "none-1", Name: "A"},
		{ID: "late", Name: "B", Documents: []core.Document{{ExpiryDate: inDays(90)}}},
		{ID: "none-2", Name: "C", Documents: []core.Document{{Name: "undated"}}},
		{ID: "soon", Name: "D", Documents: []core.Document{{ExpiryDate: inDays(3)}}},
		{ID: "expired", Name: "E", Documents: []core.Document{{ExpiryDate: inDays(-2)}}},
	})

	order := make([]string, len(got))
	for i, s := range got {
		order[i] = s.ID
	}
	assert.Equal(t, []string{"expired", "soon", "late", "none-1", "none-2"}, order)
}

func TestEntitySummaryJSON(t *testing.T) {
	c := NewClassifier(refNow, time.UTC)
	b, err := json.Marshal(c.Summarize(core.Entity{
		ID: "e1", Kind: core.KindEmployee, Name: "Sam",
		Documents: []core.Document{{ExpiryDate: inDays(5)}},
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id":"e1","kind":"employee","name":"Sam","expiryDate":"2026-10-19","docs":1,
		"status":"critical","label":"Expires in 5 days","daysLeft":5
	}`, string(b))

	b, err = json.Marshal(c.Summarize(core.Entity{ID: "e2", Kind: core.KindEmployee, Name: "Kim"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"e2","kind":"employee","name":"Kim","expiryDate":null,"docs":0,"status":"unknown","label":"No expiry date"}`, string(b))
}
