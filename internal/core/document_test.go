package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityKind(t *testing.T) {
	tests := []struct {
		in   string
		want EntityKind
	}{
		{"company", KindCompany},
		{"Companies", KindCompany},
		{"employees", KindEmployee},
		{"individual", KindIndividual},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEntityKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	_, err := ParseEntityKind("vendor")
	assert.ErrorIs(t, err, ErrUnknownEntityKind)
}

func TestDismissalValidate(t *testing.T) {
	tests := []struct {
		name    string
		d       Dismissal
		wantErr bool
	}{
		{"renewed elsewhere", Dismissal{Reason: ReasonRenewedByOtherProvider}, false},
		{"not interested", Dismissal{Reason: ReasonNotInterested}, false},
		{"later", Dismissal{Reason: ReasonWillRenewLater}, false},
		{"custom with note", Dismissal{Reason: ReasonCustom, Note: "closed branch"}, false},
		{"custom without note", Dismissal{Reason: ReasonCustom, Note: "  "}, true},
		{"unknown reason", Dismissal{Reason: "bored"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDismissal)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDismissalCovers(t *testing.T) {
	doc := Document{ID: "d1", ExpiryDate: NewDate(2026, 5, 1)}
	d := Dismissal{DocumentID: "d1", ExpiryDate: NewDate(2026, 5, 1)}
	assert.True(t, d.Covers(doc))

	renewed := doc
	renewed.ExpiryDate = NewDate(2027, 5, 1)
	assert.False(t, d.Covers(renewed))
	assert.False(t, d.Covers(Document{ID: "d2", ExpiryDate: NewDate(2026, 5, 1)}))
}

func TestDocumentValidate(t *testing.T) {
	assert.NoError(t, Document{Name: "Trade licence"}.Validate())
	assert.ErrorIs(t, Document{Name: " "}.Validate(), ErrInvalidDocument)
	assert.ErrorIs(t, Document{
		Name:       "Visa",
		IssueDate:  NewDate(2026, 2, 1),
		ExpiryDate: NewDate(2026, 1, 1),
	}.Validate(), ErrInvalidDocument)
}
