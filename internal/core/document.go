package core

import (
	"fmt"
	"strings"
	"time"
)

// EntityKind names an owner of documents.
type EntityKind string

const (
	KindCompany    EntityKind = "company"
	KindEmployee   EntityKind = "employee"
	KindIndividual EntityKind = "individual"
)

// EntityKinds lists every document owner kind in a stable order.
var EntityKinds = []EntityKind{KindCompany, KindEmployee, KindIndividual}

// ParseEntityKind accepts singular or plural wire values ("company", "companies").
func ParseEntityKind(s string) (EntityKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "company", "companies":
		return KindCompany, nil
	case "employee", "employees":
		return KindEmployee, nil
	case "individual", "individuals":
		return KindIndividual, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntityKind, s)
}

// DismissalReason is the closed set of reasons a document can be dismissed for.
type DismissalReason string

const (
	ReasonRenewedByOtherProvider DismissalReason = "renewed_by_other_provider"
	ReasonNotInterested          DismissalReason = "not_interested"
	ReasonWillRenewLater         DismissalReason = "will_renew_later"
	ReasonCustom                 DismissalReason = "custom"
)

type (
	Document struct {
		ID         string     `json:"id"`
		EntityID   string     `json:"entityId"`
		EntityKind EntityKind `json:"entityKind"`
		Name       string     `json:"name"`
		IssueDate  Date       `json:"issueDate"`
		ExpiryDate Date       `json:"expiryDate"`
		Attachment string     `json:"attachment,omitempty"`
	}

	// Entity owns an ordered list of documents. Documents are stored in their
	// own table and loaded alongside the entity.
	Entity struct {
		ID        string     `json:"id"`
		Kind      EntityKind `json:"kind"`
		Name      string     `json:"name"`
		Documents []Document `json:"documents"`
	}

	// Dismissal hides a document from urgency queues for as long as its
	// expiry date equals ExpiryDate.
	Dismissal struct {
		DocumentID  string          `json:"documentId"`
		ExpiryDate  Date            `json:"expiryDate"`
		Reason      DismissalReason `json:"reason"`
		Note        string          `json:"note,omitempty"`
		DismissedAt time.Time       `json:"dismissedAt"`
	}
)

// Validate checks the reason and requires a note for custom dismissals.
func (d Dismissal) Validate() error {
	switch d.Reason {
	case ReasonRenewedByOtherProvider, ReasonNotInterested, ReasonWillRenewLater:
		return nil
	case ReasonCustom:
		if strings.TrimSpace(d.Note) == "" {
			return fmt.Errorf("%w: custom reason requires a note", ErrInvalidDismissal)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown reason %q", ErrInvalidDismissal, d.Reason)
}

// Covers reports whether the dismissal still applies to doc.
func (d Dismissal) Covers(doc Document) bool {
	return d.DocumentID == doc.ID && d.ExpiryDate.Equal(doc.ExpiryDate.Time)
}

func (d Document) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDocument)
	}
	if len(d.Name) > 200 {
		return fmt.Errorf("%w: name too long (max 200 characters)", ErrInvalidDocument)
	}
	if !d.IssueDate.IsEmpty() && !d.ExpiryDate.IsEmpty() && d.ExpiryDate.Before(d.IssueDate.Time) {
		return fmt.Errorf("%w: expiry date before issue date", ErrInvalidDocument)
	}
	return nil
}

func (e Entity) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEntity)
	}
	if _, err := ParseEntityKind(string(e.Kind)); err != nil {
		return err
	}
	return nil
}
