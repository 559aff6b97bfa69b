package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"backoffice/internal/ids"
)

// EventType names a domain event. The prefix before the dot is the aggregate.
type EventType string

const (
	EventRecordCreated     EventType = "ledger.record_created"
	EventRecordUnpublished EventType = "ledger.record_unpublished"
	EventInstantProfit     EventType = "ledger.instant_profit"
	EventEntityCreated     EventType = "document.entity_created"
	EventDocumentChanged   EventType = "document.changed"
	EventDocumentDeleted   EventType = "document.deleted"
	EventDocumentDismissed EventType = "document.dismissed"
)

// IsLedger reports whether the event changes ledger records.
func (t EventType) IsLedger() bool { return strings.HasPrefix(string(t), "ledger.") }

// IsDocument reports whether the event changes entities, documents or dismissals.
func (t EventType) IsDocument() bool { return strings.HasPrefix(string(t), "document.") }

// Event is a lightweight notification. It carries only the subject id; the
// worker reads current state from storage.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Subject   string    `json:"subject"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with a fresh id and the current time.
func NewEvent(t EventType, subject string) *Event {
	now := time.Now().UTC()
	return &Event{
		ID:        ids.NewAt(now),
		Type:      t,
		Subject:   subject,
		Timestamp: now,
	}
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event and rejects envelopes without a type.
func EventFromJSON(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.Type == "" {
		return nil, errors.New("event without type")
	}
	return &ev, nil
}
