// Package services orchestrates storage, the pure report builders and event
// publishing.
package services

import (
	"context"

	"backoffice/internal/amqp"
	"backoffice/internal/core"
)

// RecordStore reads and writes ledger records.
type RecordStore interface {
	ListRecords(ctx context.Context, q core.RecordQuery) ([]core.LedgerRecord, error)
	GetRecord(ctx context.Context, id string) (core.LedgerRecord, error)
	CreateRecord(ctx context.Context, rec core.LedgerRecord) (core.LedgerRecord, error)
	CreateRecordPair(ctx context.Context, pair core.RecordPair) (core.RecordPair, error)
	FindPair(ctx context.Context, pairID string) (core.RecordPair, error)
	UnpublishRecord(ctx context.Context, id string) error
}

// EntityStore reads and writes entities and their documents.
type EntityStore interface {
	ListEntities(ctx context.Context, kind core.EntityKind) ([]core.Entity, error)
	GetEntity(ctx context.Context, id string) (core.Entity, error)
	CreateEntity(ctx context.Context, e core.Entity) (core.Entity, error)
	GetDocument(ctx context.Context, id string) (core.Document, error)
	AddDocument(ctx context.Context, d core.Document) (core.Document, error)
	UpdateDocument(ctx context.Context, d core.Document) (core.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// DismissalStore persists document dismissals.
type DismissalStore interface {
	SaveDismissal(ctx context.Context, d core.Dismissal) error
	ListDismissals(ctx context.Context) ([]core.Dismissal, error)
}

// Store is everything a data backend provides.
type Store interface {
	RecordStore
	EntityStore
	DismissalStore
	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher sends domain events. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.Event) error
}

// Invalidator drops cached derived data after a write.
type Invalidator interface {
	Invalidate()
}

var _ EventPublisher = (*amqp.Client)(nil)
