package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"backoffice/internal/amqp"
	"backoffice/internal/core"
	"backoffice/internal/documents"
	"backoffice/internal/log"
	"backoffice/internal/metrics"
)

type DocumentOptions struct {
	Location  *time.Location
	Now       func() time.Time
	Publisher EventPublisher
	Logger    *log.Logger
}

// DocumentService classifies documents, keeps the urgency queue and manages
// entities, documents and dismissals.
type DocumentService struct {
	entities   EntityStore
	dismissals DismissalStore
	sources    *EntitySources
	loc        *time.Location
	now        func() time.Time
	publisher  EventPublisher
	logger     *log.Logger
}

func NewDocumentService(entities EntityStore, dismissals DismissalStore, sources *EntitySources, opts DocumentOptions) *DocumentService {
	s := &DocumentService{
		entities:   entities,
		dismissals: dismissals,
		sources:    sources,
		loc:        opts.Location,
		now:        opts.Now,
		publisher:  opts.Publisher,
		logger:     opts.Logger,
	}
	if s.sources == nil {
		s.sources = NewEntitySources(entities)
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentDocuments)
	return s
}

func (s *DocumentService) classifier() documents.Classifier {
	return documents.NewClassifier(s.now(), s.loc)
}

// Summaries returns one summary per entity of kind, nearest expiry first.
func (s *DocumentService) Summaries(ctx context.Context, kind core.EntityKind) ([]documents.EntitySummary, error) {
	src, err := s.sources.Get(kind)
	if err != nil {
		return nil, err
	}
	entities, err := src.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s entities: %w", kind, err)
	}

	return s.classifier().SummarizeAll(entities), nil
}

// Queue lists documents across every entity kind that are expired or expire
// within the attention horizon and are not dismissed, most urgent first.
func (s *DocumentService) Queue(ctx context.Context) ([]documents.QueueItem, error) {
	var (
		entities   []core.Entity
		dismissals []core.Dismissal
	)

	sources := s.sources.All()
	loaded := make([][]core.Entity, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			es, err := src.Entities(gctx)
			if err != nil {
				return fmt.Errorf("load %s entities: %w", src.Kind(), err)
			}
			loaded[i] = es
			return nil
		})
	}
	g.Go(func() error {
		ds, err := s.dismissals.ListDismissals(gctx)
		if err != nil {
			return fmt.Errorf("load dismissals: %w", err)
		}
		dismissals = ds
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// keep kind order stable regardless of which load finished first
	for _, es := range loaded {
		entities = append(entities, es...)
	}

	items := s.classifier().Queue(entities, dismissals)
	if items == nil {
		items = []documents.QueueItem{}
	}
	return items, nil
}

// Dismiss hides a document from the queue until its expiry date changes.
func (s *DocumentService) Dismiss(ctx context.Context, documentID string, reason core.DismissalReason, note string) (core.Dismissal, error) {
	doc, err := s.entities.GetDocument(ctx, documentID)
	if err != nil {
		return core.Dismissal{}, err
	}
	if doc.ExpiryDate.IsEmpty() {
		return core.Dismissal{}, fmt.Errorf("%w: document %s has no expiry date", core.ErrInvalidDismissal, documentID)
	}

	d := core.Dismissal{
		DocumentID:  doc.ID,
		ExpiryDate:  doc.ExpiryDate,
		Reason:      reason,
		Note:        strings.TrimSpace(note),
		DismissedAt: s.now().UTC(),
	}
	if err := d.Validate(); err != nil {
		return core.Dismissal{}, err
	}
	if err := s.dismissals.SaveDismissal(ctx, d); err != nil {
		return core.Dismissal{}, err
	}

	metrics.DocumentsDismissed.WithLabelValues(string(reason)).Inc()
	s.logger.InfoContext(ctx, "Document dismissed",
		log.FieldDocumentID, doc.ID,
		"expiry_date", doc.ExpiryDate.String(),
		"reason", reason)
	publish(ctx, s.publisher, s.logger, amqp.EventDocumentDismissed, doc.ID)
	return d, nil
}

// CreateEntity stores a new entity of kind with any initial documents.
func (s *DocumentService) CreateEntity(ctx context.Context, kind core.EntityKind, e core.Entity) (core.Entity, error) {
	e.Kind = kind
	e.Name = strings.TrimSpace(e.Name)
	if err := e.Validate(); err != nil {
		return core.Entity{}, err
	}
	for _, d := range e.Documents {
		if err := d.Validate(); err != nil {
			return core.Entity{}, err
		}
	}

	created, err := s.entities.CreateEntity(ctx, e)
	if err != nil {
		return core.Entity{}, err
	}
	s.logger.InfoContext(ctx, "Entity created",
		log.FieldEntityKind, string(created.Kind),
		log.FieldEntityID, created.ID,
		log.FieldCount, len(created.Documents))
	publish(ctx, s.publisher, s.logger, amqp.EventEntityCreated, created.ID)
	return created, nil
}

// AddDocument attaches a document to the entity with the given kind and id.
func (s *DocumentService) AddDocument(ctx context.Context, kind core.EntityKind, entityID string, d core.Document) (core.Document, error) {
	e, err := s.entities.GetEntity(ctx, entityID)
	if err != nil {
		return core.Document{}, err
	}
	if e.Kind != kind {
		return core.Document{}, fmt.Errorf("%s %s: %w", kind, entityID, core.ErrNotFound)
	}

	d.ID = ""
	d.EntityID = e.ID
	d.Name = strings.TrimSpace(d.Name)
	if err := d.Validate(); err != nil {
		return core.Document{}, err
	}

	created, err := s.entities.AddDocument(ctx, d)
	if err != nil {
		return core.Document{}, err
	}
	s.logger.InfoContext(ctx, "Document added",
		log.FieldEntityKind, string(kind),
		log.FieldEntityID, e.ID,
		log.FieldDocumentID, created.ID)
	publish(ctx, s.publisher, s.logger, amqp.EventDocumentChanged, created.ID)
	return created, nil
}

// DocumentPatch holds the fields of a partial document update. Nil fields
// are left unchanged; a non-nil empty date clears it.
type DocumentPatch struct {
	Name       *string
	IssueDate  *core.Date
	ExpiryDate *core.Date
	Attachment *string
}

// UpdateDocument applies patch to a stored document. Changing the expiry
// date lapses any dismissal bound to the old date.
func (s *DocumentService) UpdateDocument(ctx context.Context, id string, patch DocumentPatch) (core.Document, error) {
	doc, err := s.entities.GetDocument(ctx, id)
	if err != nil {
		return core.Document{}, err
	}
	if patch.Name != nil {
		doc.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.IssueDate != nil {
		doc.IssueDate = *patch.IssueDate
	}
	if patch.ExpiryDate != nil {
		doc.ExpiryDate = *patch.ExpiryDate
	}
	if patch.Attachment != nil {
		doc.Attachment = *patch.Attachment
	}
	if err := doc.Validate(); err != nil {
		return core.Document{}, err
	}

	updated, err := s.entities.UpdateDocument(ctx, doc)
	if err != nil {
		return core.Document{}, err
	}
	publish(ctx, s.publisher, s.logger, amqp.EventDocumentChanged, updated.ID)
	return updated, nil
}

// DeleteDocument removes a document and its dismissals.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	if err := s.entities.DeleteDocument(ctx, id); err != nil {
		return err
	}
	publish(ctx, s.publisher, s.logger, amqp.EventDocumentDeleted, id)
	return nil
}
