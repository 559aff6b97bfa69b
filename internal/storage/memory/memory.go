// Package memory is a process-local store with the same behaviour as the
// SQLite repository. It backs tests and the memory data backend.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/ids"
)

const (
	suffixIncome  = "a"
	suffixExpense = "b"
)

type Store struct {
	mu         sync.Mutex
	records    []core.LedgerRecord
	entities   []core.Entity
	documents  []core.Document
	dismissals map[dismissalKey]core.Dismissal
	nextNumber int64
	now        func() time.Time
}

type dismissalKey struct {
	documentID string
	expiry     string
}

func New() *Store {
	return &Store{
		dismissals: map[dismissalKey]core.Dismissal{},
		nextNumber: 1,
		now:        time.Now,
	}
}

// SetClock replaces the clock used to stamp new rows.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) stamp(rec core.LedgerRecord, number int64, suffix string) core.LedgerRecord {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if rec.ID == "" {
		rec.ID = ids.NewAt(rec.CreatedAt)
	}
	rec.Published = true
	rec.Number = number
	rec.Suffix = suffix
	return rec
}

func (s *Store) ListRecords(_ context.Context, q core.RecordQuery) ([]core.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.LedgerRecord
	for _, r := range s.records {
		if !r.Published {
			continue
		}
		if !q.From.IsZero() && r.CreatedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !r.CreatedAt.Before(q.To) {
			continue
		}
		if q.Type != "" && r.Type != q.Type {
			continue
		}
		if q.LiabilityOnly && !r.IsLiability() {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b core.LedgerRecord) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.Number != b.Number {
			if a.Number < b.Number {
				return -1
			}
			return 1
		}
		if a.Suffix < b.Suffix {
			return -1
		}
		if a.Suffix > b.Suffix {
			return 1
		}
		return 0
	})
	return out, nil
}

func (s *Store) GetRecord(_ context.Context, id string) (core.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return core.LedgerRecord{}, fmt.Errorf("record %s: %w", id, core.ErrNotFound)
}

func (s *Store) CreateRecord(_ context.Context, rec core.LedgerRecord) (core.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec = s.stamp(rec, s.nextNumber, "")
	for _, r := range s.records {
		if r.ID == rec.ID {
			return core.LedgerRecord{}, fmt.Errorf("record %s: %w", rec.ID, core.ErrDuplicate)
		}
	}
	s.nextNumber++
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *Store) CreateRecordPair(_ context.Context, pair core.RecordPair) (core.RecordPair, error) {
	if pair.PairID == "" {
		return core.RecordPair{}, fmt.Errorf("create record pair: empty pair id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.pairLocked(pair.PairID); ok {
		return existing, fmt.Errorf("pair %s: %w", pair.PairID, core.ErrDuplicate)
	}

	if pair.Income.CreatedAt.IsZero() {
		pair.Income.CreatedAt = s.now()
	}
	pair.Expense.CreatedAt = pair.Income.CreatedAt
	pair.Income.PairID = pair.PairID
	pair.Expense.PairID = pair.PairID
	pair.Income = s.stamp(pair.Income, s.nextNumber, suffixIncome)
	pair.Expense = s.stamp(pair.Expense, s.nextNumber, suffixExpense)
	s.nextNumber++
	s.records = append(s.records, pair.Income, pair.Expense)
	return pair, nil
}

func (s *Store) pairLocked(pairID string) (core.RecordPair, bool) {
	p := core.RecordPair{PairID: pairID}
	found := false
	for _, r := range s.records {
		if r.PairID != pairID {
			continue
		}
		found = true
		switch r.Type {
		case core.Income:
			p.Income = r
		case core.Expense:
			p.Expense = r
		}
	}
	return p, found
}

func (s *Store) FindPair(_ context.Context, pairID string) (core.RecordPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pairLocked(pairID); ok {
		return p, nil
	}
	return core.RecordPair{}, fmt.Errorf("pair %s: %w", pairID, core.ErrNotFound)
}

// UnpublishRecord soft-deletes a record and, for paired records, its partner.
func (s *Store) UnpublishRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pairID := ""
	for _, r := range s.records {
		if r.ID == id {
			pairID = r.PairID
			break
		}
	}
	n := 0
	for i := range s.records {
		r := &s.records[i]
		if !r.Published {
			continue
		}
		if r.ID == id || (pairID != "" && r.PairID == pairID) {
			r.Published = false
			n++
		}
	}
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *Store) CreateEntity(_ context.Context, e core.Entity) (core.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = ids.New()
	}
	if s.entityIndex(e.ID) >= 0 {
		return core.Entity{}, fmt.Errorf("entity %s: %w", e.ID, core.ErrDuplicate)
	}
	docs := make([]core.Document, len(e.Documents))
	for i, d := range e.Documents {
		if d.ID == "" {
			d.ID = ids.New()
		}
		d.EntityID = e.ID
		d.EntityKind = e.Kind
		docs[i] = d
	}
	s.entities = append(s.entities, core.Entity{ID: e.ID, Kind: e.Kind, Name: e.Name})
	s.documents = append(s.documents, docs...)
	e.Documents = docs
	return e, nil
}

func (s *Store) entityIndex(id string) int {
	return slices.IndexFunc(s.entities, func(e core.Entity) bool { return e.ID == id })
}

func (s *Store) documentIndex(id string) int {
	return slices.IndexFunc(s.documents, func(d core.Document) bool { return d.ID == id })
}

func (s *Store) withDocuments(e core.Entity) core.Entity {
	e.Documents = []core.Document{}
	for _, d := range s.documents {
		if d.EntityID == e.ID {
			e.Documents = append(e.Documents, d)
		}
	}
	return e
}

func (s *Store) GetEntity(_ context.Context, id string) (core.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.entityIndex(id)
	if i < 0 {
		return core.Entity{}, fmt.Errorf("entity %s: %w", id, core.ErrNotFound)
	}
	return s.withDocuments(s.entities[i]), nil
}

func (s *Store) ListEntities(_ context.Context, kind core.EntityKind) ([]core.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Entity
	for _, e := range s.entities {
		if e.Kind == kind {
			out = append(out, s.withDocuments(e))
		}
	}
	return out, nil
}

func (s *Store) GetDocument(_ context.Context, id string) (core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.documentIndex(id)
	if i < 0 {
		return core.Document{}, fmt.Errorf("document %s: %w", id, core.ErrNotFound)
	}
	return s.documents[i], nil
}

func (s *Store) AddDocument(_ context.Context, d core.Document) (core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.entityIndex(d.EntityID)
	if i < 0 {
		return core.Document{}, fmt.Errorf("entity %s: %w", d.EntityID, core.ErrNotFound)
	}
	if d.ID == "" {
		d.ID = ids.New()
	}
	if s.documentIndex(d.ID) >= 0 {
		return core.Document{}, fmt.Errorf("document %s: %w", d.ID, core.ErrDuplicate)
	}
	d.EntityKind = s.entities[i].Kind
	s.documents = append(s.documents, d)
	return d, nil
}

func (s *Store) UpdateDocument(_ context.Context, d core.Document) (core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.documentIndex(d.ID)
	if i < 0 {
		return core.Document{}, fmt.Errorf("document %s: %w", d.ID, core.ErrNotFound)
	}
	cur := &s.documents[i]
	cur.Name = d.Name
	cur.IssueDate = d.IssueDate
	cur.ExpiryDate = d.ExpiryDate
	cur.Attachment = d.Attachment
	return *cur, nil
}

func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.documentIndex(id)
	if i < 0 {
		return fmt.Errorf("document %s: %w", id, core.ErrNotFound)
	}
	s.documents = slices.Delete(s.documents, i, i+1)
	for k := range s.dismissals {
		if k.documentID == id {
			delete(s.dismissals, k)
		}
	}
	return nil
}

func (s *Store) SaveDismissal(_ context.Context, d core.Dismissal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.DismissedAt.IsZero() {
		d.DismissedAt = s.now()
	}
	s.dismissals[dismissalKey{documentID: d.DocumentID, expiry: d.ExpiryDate.String()}] = d
	return nil
}

func (s *Store) ListDismissals(context.Context) ([]core.Dismissal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Dismissal, 0, len(s.dismissals))
	for _, d := range s.dismissals {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b core.Dismissal) int {
		return a.DismissedAt.Compare(b.DismissedAt)
	})
	return out, nil
}
