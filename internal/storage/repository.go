// Package storage persists ledger records, entities, documents and dismissals
// in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"backoffice/internal/core"
	"backoffice/internal/ids"
	"backoffice/internal/log"
)

const (
	SuffixIncome  = "a"
	SuffixExpense = "b"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection serialises writers so batch numbers are allocated without races.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewWithDB(db, logger), nil
}

// NewWithDB wraps an already migrated database handle.
func NewWithDB(db *sql.DB, logger *log.Logger) *SQLiteRepository {
	if logger == nil {
		logger = log.Discard()
	}
	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
		now:     time.Now,
	}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, core.ErrNotFound)
	}
	return fmt.Errorf("get %s %s: %w", what, id, err)
}

// stamp fills the fields the store owns on a freshly created record.
func (r *SQLiteRepository) stamp(rec core.LedgerRecord, number int64, suffix string) core.LedgerRecord {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
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

// ListRecords returns the published records selected by q.
func (r *SQLiteRepository) ListRecords(ctx context.Context, q core.RecordQuery) ([]core.LedgerRecord, error) {
	records, err := r.queries.ListRecords(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// GetRecord returns a record whether or not it is published.
func (r *SQLiteRepository) GetRecord(ctx context.Context, id string) (core.LedgerRecord, error) {
	rec, err := r.queries.GetRecord(ctx, id)
	if err != nil {
		return core.LedgerRecord{}, notFound(err, "record", id)
	}
	return rec, nil
}

// CreateRecord stores a single record under the next batch number.
func (r *SQLiteRepository) CreateRecord(ctx context.Context, rec core.LedgerRecord) (core.LedgerRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.LedgerRecord{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	number, err := qtx.NextNumber(ctx)
	if err != nil {
		return core.LedgerRecord{}, fmt.Errorf("allocate batch number: %w", err)
	}

	rec = r.stamp(rec, number, "")
	if err := qtx.InsertRecord(ctx, rec); err != nil {
		if isUniqueViolation(err) {
			return core.LedgerRecord{}, fmt.Errorf("record %s: %w", rec.ID, core.ErrDuplicate)
		}
		return core.LedgerRecord{}, fmt.Errorf("insert record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.LedgerRecord{}, fmt.Errorf("commit record: %w", err)
	}

	r.logger.DebugContext(ctx, "Ledger record stored",
		log.FieldRecordID, rec.ID,
		"number", rec.Number)
	return rec, nil
}

// CreateRecordPair writes both halves of a pair in one transaction under a
// shared batch number. When the pair ID already exists the stored pair is
// returned together with core.ErrDuplicate.
func (r *SQLiteRepository) CreateRecordPair(ctx context.Context, pair core.RecordPair) (core.RecordPair, error) {
	if pair.PairID == "" {
		return core.RecordPair{}, errors.New("create record pair: empty pair id")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.RecordPair{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	existing, err := qtx.ListPair(ctx, pair.PairID)
	if err != nil {
		return core.RecordPair{}, fmt.Errorf("look up pair %s: %w", pair.PairID, err)
	}
	if len(existing) > 0 {
		return pairOf(pair.PairID, existing), fmt.Errorf("pair %s: %w", pair.PairID, core.ErrDuplicate)
	}

	number, err := qtx.NextNumber(ctx)
	if err != nil {
		return core.RecordPair{}, fmt.Errorf("allocate batch number: %w", err)
	}

	if pair.Income.CreatedAt.IsZero() {
		pair.Income.CreatedAt = r.now()
	}
	pair.Expense.CreatedAt = pair.Income.CreatedAt
	pair.Income.PairID = pair.PairID
	pair.Expense.PairID = pair.PairID
	pair.Income = r.stamp(pair.Income, number, SuffixIncome)
	pair.Expense = r.stamp(pair.Expense, number, SuffixExpense)

	for _, rec := range []core.LedgerRecord{pair.Income, pair.Expense} {
		if err := qtx.InsertRecord(ctx, rec); err != nil {
			if isUniqueViolation(err) {
				return core.RecordPair{}, fmt.Errorf("pair %s: %w", pair.PairID, core.ErrDuplicate)
			}
			return core.RecordPair{}, fmt.Errorf("insert %s record: %w", rec.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.RecordPair{}, fmt.Errorf("commit pair: %w", err)
	}

	r.logger.InfoContext(ctx, "Record pair stored",
		log.FieldPairID, pair.PairID,
		"number", number)
	return pair, nil
}

// FindPair loads both halves of a stored pair.
func (r *SQLiteRepository) FindPair(ctx context.Context, pairID string) (core.RecordPair, error) {
	records, err := r.queries.ListPair(ctx, pairID)
	if err != nil {
		return core.RecordPair{}, fmt.Errorf("find pair %s: %w", pairID, err)
	}
	if len(records) == 0 {
		return core.RecordPair{}, fmt.Errorf("pair %s: %w", pairID, core.ErrNotFound)
	}
	return pairOf(pairID, records), nil
}

func pairOf(pairID string, records []core.LedgerRecord) core.RecordPair {
	p := core.RecordPair{PairID: pairID}
	for _, rec := range records {
		switch rec.Type {
		case core.Income:
			p.Income = rec
		case core.Expense:
			p.Expense = rec
		}
	}
	return p
}

// UnpublishRecord soft-deletes a record and, for paired records, its partner.
func (r *SQLiteRepository) UnpublishRecord(ctx context.Context, id string) error {
	n, err := r.queries.UnpublishRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("unpublish record %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, core.ErrNotFound)
	}
	r.logger.InfoContext(ctx, "Ledger record unpublished", log.FieldRecordID, id, "rows", n)
	return nil
}

// CreateEntity stores an entity together with any documents it already carries.
func (r *SQLiteRepository) CreateEntity(ctx context.Context, e core.Entity) (core.Entity, error) {
	if e.ID == "" {
		e.ID = ids.New()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Entity{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	if err := qtx.InsertEntity(ctx, e); err != nil {
		if isUniqueViolation(err) {
			return core.Entity{}, fmt.Errorf("entity %s: %w", e.ID, core.ErrDuplicate)
		}
		return core.Entity{}, fmt.Errorf("insert entity: %w", err)
	}
	for i := range e.Documents {
		d := &e.Documents[i]
		if d.ID == "" {
			d.ID = ids.New()
		}
		d.EntityID = e.ID
		d.EntityKind = e.Kind
		if err := qtx.InsertDocument(ctx, *d); err != nil {
			return core.Entity{}, fmt.Errorf("insert document %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Entity{}, fmt.Errorf("commit entity: %w", err)
	}
	if e.Documents == nil {
		e.Documents = []core.Document{}
	}
	return e, nil
}

// GetEntity loads an entity and its documents.
func (r *SQLiteRepository) GetEntity(ctx context.Context, id string) (core.Entity, error) {
	e, err := r.queries.GetEntity(ctx, id)
	if err != nil {
		return core.Entity{}, notFound(err, "entity", id)
	}
	docs, err := r.queries.ListDocumentsByEntity(ctx, id)
	if err != nil {
		return core.Entity{}, fmt.Errorf("list documents for %s: %w", id, err)
	}
	e.Documents = docs
	if e.Documents == nil {
		e.Documents = []core.Document{}
	}
	return e, nil
}

// ListEntities returns every entity of kind with its documents in insertion order.
func (r *SQLiteRepository) ListEntities(ctx context.Context, kind core.EntityKind) ([]core.Entity, error) {
	entities, err := r.queries.ListEntities(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s entities: %w", kind, err)
	}
	docs, err := r.queries.ListDocumentsByKind(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s documents: %w", kind, err)
	}

	byEntity := make(map[string][]core.Document, len(entities))
	for _, d := range docs {
		byEntity[d.EntityID] = append(byEntity[d.EntityID], d)
	}
	for i := range entities {
		entities[i].Documents = byEntity[entities[i].ID]
		if entities[i].Documents == nil {
			entities[i].Documents = []core.Document{}
		}
	}
	return entities, nil
}

// GetDocument loads a single document.
func (r *SQLiteRepository) GetDocument(ctx context.Context, id string) (core.Document, error) {
	d, err := r.queries.GetDocument(ctx, id)
	if err != nil {
		return core.Document{}, notFound(err, "document", id)
	}
	return d, nil
}

// AddDocument appends a document to an existing entity.
func (r *SQLiteRepository) AddDocument(ctx context.Context, d core.Document) (core.Document, error) {
	e, err := r.queries.GetEntity(ctx, d.EntityID)
	if err != nil {
		return core.Document{}, notFound(err, "entity", d.EntityID)
	}
	if d.ID == "" {
		d.ID = ids.New()
	}
	d.EntityKind = e.Kind
	if err := r.queries.InsertDocument(ctx, d); err != nil {
		if isUniqueViolation(err) {
			return core.Document{}, fmt.Errorf("document %s: %w", d.ID, core.ErrDuplicate)
		}
		return core.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return d, nil
}

// UpdateDocument replaces the mutable fields of a document.
func (r *SQLiteRepository) UpdateDocument(ctx context.Context, d core.Document) (core.Document, error) {
	n, err := r.queries.UpdateDocument(ctx, d)
	if err != nil {
		return core.Document{}, fmt.Errorf("update document %s: %w", d.ID, err)
	}
	if n == 0 {
		return core.Document{}, fmt.Errorf("document %s: %w", d.ID, core.ErrNotFound)
	}
	return r.GetDocument(ctx, d.ID)
}

// DeleteDocument removes a document and its dismissals.
func (r *SQLiteRepository) DeleteDocument(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	if err := qtx.DeleteDismissals(ctx, id); err != nil {
		return fmt.Errorf("delete dismissals for %s: %w", id, err)
	}
	n, err := qtx.DeleteDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, core.ErrNotFound)
	}
	return tx.Commit()
}

// SaveDismissal stores d, replacing an earlier dismissal of the same expiry.
func (r *SQLiteRepository) SaveDismissal(ctx context.Context, d core.Dismissal) error {
	if d.DismissedAt.IsZero() {
		d.DismissedAt = r.now()
	}
	if err := r.queries.UpsertDismissal(ctx, d); err != nil {
		return fmt.Errorf("save dismissal for %s: %w", d.DocumentID, err)
	}
	return nil
}

// ListDismissals returns every stored dismissal, including lapsed ones.
func (r *SQLiteRepository) ListDismissals(ctx context.Context) ([]core.Dismissal, error) {
	out, err := r.queries.ListDismissals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dismissals: %w", err)
	}
	return out, nil
}
