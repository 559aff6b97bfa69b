package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/core"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ---- ledger records ----

const recordColumns = `id, type, amount_cents, method, counterparty_kind, counterparty_id, counterparty_name, counterparty_label, service_fee_cents, status, created_at, published, number, suffix, pair_id`

func scanRecord(s rowScanner) (core.LedgerRecord, error) {
	var (
		r         core.LedgerRecord
		typ       string
		method    string
		cpKind    string
		amount    int64
		fee       int64
		createdAt int64
		published int64
		pairID    sql.NullString
	)
	err := s.Scan(&r.ID, &typ, &amount, &method, &cpKind, &r.Counterparty.ID, &r.Counterparty.Name,
		&r.Counterparty.Label, &fee, &r.Status, &createdAt, &published, &r.Number, &r.Suffix, &pairID)
	if err != nil {
		return core.LedgerRecord{}, err
	}
	r.Type = core.RecordType(typ)
	r.Method = core.Method(method)
	r.Counterparty.Kind = core.CounterpartyKind(cpKind)
	r.Amount = core.Cents(amount)
	r.ServiceFee = core.Cents(fee)
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	r.Published = published != 0
	r.PairID = pairID.String
	return r, nil
}

func collectRecords(rows *sql.Rows) ([]core.LedgerRecord, error) {
	defer rows.Close()
	var out []core.LedgerRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const insertRecord = `INSERT INTO ledger_records (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertRecord(ctx context.Context, r core.LedgerRecord) error {
	var pairID sql.NullString
	if r.PairID != "" {
		pairID = sql.NullString{String: r.PairID, Valid: true}
	}
	published := 0
	if r.Published {
		published = 1
	}
	_, err := q.db.ExecContext(ctx, insertRecord,
		r.ID, string(r.Type), r.Amount.Cents, string(r.Method),
		string(r.Counterparty.Kind), r.Counterparty.ID, r.Counterparty.Name, r.Counterparty.Label,
		r.ServiceFee.Cents, r.Status, r.CreatedAt.UnixNano(), published, r.Number, r.Suffix, pairID)
	return err
}

const nextNumber = `SELECT COALESCE(MAX(number), 0) + 1 FROM ledger_records`

func (q *Queries) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, nextNumber).Scan(&n)
	return n, err
}

const getRecord = `SELECT ` + recordColumns + ` FROM ledger_records WHERE id = ?`

func (q *Queries) GetRecord(ctx context.Context, id string) (core.LedgerRecord, error) {
	return scanRecord(q.db.QueryRowContext(ctx, getRecord, id))
}

const listPair = `SELECT ` + recordColumns + ` FROM ledger_records WHERE pair_id = ? ORDER BY suffix`

func (q *Queries) ListPair(ctx context.Context, pairID string) ([]core.LedgerRecord, error) {
	rows, err := q.db.QueryContext(ctx, listPair, pairID)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// ListRecords returns published records matching rq in creation order.
func (q *Queries) ListRecords(ctx context.Context, rq core.RecordQuery) ([]core.LedgerRecord, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + recordColumns + ` FROM ledger_records WHERE published = 1`)
	if !rq.From.IsZero() {
		sb.WriteString(` AND created_at >= ?`)
		args = append(args, rq.From.UnixNano())
	}
	if !rq.To.IsZero() {
		sb.WriteString(` AND created_at < ?`)
		args = append(args, rq.To.UnixNano())
	}
	if rq.Type != "" {
		sb.WriteString(` AND type = ?`)
		args = append(args, string(rq.Type))
	}
	if rq.LiabilityOnly {
		sb.WriteString(` AND (method = ? OR status = ?)`)
		args = append(args, string(core.MethodLiability), core.StatusLiability)
	}
	sb.WriteString(` ORDER BY created_at, number, suffix`)

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// Pair partners are soft-deleted together.
const unpublishRecord = `UPDATE ledger_records SET published = 0
WHERE published = 1 AND (id = ? OR pair_id = (SELECT pair_id FROM ledger_records WHERE id = ? AND pair_id IS NOT NULL))`

func (q *Queries) UnpublishRecord(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, unpublishRecord, id, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---- entities and documents ----

const insertEntity = `INSERT INTO entities (id, kind, name) VALUES (?, ?, ?)`

func (q *Queries) InsertEntity(ctx context.Context, e core.Entity) error {
	_, err := q.db.ExecContext(ctx, insertEntity, e.ID, string(e.Kind), e.Name)
	return err
}

const getEntity = `SELECT id, kind, name FROM entities WHERE id = ?`

func (q *Queries) GetEntity(ctx context.Context, id string) (core.Entity, error) {
	var (
		e    core.Entity
		kind string
	)
	if err := q.db.QueryRowContext(ctx, getEntity, id).Scan(&e.ID, &kind, &e.Name); err != nil {
		return core.Entity{}, err
	}
	e.Kind = core.EntityKind(kind)
	return e, nil
}

const listEntities = `SELECT id, kind, name FROM entities WHERE kind = ? ORDER BY rowid`

func (q *Queries) ListEntities(ctx context.Context, kind core.EntityKind) ([]core.Entity, error) {
	rows, err := q.db.QueryContext(ctx, listEntities, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Entity
	for rows.Next() {
		var (
			e core.Entity
			k string
		)
		if err := rows.Scan(&e.ID, &k, &e.Name); err != nil {
			return nil, err
		}
		e.Kind = core.EntityKind(k)
		out = append(out, e)
	}
	return out, rows.Err()
}

const documentColumns = `d.id, d.entity_id, e.kind, d.name, d.issue_date, d.expiry_date, d.attachment`

func scanDocument(s rowScanner) (core.Document, error) {
	var (
		d       core.Document
		kind    string
		issue   sql.NullString
		expiry  sql.NullString
		errDate error
	)
	if err := s.Scan(&d.ID, &d.EntityID, &kind, &d.Name, &issue, &expiry, &d.Attachment); err != nil {
		return core.Document{}, err
	}
	d.EntityKind = core.EntityKind(kind)
	if d.IssueDate, errDate = core.ParseDate(issue.String); errDate != nil {
		return core.Document{}, fmt.Errorf("document %s issue date: %w", d.ID, errDate)
	}
	if d.ExpiryDate, errDate = core.ParseDate(expiry.String); errDate != nil {
		return core.Document{}, fmt.Errorf("document %s expiry date: %w", d.ID, errDate)
	}
	return d, nil
}

func collectDocuments(rows *sql.Rows) ([]core.Document, error) {
	defer rows.Close()
	var out []core.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

const getDocument = `SELECT ` + documentColumns + ` FROM documents d JOIN entities e ON e.id = d.entity_id WHERE d.id = ?`

func (q *Queries) GetDocument(ctx context.Context, id string) (core.Document, error) {
	return scanDocument(q.db.QueryRowContext(ctx, getDocument, id))
}

const listDocumentsByKind = `SELECT ` + documentColumns + ` FROM documents d JOIN entities e ON e.id = d.entity_id WHERE e.kind = ? ORDER BY d.rowid`

func (q *Queries) ListDocumentsByKind(ctx context.Context, kind core.EntityKind) ([]core.Document, error) {
	rows, err := q.db.QueryContext(ctx, listDocumentsByKind, string(kind))
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

const listDocumentsByEntity = `SELECT ` + documentColumns + ` FROM documents d JOIN entities e ON e.id = d.entity_id WHERE d.entity_id = ? ORDER BY d.rowid`

func (q *Queries) ListDocumentsByEntity(ctx context.Context, entityID string) ([]core.Document, error) {
	rows, err := q.db.QueryContext(ctx, listDocumentsByEntity, entityID)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

const insertDocument = `INSERT INTO documents (id, entity_id, name, issue_date, expiry_date, attachment) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertDocument(ctx context.Context, d core.Document) error {
	_, err := q.db.ExecContext(ctx, insertDocument,
		d.ID, d.EntityID, d.Name, nullDate(d.IssueDate), nullDate(d.ExpiryDate), d.Attachment)
	return err
}

const updateDocument = `UPDATE documents SET name = ?, issue_date = ?, expiry_date = ?, attachment = ? WHERE id = ?`

func (q *Queries) UpdateDocument(ctx context.Context, d core.Document) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateDocument,
		d.Name, nullDate(d.IssueDate), nullDate(d.ExpiryDate), d.Attachment, d.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteDocument = `DELETE FROM documents WHERE id = ?`

func (q *Queries) DeleteDocument(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteDocument, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---- dismissals ----

const deleteDismissals = `DELETE FROM document_dismissals WHERE document_id = ?`

func (q *Queries) DeleteDismissals(ctx context.Context, documentID string) error {
	_, err := q.db.ExecContext(ctx, deleteDismissals, documentID)
	return err
}

const upsertDismissal = `INSERT INTO document_dismissals (document_id, expiry_date, reason, note, dismissed_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (document_id, expiry_date) DO UPDATE SET reason = excluded.reason, note = excluded.note, dismissed_at = excluded.dismissed_at`

func (q *Queries) UpsertDismissal(ctx context.Context, d core.Dismissal) error {
	_, err := q.db.ExecContext(ctx, upsertDismissal,
		d.DocumentID, d.ExpiryDate.String(), string(d.Reason), d.Note, d.DismissedAt.UnixNano())
	return err
}

const listDismissals = `SELECT document_id, expiry_date, reason, note, dismissed_at FROM document_dismissals ORDER BY dismissed_at`

func (q *Queries) ListDismissals(ctx context.Context) ([]core.Dismissal, error) {
	rows, err := q.db.QueryContext(ctx, listDismissals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Dismissal
	for rows.Next() {
		var (
			d           core.Dismissal
			expiry      string
			reason      string
			dismissedAt int64
		)
		if err := rows.Scan(&d.DocumentID, &expiry, &reason, &d.Note, &dismissedAt); err != nil {
			return nil, err
		}
		date, err := core.ParseDate(expiry)
		if err != nil {
			return nil, fmt.Errorf("dismissal %s expiry date: %w", d.DocumentID, err)
		}
		d.ExpiryDate = date
		d.Reason = core.DismissalReason(reason)
		d.DismissedAt = time.Unix(0, dismissedAt).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}
