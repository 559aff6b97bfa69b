// Package worker reacts to domain events and scheduled jobs by exporting
// the accounts summary and the document queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/amqp"
	"backoffice/internal/documents"
	"backoffice/internal/log"
	"backoffice/internal/metrics"
	"backoffice/internal/reports"
	"backoffice/internal/sheets"
)

// AccountsReporter builds the accounts summary for a filter.
type AccountsReporter interface {
	Accounts(ctx context.Context, f reports.Filter) (reports.AccountsSummary, error)
}

// QueueReporter lists the documents that need attention.
type QueueReporter interface {
	Queue(ctx context.Context) ([]documents.QueueItem, error)
}

type Options struct {
	SummarySheet string
	QueueSheet   string
	Location     *time.Location
	Now          func() time.Time
	Logger       *log.Logger
}

// ExportWorker writes report snapshots to an Exporter. It always reads the
// current state, so replayed or reordered events are harmless.
type ExportWorker struct {
	accounts     AccountsReporter
	queue        QueueReporter
	exporter     sheets.Exporter
	summarySheet string
	queueSheet   string
	loc          *time.Location
	now          func() time.Time
	logger       *log.Logger
}

func NewExportWorker(accounts AccountsReporter, queue QueueReporter, exporter sheets.Exporter, opts Options) *ExportWorker {
	w := &ExportWorker{
		accounts:     accounts,
		queue:        queue,
		exporter:     exporter,
		summarySheet: opts.SummarySheet,
		queueSheet:   opts.QueueSheet,
		loc:          opts.Location,
		now:          opts.Now,
		logger:       opts.Logger,
	}
	if w.summarySheet == "" {
		w.summarySheet = "Summary"
	}
	if w.queueSheet == "" {
		w.queueSheet = "Documents"
	}
	if w.loc == nil {
		w.loc = time.UTC
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.logger == nil {
		w.logger = log.Discard()
	}
	w.logger = w.logger.WithComponent(log.ComponentWorker)
	return w
}

// HandleEvent exports whatever the event touched. Unknown event types are
// acknowledged and ignored.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.Event) error {
	var err error
	switch {
	case ev.Type.IsLedger():
		err = w.ExportAccounts(ctx)
	case ev.Type.IsDocument():
		_, err = w.ExportQueue(ctx)
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event",
			log.FieldEventID, ev.ID,
			log.FieldEventType, ev.Type)
		metrics.EventsProcessed.WithLabelValues(string(ev.Type), "ignored").Inc()
		return nil
	}
	if err != nil {
		metrics.EventsProcessed.WithLabelValues(string(ev.Type), "failed").Inc()
		return fmt.Errorf("handle %s %s: %w", ev.Type, ev.Subject, err)
	}
	metrics.EventsProcessed.WithLabelValues(string(ev.Type), "exported").Inc()
	w.logger.InfoContext(ctx, "Event handled",
		log.FieldEventID, ev.ID,
		log.FieldEventType, ev.Type,
		"subject", ev.Subject)
	return nil
}

// ExportAccounts exports the accounts summary for the current month.
func (w *ExportWorker) ExportAccounts(ctx context.Context) error {
	summary, err := w.accounts.Accounts(ctx, reports.Filter{Month: "current"})
	if err != nil {
		return fmt.Errorf("build accounts: %w", err)
	}
	now := w.now().In(w.loc)
	rows := sheets.AccountsRows(now.Format("2006-01"), summary, now)
	if err := w.exporter.Replace(ctx, w.summarySheet, rows); err != nil {
		return fmt.Errorf("export accounts: %w", err)
	}
	w.logger.DebugContext(ctx, "Accounts exported",
		log.FieldOperation, log.OpExport,
		"sheet", w.summarySheet,
		"rows", len(rows))
	return nil
}

// ExportQueue exports the document queue and returns how many items in it
// require action.
func (w *ExportWorker) ExportQueue(ctx context.Context) (int, error) {
	items, err := w.queue.Queue(ctx)
	if err != nil {
		return 0, fmt.Errorf("build queue: %w", err)
	}
	rows := sheets.QueueRows(items, w.now().In(w.loc))
	if err := w.exporter.Replace(ctx, w.queueSheet, rows); err != nil {
		return 0, fmt.Errorf("export queue: %w", err)
	}
	w.logger.DebugContext(ctx, "Queue exported",
		log.FieldOperation, log.OpExport,
		"sheet", w.queueSheet,
		log.FieldCount, len(items))
	return documents.ActionRequired(items), nil
}

// ExportAll exports both sheets. A failure in one does not stop the other.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	errA := w.ExportAccounts(ctx)
	_, errQ := w.ExportQueue(ctx)
	return errors.Join(errA, errQ)
}

// SweepExpiry recomputes the queue, publishes the action-required gauge and
// exports the queue.
func (w *ExportWorker) SweepExpiry(ctx context.Context) error {
	n, err := w.ExportQueue(ctx)
	if err != nil {
		return err
	}
	metrics.DocumentsActionRequired.Set(float64(n))
	w.logger.InfoContext(ctx, "Expiry sweep complete",
		log.FieldOperation, log.OpSweep,
		"action_required", n)
	return nil
}
