package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"backoffice/internal/amqp"
	"backoffice/internal/core"
	"backoffice/internal/log"
	"backoffice/internal/metrics"
)

// pairNamespace scopes idempotency keys when deriving pair IDs.
var pairNamespace = uuid.MustParse("6f1c2b1e-9a0d-4c36-8f43-2d8f0f5b7a10")

type LedgerOptions struct {
	Publisher   EventPublisher
	Invalidator Invalidator
	Logger      *log.Logger
}

// LedgerService writes ledger records and keeps derived reports fresh.
type LedgerService struct {
	records     RecordStore
	publisher   EventPublisher
	invalidator Invalidator
	logger      *log.Logger
	audit       *log.StructuredLogger
}

func NewLedgerService(records RecordStore, opts LedgerOptions) *LedgerService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentLedger)
	return &LedgerService{
		records:     records,
		publisher:   opts.Publisher,
		invalidator: opts.Invalidator,
		logger:      logger,
		audit:       log.NewStructuredLogger(logger),
	}
}

func (s *LedgerService) written(ctx context.Context, rec core.LedgerRecord) {
	metrics.LedgerRecordsWritten.WithLabelValues(string(rec.Type), string(rec.Method)).Inc()
	s.audit.LogRecordCreated(ctx, rec.ID, string(rec.Type), string(rec.Method), rec.Amount.Cents)
}

func (s *LedgerService) invalidate() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}

// Record validates and stores a single ledger record.
func (s *LedgerService) Record(ctx context.Context, rec core.LedgerRecord) (core.LedgerRecord, error) {
	rec.ID = ""
	rec.PairID = ""
	if rec.Status == "" {
		rec.Status = core.StatusCleared
	}
	if err := rec.Validate(); err != nil {
		return core.LedgerRecord{}, err
	}

	stored, err := s.records.CreateRecord(ctx, rec)
	if err != nil {
		return core.LedgerRecord{}, err
	}

	s.written(ctx, stored)
	s.invalidate()
	publish(ctx, s.publisher, s.logger, amqp.EventRecordCreated, stored.ID)
	return stored, nil
}

// Unpublish soft-deletes a record. Paired records are unpublished together.
func (s *LedgerService) Unpublish(ctx context.Context, id string) error {
	if err := s.records.UnpublishRecord(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	publish(ctx, s.publisher, s.logger, amqp.EventRecordUnpublished, id)
	return nil
}

// InstantProfitRequest describes a gross amount collected on behalf of a
// counterparty and the fee the house keeps from it.
type InstantProfitRequest struct {
	Gross          core.Money
	Fee            core.Money
	Method         core.Method
	Counterparty   core.Counterparty
	Status         string
	IdempotencyKey string
}

func (r InstantProfitRequest) Validate() error {
	if err := r.Gross.Validate(); err != nil {
		return fmt.Errorf("gross: %w", err)
	}
	if r.Fee.IsNegative() || r.Fee.Cents > r.Gross.Cents {
		return fmt.Errorf("%w: fee must be between 0 and the gross amount", core.ErrInvalidAmount)
	}
	if _, err := core.ParseMethod(string(r.Method)); err != nil {
		return err
	}
	return r.Counterparty.Validate()
}

// PairID derives the pair ID. A repeated idempotency key yields the same ID.
func (r InstantProfitRequest) PairID() string {
	key := strings.TrimSpace(r.IdempotencyKey)
	if key == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(pairNamespace, []byte(key)).String()
}

// matches reports whether stored was written by an equivalent request.
// Counterparty names are resolved by the store, so only the reference is
// compared.
func (r InstantProfitRequest) matches(stored core.RecordPair) bool {
	in, cp := stored.Income, stored.Income.Counterparty
	return in.Amount.Cents == r.Gross.Cents &&
		stored.Expense.ServiceFee.Cents == r.Fee.Cents &&
		in.Method == r.Method &&
		cp.Kind == r.Counterparty.Kind &&
		cp.ID == r.Counterparty.ID &&
		cp.Label == r.Counterparty.Label
}

type InstantProfitResult struct {
	core.RecordPair
	Replayed bool `json:"replayed"`
}

// InstantProfit writes the gross income and the net expense carrying the fee
// as one atomic pair. Replaying an idempotency key returns the stored pair.
func (s *LedgerService) InstantProfit(ctx context.Context, req InstantProfitRequest) (InstantProfitResult, error) {
	if err := req.Validate(); err != nil {
		return InstantProfitResult{}, err
	}
	status := req.Status
	if status == "" {
		status = core.StatusCleared
	}

	pair := core.RecordPair{
		PairID: req.PairID(),
		Income: core.LedgerRecord{
			Type:         core.Income,
			Amount:       req.Gross,
			Method:       req.Method,
			Counterparty: req.Counterparty,
			Status:       status,
		},
		Expense: core.LedgerRecord{
			Type:         core.Expense,
			Amount:       req.Gross.Sub(req.Fee),
			Method:       req.Method,
			Counterparty: req.Counterparty,
			ServiceFee:   req.Fee,
			Status:       status,
		},
	}

	stored, err := s.records.CreateRecordPair(ctx, pair)
	switch {
	case errors.Is(err, core.ErrDuplicate) && stored.PairID != "" && !req.matches(stored):
		metrics.InstantProfitPairs.WithLabelValues("conflict").Inc()
		s.logger.WarnContext(ctx, "Idempotency key reused with a different request",
			log.FieldPairID, stored.PairID)
		return InstantProfitResult{}, fmt.Errorf("%w: idempotency key reused with a different request", core.ErrDuplicate)
	case errors.Is(err, core.ErrDuplicate) && stored.PairID != "":
		metrics.InstantProfitPairs.WithLabelValues("replayed").Inc()
		s.logger.InfoContext(ctx, "Instant profit replayed",
			log.FieldPairID, stored.PairID)
		return InstantProfitResult{RecordPair: stored, Replayed: true}, nil
	case err != nil:
		metrics.InstantProfitPairs.WithLabelValues("failed").Inc()
		return InstantProfitResult{}, fmt.Errorf("instant profit: %w", err)
	}

	metrics.InstantProfitPairs.WithLabelValues("created").Inc()
	s.written(ctx, stored.Income)
	s.written(ctx, stored.Expense)
	s.invalidate()
	publish(ctx, s.publisher, s.logger, amqp.EventInstantProfit, stored.PairID)
	return InstantProfitResult{RecordPair: stored}, nil
}
