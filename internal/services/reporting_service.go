package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"backoffice/internal/cache"
	"backoffice/internal/core"
	"backoffice/internal/liability"
	"backoffice/internal/log"
	"backoffice/internal/metrics"
	"backoffice/internal/reports"
)

// ReportingOptions configures a ReportingService. Zero values fall back to
// UTC, the default house label, no cache, time.Now and a discarding logger.
type ReportingOptions struct {
	Location   *time.Location
	HouseLabel string
	Cache      cache.Cache[reports.AccountsSummary]
	Now        func() time.Time
	Logger     *log.Logger
}

// ReportingService builds the accounts and liabilities reports from a
// storage snapshot.
type ReportingService struct {
	records    RecordStore
	loc        *time.Location
	houseLabel string
	cache      cache.Cache[reports.AccountsSummary]
	now        func() time.Time
	logger     *log.Logger
	generation atomic.Uint64
}

var _ Invalidator = (*ReportingService)(nil)

func NewReportingService(records RecordStore, opts ReportingOptions) *ReportingService {
	s := &ReportingService{
		records:    records,
		loc:        opts.Location,
		houseLabel: opts.HouseLabel,
		cache:      opts.Cache,
		now:        opts.Now,
		logger:     opts.Logger,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.houseLabel == "" {
		s.houseLabel = reports.DefaultHouseLabel
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentReports)
	return s
}

// Location is the zone reports are bucketed in.
func (s *ReportingService) Location() *time.Location { return s.loc }

// Accounts resolves the filter and builds the accounts summary. The window
// snapshot and the rolling 12-month snapshot are fetched concurrently and
// both are evaluated against the same now.
func (s *ReportingService) Accounts(ctx context.Context, f reports.Filter) (reports.AccountsSummary, error) {
	now := s.now()
	window, err := f.Resolve(now, s.loc)
	if err != nil {
		return reports.AccountsSummary{}, err
	}

	// today is part of the key so rolling series roll over at midnight
	key := window.Key() + "@" + now.In(s.loc).Format(time.DateOnly)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			metrics.ReportCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.ReportCacheLookups.WithLabelValues("miss").Inc()
	}

	// a write between the snapshot read and Set bumps the generation, so
	// the summary built from the older snapshot is not cached
	gen := s.generation.Load()

	start := time.Now()
	defer metrics.ObserveSince("accounts", start)

	var windowRecs, rollingRecs []core.LedgerRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := s.records.ListRecords(gctx, window.Query())
		if err != nil {
			return fmt.Errorf("load window records: %w", err)
		}
		windowRecs = recs
		return nil
	})
	g.Go(func() error {
		recs, err := s.records.ListRecords(gctx, reports.RollingWindow(now, s.loc).Query())
		if err != nil {
			return fmt.Errorf("load rolling records: %w", err)
		}
		rollingRecs = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return reports.AccountsSummary{}, err
	}

	summary := reports.BuildAccounts(windowRecs, rollingRecs, now, s.loc, s.houseLabel)
	if s.cache != nil && s.generation.Load() == gen {
		s.cache.Set(key, summary)
	}

	s.logger.DebugContext(ctx, "Accounts summary built",
		"window", window.Key(),
		"window_records", len(windowRecs),
		"rolling_records", len(rollingRecs))
	return summary, nil
}

// Liabilities nets every published liability record by counterparty.
func (s *ReportingService) Liabilities(ctx context.Context) (liability.Summary, error) {
	start := time.Now()
	defer metrics.ObserveSince("liabilities", start)

	recs, err := s.records.ListRecords(ctx, core.RecordQuery{LiabilityOnly: true})
	if err != nil {
		return liability.Summary{}, fmt.Errorf("load liability records: %w", err)
	}

	summary := liability.Net(recs)
	if summary.Dropped > 0 {
		metrics.LiabilityRecordsDropped.Add(float64(summary.Dropped))
		s.logger.WarnContext(ctx, "Liability records without company or employee counterparty left out",
			"dropped", summary.Dropped,
			"records", len(recs))
	}
	return summary, nil
}

// Invalidate drops every cached accounts summary.
func (s *ReportingService) Invalidate() {
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Clear()
	}
}
