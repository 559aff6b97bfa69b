package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"backoffice/internal/amqp"
	"backoffice/internal/core"
	"backoffice/internal/storage/memory"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newMemoryStore() *memory.Store {
	s := memory.New()
	s.SetClock(fixedClock)
	return s
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev *amqp.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

var errStoreDown = errors.New("store down")

// failingRecords fails every read.
type failingRecords struct {
	RecordStore
}

func (failingRecords) ListRecords(context.Context, core.RecordQuery) ([]core.LedgerRecord, error) {
	return nil, errStoreDown
}

// writeDuringList runs write once, after the first snapshot has been read
// but before it is returned.
type writeDuringList struct {
	RecordStore
	once  sync.Once
	write func()
}

func (w *writeDuringList) ListRecords(ctx context.Context, q core.RecordQuery) ([]core.LedgerRecord, error) {
	recs, err := w.RecordStore.ListRecords(ctx, q)
	w.once.Do(w.write)
	return recs, err
}
