// Package memory records exported sheets in process. It backs the worker
// when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"backoffice/internal/sheets"
)

var _ sheets.Exporter = (*Recorder)(nil)

type Recorder struct {
	mu     sync.Mutex
	sheets map[string][][]string
	writes int
	err    error
}

func New() *Recorder {
	return &Recorder{sheets: make(map[string][][]string)}
}

// FailWith makes every following Replace return err. Pass nil to recover.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Replace stores a copy of rows under sheet.
func (r *Recorder) Replace(ctx context.Context, sheet string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := make([][]string, len(rows))
	for i, row := range rows {
		cp[i] = append([]string(nil), row...)
	}
	r.sheets[sheet] = cp
	r.writes++
	return nil
}

// Sheet returns the last rows written to sheet.
func (r *Recorder) Sheet(name string) ([][]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, ok := r.sheets[name]
	return rows, ok
}

// Writes counts successful Replace calls.
func (r *Recorder) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}
