// Package memory is an in-process sheets.Mirror that keeps the last grids
// written. It backs the worker when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"lapkeu/internal/core"
	"lapkeu/internal/sheets"
)

type Mirror struct {
	mu      sync.Mutex
	grids   map[string]sheets.Grid
	runs    int
	failure error
}

var _ sheets.Mirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{grids: make(map[string]sheets.Grid)}
}

// FailWith makes every following run return err. Nil clears it.
func (m *Mirror) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

func (m *Mirror) Mirror(ctx context.Context, list []core.Transaction) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	if m.failure != nil {
		return 0, m.failure
	}
	m.grids["Transactions"] = sheets.TransactionsGrid(list)
	m.grids["Monthly"] = sheets.MonthlyGrid(list)
	return len(list), nil
}

// Grid returns the last grid written to sheet, or nil.
func (m *Mirror) Grid(sheet string) sheets.Grid {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grids[sheet]
}

// Runs counts Mirror calls, failed ones included.
func (m *Mirror) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}
