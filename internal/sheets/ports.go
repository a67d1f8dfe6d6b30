// Package sheets defines the spreadsheet mirror of the ledger.
package sheets

import (
	"context"
	"fmt"

	"lapkeu/internal/core"
	"lapkeu/internal/report"
)

// Mirror rewrites the spreadsheet copy of the ledger from list.
type Mirror interface {
	// Mirror returns how many transaction rows were written.
	Mirror(ctx context.Context, list []core.Transaction) (int, error)
}

// Grid is a sheet's worth of cell values, header first.
type Grid [][]any

var (
	TransactionsHeader = []any{"ID", "Tanggal", "Jenis", "Sektor", "Catatan", "Jumlah"}
	MonthlyHeader      = []any{"Bulan", "Label", "Pemasukan", "Pengeluaran", "Selisih"}
)

// TransactionsGrid lists every transaction, oldest first. Undated rows come
// last, in ledger order.
func TransactionsGrid(list []core.Transaction) Grid {
	sorted := SortByDate(list)
	grid := make(Grid, 0, len(sorted)+1)
	grid = append(grid, TransactionsHeader)
	for _, t := range sorted {
		grid = append(grid, []any{
			t.ID,
			t.Date.String(),
			string(t.Type),
			core.SectorLabel(t.Sector),
			t.Note,
			int64(t.Amount),
		})
	}
	return grid
}

// MonthlyGrid is the monthly totals report, one row per month.
func MonthlyGrid(list []core.Transaction) Grid {
	m := report.MonthlyTotals(list)
	grid := make(Grid, 0, len(m.Months)+1)
	grid = append(grid, MonthlyHeader)
	for i, month := range m.Months {
		grid = append(grid, []any{month, m.Labels[i], m.Income[i], m.Expense[i], m.Net[i]})
	}
	return grid
}

// SortByDate returns a copy of list ordered by date, then id.
func SortByDate(list []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(list))
	copy(out, list)
	sortStable(out)
	return out
}

// A1 quotes a sheet title for use in a range.
func A1(sheet, cells string) string {
	if cells == "" {
		return fmt.Sprintf("'%s'", escapeTitle(sheet))
	}
	return fmt.Sprintf("'%s'!%s", escapeTitle(sheet), cells)
}
