// Package report derives the ledger's summaries from a flat transaction list.
//
// Every function is pure: inputs are never modified and the same input always
// yields the same output. Records with a missing date are left out of every
// date-keyed view but still count toward ComputeSums. Records whose type is
// neither Income nor Expense contribute to no totals.
package report

import (
	"sort"

	"lapkeu/internal/core"
)

// AllMonths is the month filter that keeps every transaction.
const AllMonths = "ALL"

// Sums are the whole-list totals.
type Sums struct {
	Income  int64 `json:"sumIncome"`
	Expense int64 `json:"sumExpense"`
	Balance int64 `json:"balance"`
}

// ComputeSums totals income and expense over list. Balance is always
// Income minus Expense.
func ComputeSums(list []core.Transaction) Sums {
	var s Sums
	for _, t := range list {
		switch t.Type {
		case core.Income:
			s.Income += int64(t.Amount)
		case core.Expense:
			s.Expense += int64(t.Amount)
		}
	}
	s.Balance = s.Income - s.Expense
	return s
}

// ApplyMonthFilter keeps the transactions whose MonthKey equals month.
// AllMonths returns list itself.
func ApplyMonthFilter(list []core.Transaction, month string) []core.Transaction {
	if month == AllMonths {
		return list
	}
	out := make([]core.Transaction, 0, len(list))
	for _, t := range list {
		if MonthKey(t.Date) == month {
			out = append(out, t)
		}
	}
	return out
}

// ListMonths returns the distinct months present in list, most recent first.
func ListMonths(list []core.Transaction) []string {
	seen := make(map[string]struct{})
	for _, t := range list {
		if k := MonthKey(t.Date); k != "" {
			seen[k] = struct{}{}
		}
	}
	months := make([]string, 0, len(seen))
	for k := range seen {
		months = append(months, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// BalanceSeries is a running balance sampled on each day that has at least
// one transaction.
type BalanceSeries struct {
	Dates  []string `json:"dates"`
	Values []int64  `json:"values"`
}

// CumulativeBalance sums the signed amount per day, orders the days and
// takes the prefix sum. Days without transactions are absent.
func CumulativeBalance(list []core.Transaction) BalanceSeries {
	deltas := make(map[string]int64)
	for _, t := range list {
		k := DayKey(t.Date)
		if k == "" || !t.Type.Valid() {
			continue
		}
		deltas[k] += t.SignedAmount()
	}
	dates := sortedKeys(deltas)

	series := BalanceSeries{Dates: dates, Values: make([]int64, len(dates))}
	var running int64
	for i, d := range dates {
		running += deltas[d]
		series.Values[i] = running
	}
	return series
}

// MonthlySeries holds per-month totals in ascending month order.
type MonthlySeries struct {
	Months  []string `json:"months"`
	Labels  []string `json:"labels"`
	Income  []int64  `json:"income"`
	Expense []int64  `json:"expense"`
	Net     []int64  `json:"net"`
}

// MonthlyTotals buckets list by MonthKey.
func MonthlyTotals(list []core.Transaction) MonthlySeries {
	rows := GroupByPeriod(list, Monthly)
	s := MonthlySeries{
		Months:  make([]string, len(rows)),
		Labels:  make([]string, len(rows)),
		Income:  make([]int64, len(rows)),
		Expense: make([]int64, len(rows)),
		Net:     make([]int64, len(rows)),
	}
	for i, r := range rows {
		s.Months[i] = r.Key
		s.Labels[i] = core.MonthLabel(r.Key)
		s.Income[i] = r.Income
		s.Expense[i] = r.Expense
		s.Net[i] = r.Net()
	}
	return s
}

// Composition is the amount per label, split by transaction type.
type Composition struct {
	Income  map[string]int64 `json:"income"`
	Expense map[string]int64 `json:"expense"`
}

// CompositionBy sums amounts per label for the income and the expense
// subsets of list. A blank label lands in core.UncategorizedSector.
func CompositionBy(list []core.Transaction, label func(core.Transaction) string) Composition {
	c := Composition{Income: map[string]int64{}, Expense: map[string]int64{}}
	for _, t := range list {
		var bucket map[string]int64
		switch t.Type {
		case core.Income:
			bucket = c.Income
		case core.Expense:
			bucket = c.Expense
		default:
			continue
		}
		bucket[core.SectorLabel(label(t))] += int64(t.Amount)
	}
	return c
}

// SectorComposition is CompositionBy keyed on the sector.
func SectorComposition(list []core.Transaction) Composition {
	return CompositionBy(list, func(t core.Transaction) string { return t.Sector })
}

// Share returns part as a percentage of part+other, or 0 when both are 0.
func Share(part, other int64) float64 {
	total := part + other
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// TwoWayShare is the income/expense split of a Sums.
type TwoWayShare struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// ShareOf splits s into income and expense percentages.
func ShareOf(s Sums) TwoWayShare {
	return TwoWayShare{
		Income:  Share(s.Income, s.Expense),
		Expense: Share(s.Expense, s.Income),
	}
}

// Row is one bucket of a periodic report.
type Row struct {
	Key     string `json:"key"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
}

// Net is Income minus Expense.
func (r Row) Net() int64 {
	return r.Income - r.Expense
}

// GroupByPeriod buckets list by the period's key and returns every bucket in
// ascending key order. Callers pick a display window with Window.
func GroupByPeriod(list []core.Transaction, p Period) []Row {
	buckets := make(map[string]*Row)
	for _, t := range list {
		if !t.Type.Valid() {
			continue
		}
		k := p.Key(t.Date)
		if k == "" {
			continue
		}
		r, ok := buckets[k]
		if !ok {
			r = &Row{Key: k}
			buckets[k] = r
		}
		if t.Type == core.Income {
			r.Income += int64(t.Amount)
		} else {
			r.Expense += int64(t.Amount)
		}
	}
	rows := make([]Row, 0, len(buckets))
	for _, k := range sortedKeys(buckets) {
		rows = append(rows, *buckets[k])
	}
	return rows
}

// Window returns the last n rows. n <= 0 returns all of them.
func Window(rows []Row, n int) []Row {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[len(rows)-n:]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
