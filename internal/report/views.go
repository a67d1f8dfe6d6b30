package report

import "lapkeu/internal/core"

// Summary is the header of the dashboard: totals for the selected month and
// the months available to select.
type Summary struct {
	Month string `json:"month"`
	Sums
	Share  TwoWayShare `json:"share"`
	Months []string    `json:"months"`
}

// Summarize computes the Summary for month, which may be AllMonths.
func Summarize(list []core.Transaction, month string) Summary {
	sums := ComputeSums(ApplyMonthFilter(list, month))
	return Summary{
		Month:  month,
		Sums:   sums,
		Share:  ShareOf(sums),
		Months: ListMonths(list),
	}
}

// Analytics bundles every chart of the dashboard for one month filter.
type Analytics struct {
	Month   string        `json:"month"`
	Sums    Sums          `json:"sums"`
	Share   TwoWayShare   `json:"share"`
	Balance BalanceSeries `json:"balance"`
	Monthly MonthlySeries `json:"monthly"`
	Sectors Composition   `json:"sectors"`
}

// Analyze filters list by month and derives the chart series from the result.
func Analyze(list []core.Transaction, month string) Analytics {
	filtered := ApplyMonthFilter(list, month)
	sums := ComputeSums(filtered)
	return Analytics{
		Month:   month,
		Sums:    sums,
		Share:   ShareOf(sums),
		Balance: CumulativeBalance(filtered),
		Monthly: MonthlyTotals(filtered),
		Sectors: SectorComposition(filtered),
	}
}

// TableRow is a Row ready for display.
type TableRow struct {
	Row
	Label string `json:"label"`
	Net   int64  `json:"net"`
}

// Table is one periodic report.
type Table struct {
	Period Period     `json:"period"`
	Rows   []TableRow `json:"rows"`
}

// Periodic builds the report for p over the whole list, keeping the last
// limit rows. A negative limit selects DefaultWindow(p); zero keeps all rows.
func Periodic(list []core.Transaction, p Period, limit int) Table {
	if limit < 0 {
		limit = DefaultWindow(p)
	}
	rows := Window(GroupByPeriod(list, p), limit)
	t := Table{Period: p, Rows: make([]TableRow, len(rows))}
	for i, r := range rows {
		t.Rows[i] = TableRow{Row: r, Label: p.Label(r.Key), Net: r.Net()}
	}
	return t
}

// AllPeriodic builds the four reports with their default windows.
func AllPeriodic(list []core.Transaction) []Table {
	tables := make([]Table, 0, len(Periods))
	for _, p := range Periods {
		tables = append(tables, Periodic(list, p, -1))
	}
	return tables
}
