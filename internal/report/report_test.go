package report

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lapkeu/internal/core"
)

func day(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sample() []core.Transaction {
	return []core.Transaction{
		{ID: "a", Type: core.Income, Amount: 100000, Date: day("2025-01-05")},
		{ID: "b", Type: core.Expense, Amount: 30000, Date: day("2025-01-10")},
		{ID: "c", Type: core.Income, Amount: 50000, Date: day("2025-02-01")},
	}
}

func TestISOWeekKey_Boundaries(t *testing.T) {
	cases := map[string]string{
		"2025-01-01": "2025-W01",
		"2024-12-31": "2025-W01",
		"2025-12-29": "2026-W01",
		"2020-12-31": "2020-W53",
		"2021-01-03": "2020-W53",
		"2021-01-04": "2021-W01",
		"2016-01-01": "2015-W53",
		"2008-12-29": "2009-W01",
		"2010-01-03": "2009-W53",
		"2025-06-15": "2025-W24",
	}
	for in, want := range cases {
		assert.Equal(t, want, ISOWeekKey(day(in)), in)
	}
	assert.Empty(t, ISOWeekKey(core.Date{}))
}

func TestISOWeekKey_MatchesStandardLibrary(t *testing.T) {
	start := time.Date(1998, time.December, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2032, time.February, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		y, w := d.ISOWeek()
		want := fmt.Sprintf("%d-W%02d", y, w)
		if got := ISOWeekKey(core.DateOf(d)); got != want {
			t.Fatalf("ISOWeekKey(%s) = %s, want %s", d.Format(core.DateLayout), got, want)
		}
	}
}

func TestBucketKeys(t *testing.T) {
	d := day("2025-03-09")
	assert.Equal(t, "2025-03-09", DayKey(d))
	assert.Equal(t, "2025-03", MonthKey(d))
	assert.Equal(t, "2025", YearKey(d))
	assert.Empty(t, MonthKey(core.Date{}))
	assert.Empty(t, YearKey(core.Date{}))
}

func TestComputeSums(t *testing.T) {
	assert.Equal(t, Sums{}, ComputeSums(nil))

	s := ComputeSums(sample())
	assert.Equal(t, Sums{Income: 150000, Expense: 30000, Balance: 120000}, s)
	assert.Equal(t, s.Income-s.Expense, s.Balance)
}

func TestComputeSums_MissingDateStillCounts(t *testing.T) {
	list := append(sample(), core.Transaction{Type: core.Expense, Amount: 20000})
	s := ComputeSums(list)
	assert.Equal(t, int64(50000), s.Expense)

	m := MonthlyTotals(list)
	assert.Equal(t, []int64{30000, 0}, m.Expense)
}

func TestComputeSums_ExpenseBeyondIncome(t *testing.T) {
	s := ComputeSums([]core.Transaction{{Type: core.Expense, Amount: 30000, Date: day("2025-01-01")}})
	assert.Equal(t, int64(-30000), s.Balance)
}

func TestApplyMonthFilter(t *testing.T) {
	list := sample()
	got := ApplyMonthFilter(list, "2025-01")
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	assert.Equal(t, list, ApplyMonthFilter(list, AllMonths))
	assert.Empty(t, ApplyMonthFilter(list, "1999-01"))
}

func TestListMonths(t *testing.T) {
	list := append(sample(),
		core.Transaction{Type: core.Income, Amount: 1},
		core.Transaction{Type: core.Income, Amount: 1, Date: day("2024-11-30")},
	)
	assert.Equal(t, []string{"2025-02", "2025-01", "2024-11"}, ListMonths(list))
	assert.Empty(t, ListMonths(nil))
}

func TestCumulativeBalance(t *testing.T) {
	list := append(sample(), core.Transaction{Type: core.Expense, Amount: 10000, Date: day("2025-01-05")})
	s := CumulativeBalance(list)
	assert.Equal(t, []string{"2025-01-05", "2025-01-10", "2025-02-01"}, s.Dates)
	assert.Equal(t, []int64{90000, 60000, 110000}, s.Values)
	assert.Equal(t, ComputeSums(list).Balance, s.Values[len(s.Values)-1])

	empty := CumulativeBalance(nil)
	assert.Empty(t, empty.Dates)
	assert.Empty(t, empty.Values)
}

func TestMonthlyTotals(t *testing.T) {
	m := MonthlyTotals(sample())
	assert.Equal(t, []string{"2025-01", "2025-02"}, m.Months)
	assert.Equal(t, []string{"Januari 2025", "Februari 2025"}, m.Labels)
	assert.Equal(t, []int64{100000, 50000}, m.Income)
	assert.Equal(t, []int64{30000, 0}, m.Expense)
	assert.Equal(t, []int64{70000, 50000}, m.Net)
}

func TestMonthlyTotals_PartitionsSums(t *testing.T) {
	list := []core.Transaction{
		{Type: core.Income, Amount: 7, Date: day("2023-12-31")},
		{Type: core.Expense, Amount: 3, Date: day("2024-01-01")},
		{Type: core.Income, Amount: 11, Date: day("2024-01-15")},
		{Type: core.Expense, Amount: 5, Date: day("2024-03-02")},
	}
	m := MonthlyTotals(list)
	s := ComputeSums(list)
	var in, out int64
	for i := range m.Months {
		in += m.Income[i]
		out += m.Expense[i]
	}
	assert.Equal(t, s.Income, in)
	assert.Equal(t, s.Expense, out)
}

func TestCompositionBy(t *testing.T) {
	list := []core.Transaction{
		{Type: core.Expense, Amount: 10, Sector: "Food"},
		{Type: core.Expense, Amount: 5, Sector: " Food "},
		{Type: core.Expense, Amount: 7},
		{Type: core.Income, Amount: 100, Sector: "Salary"},
		{Type: "Transfer", Amount: 99, Sector: "Food"},
	}
	c := SectorComposition(list)
	assert.Equal(t, map[string]int64{"Food": 15, core.UncategorizedSector: 7}, c.Expense)
	assert.Equal(t, map[string]int64{"Salary": 100}, c.Income)
}

func TestCompositionBy_AllBlank(t *testing.T) {
	list := []core.Transaction{
		{Type: core.Expense, Amount: 10},
		{Type: core.Expense, Amount: 5, Sector: "   "},
	}
	c := SectorComposition(list)
	assert.Equal(t, map[string]int64{core.UncategorizedSector: 15}, c.Expense)
	assert.Empty(t, c.Income)
}

func TestShare(t *testing.T) {
	assert.Equal(t, 0.0, Share(0, 0))
	assert.Equal(t, 75.0, Share(75, 25))
	assert.Equal(t, 100.0, Share(10, 0))

	sh := ShareOf(Sums{Income: 150000, Expense: 50000})
	assert.Equal(t, 75.0, sh.Income)
	assert.Equal(t, 25.0, sh.Expense)
	assert.Equal(t, TwoWayShare{}, ShareOf(Sums{}))
}

func TestGroupByPeriod(t *testing.T) {
	list := append(sample(),
		core.Transaction{Type: core.Expense, Amount: 1000, Date: day("2024-12-31")},
		core.Transaction{Type: core.Expense, Amount: 1},
	)

	weekly := GroupByPeriod(list, Weekly)
	keys := make([]string, len(weekly))
	for i, r := range weekly {
		keys[i] = r.Key
	}
	assert.Equal(t, []string{"2025-W01", "2025-W02", "2025-W05"}, keys)
	assert.Equal(t, Row{Key: "2025-W01", Income: 100000, Expense: 1000}, weekly[0])
	assert.Equal(t, int64(99000), weekly[0].Net())

	yearly := GroupByPeriod(list, Yearly)
	assert.Equal(t, []Row{
		{Key: "2024", Expense: 1000},
		{Key: "2025", Income: 150000, Expense: 30000},
	}, yearly)

	daily := GroupByPeriod(list, Daily)
	require.Len(t, daily, 4)
	assert.Equal(t, "2024-12-31", daily[0].Key)
}

func TestWindow(t *testing.T) {
	rows := []Row{{Key: "1"}, {Key: "2"}, {Key: "3"}}
	assert.Equal(t, rows, Window(rows, 0))
	assert.Equal(t, rows, Window(rows, 10))
	assert.Equal(t, []Row{{Key: "2"}, {Key: "3"}}, Window(rows, 2))
}

func TestPeriodic_DefaultWindow(t *testing.T) {
	var list []core.Transaction
	start := day("2025-01-01")
	for i := 0; i < 45; i++ {
		list = append(list, core.Transaction{Type: core.Income, Amount: 1, Date: core.DateOf(start.AddDate(0, 0, i))})
	}
	tbl := Periodic(list, Daily, -1)
	require.Len(t, tbl.Rows, 30)
	assert.Equal(t, "2025-02-14", tbl.Rows[29].Key)

	all := Periodic(list, Daily, 0)
	assert.Len(t, all.Rows, 45)

	monthly := Periodic(list, Monthly, -1)
	require.Len(t, monthly.Rows, 2)
	assert.Equal(t, "Januari 2025", monthly.Rows[0].Label)
	assert.Equal(t, int64(31), monthly.Rows[0].Net)

	tables := AllPeriodic(list)
	require.Len(t, tables, 4)
	assert.Equal(t, Yearly, tables[3].Period)
}

func TestAnalyze(t *testing.T) {
	a := Analyze(sample(), "2025-01")
	assert.Equal(t, Sums{Income: 100000, Expense: 30000, Balance: 70000}, a.Sums)
	assert.Equal(t, []string{"2025-01-05", "2025-01-10"}, a.Balance.Dates)
	assert.Equal(t, []string{"2025-01"}, a.Monthly.Months)

	s := Summarize(sample(), "2025-01")
	assert.Equal(t, []string{"2025-02", "2025-01"}, s.Months)
	assert.Equal(t, int64(70000), s.Balance)
}

func TestPure(t *testing.T) {
	list := sample()
	before := append([]core.Transaction(nil), list...)

	first := Analyze(list, AllMonths)
	second := Analyze(list, AllMonths)
	assert.Equal(t, first, second)
	assert.Equal(t, AllPeriodic(list), AllPeriodic(list))
	assert.Equal(t, before, list)
}

func TestParsePeriod(t *testing.T) {
	p, ok := ParsePeriod(" Weekly ")
	assert.True(t, ok)
	assert.Equal(t, Weekly, p)
	_, ok = ParsePeriod("hourly")
	assert.False(t, ok)
}
