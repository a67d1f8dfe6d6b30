package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"lapkeu/internal/core"
)

// Period selects the bucket size of a periodic report.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// Periods lists every period in report order.
var Periods = []Period{Daily, Weekly, Monthly, Yearly}

// ParsePeriod accepts a period name in any case.
func ParsePeriod(s string) (Period, bool) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return p, true
	}
	return "", false
}

// Key returns the bucket key of d for this period, or "" for a missing date.
func (p Period) Key(d core.Date) string {
	switch p {
	case Daily:
		return DayKey(d)
	case Weekly:
		return ISOWeekKey(d)
	case Monthly:
		return MonthKey(d)
	case Yearly:
		return YearKey(d)
	}
	return ""
}

// Label renders a bucket key for display. Month keys get Indonesian month
// names; other keys are shown as is.
func (p Period) Label(key string) string {
	if p == Monthly {
		return core.MonthLabel(key)
	}
	return key
}

// DefaultWindow is how many of the most recent rows a report shows by
// default. Zero means every row.
func DefaultWindow(p Period) int {
	switch p {
	case Daily:
		return 30
	case Weekly:
		return 20
	case Monthly:
		return 24
	}
	return 0
}

// DayKey is the date itself, YYYY-MM-DD.
func DayKey(d core.Date) string {
	return d.String()
}

// MonthKey is the first seven characters of the date, YYYY-MM.
func MonthKey(d core.Date) string {
	s := d.String()
	if len(s) < 7 {
		return ""
	}
	return s[:7]
}

// YearKey is the first four characters of the date, YYYY.
func YearKey(d core.Date) string {
	s := d.String()
	if len(s) < 4 {
		return ""
	}
	return s[:4]
}

// ISOWeekKey returns the ISO-8601 week of d as YYYY-Www. The year is the
// year of the week's Thursday, which differs from the calendar year around
// New Year.
func ISOWeekKey(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	thursday := day.AddDate(0, 0, 3-mondayIndex(day))
	year := thursday.Year()

	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	firstThursday := jan4.AddDate(0, 0, 3-mondayIndex(jan4))

	weeks := thursday.Sub(firstThursday).Hours() / 24 / 7
	return fmt.Sprintf("%d-W%02d", year, 1+int(math.Round(weeks)))
}

// mondayIndex numbers weekdays Monday=0 through Sunday=6.
func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
