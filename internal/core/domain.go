package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Type = "Income"
	Expense Type = "Expense"
)

// DateLayout is the wire format of a transaction date.
const DateLayout = "2006-01-02"

// UncategorizedSector is the display label for a blank sector.
const UncategorizedSector = "Uncategorized"

type (
	// Type tells whether a transaction adds to or subtracts from the balance.
	Type string

	// Date is a calendar day at midnight UTC. The zero value means the date
	// is missing.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID     string `json:"id"`
		Type   Type   `json:"type"`
		Note   string `json:"note"`
		Sector string `json:"sector"`
		Amount Amount `json:"amount"`
		Date   Date   `json:"date"`
	}
)

// legacyTypes maps the labels written by older clients onto the canonical types.
var legacyTypes = map[string]Type{
	"income":      Income,
	"expense":     Expense,
	"pemasukan":   Income,
	"pengeluaran": Expense,
}

// ParseType resolves a type label, accepting the legacy Indonesian labels in
// any case. Unknown labels return false.
func ParseType(s string) (Type, bool) {
	t, ok := legacyTypes[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// Valid reports whether t is Income or Expense.
func (t Type) Valid() bool {
	return t == Income || t == Expense
}

// Sign returns +1 for Income, -1 for Expense and 0 for anything else.
func (t Type) Sign() int64 {
	switch t {
	case Income:
		return 1
	case Expense:
		return -1
	default:
		return 0
	}
}

func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Non-string values decode as an unknown type.
		*t = ""
		return nil
	}
	if known, ok := ParseType(s); ok {
		*t = known
		return nil
	}
	*t = Type(strings.TrimSpace(s))
	return nil
}

// NewDate returns the calendar day y-m-d.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate reads the leading YYYY-MM-DD of s, so full ISO timestamps are
// accepted too.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q", ErrValidation, s)
	}
	return Date{Time: t}, nil
}

// String returns YYYY-MM-DD, or "" for a missing date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON never fails: anything that is not a parseable date string
// decodes as a missing date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

// Validate checks the invariants of a stored transaction.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if t.Amount <= 0 {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return nil
}

// SignedAmount is +amount for Income, -amount for Expense and 0 otherwise.
func (t Transaction) SignedAmount() int64 {
	return t.Type.Sign() * int64(t.Amount)
}

// SectorLabel returns the trimmed sector or UncategorizedSector when blank.
func SectorLabel(sector string) string {
	if s := strings.TrimSpace(sector); s != "" {
		return s
	}
	return UncategorizedSector
}

var indonesianMonths = [...]string{
	"", "Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthLabel renders a "YYYY-MM" key as "Januari 2025". Keys that do not
// parse are returned unchanged.
func MonthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%s %d", indonesianMonths[t.Month()], t.Year())
}
