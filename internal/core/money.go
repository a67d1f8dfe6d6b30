// Package core holds the ledger's domain types and their parsing rules.
//
// Amounts are whole Rupiah. Values coming back from the document store are
// decoded permissively: a malformed amount becomes zero and a malformed date
// becomes a missing date, so one bad record never breaks a whole report.
package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amount is a magnitude in whole currency units. The sign of a transaction is
// carried by its Type.
type Amount int64

var idPrinter = message.NewPrinter(language.Indonesian)

// UnmarshalJSON accepts numbers (rounded to whole units) and id-ID formatted
// strings such as "1.250.000". Anything else, including negative or
// out-of-range numbers, decodes as zero.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = 0
			return nil
		}
		*a = ParseAmount(s)
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		*a = 0
		return nil
	}
	*a = wholeUnits(d)
	return nil
}

// ParseAmount reads an amount the way the entry form displays it: dots are
// thousands separators and a comma marks the decimals. Unparseable or
// negative input yields zero.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return wholeUnits(d)
}

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// wholeUnits rounds d half away from zero. Negative values and values past
// the int64 range are not magnitudes and become zero.
func wholeUnits(d decimal.Decimal) Amount {
	d = d.Round(0)
	if d.IsNegative() || d.GreaterThan(maxAmount) {
		return 0
	}
	return Amount(d.IntPart())
}

// FormatThousands renders n with id-ID digit grouping, e.g. 1.250.000.
func FormatThousands(n int64) string {
	return idPrinter.Sprintf("%d", n)
}

// FormatIDR renders n as Rupiah, e.g. "Rp 1.250.000" or "-Rp 30.000".
func FormatIDR(n int64) string {
	if n < 0 {
		return "-Rp " + FormatThousands(-n)
	}
	return "Rp " + FormatThousands(n)
}

// String implements fmt.Stringer.
func (a Amount) String() string {
	return FormatIDR(int64(a))
}
