package calc

import (
	"strings"
	"unicode/utf8"
)

// Key labels with special meaning on the keypad.
const (
	KeyClear     = "C"
	KeyBackspace = "⌫"
	KeyEquals    = "="
)

// Pad is the keypad state: the raw expression typed so far. The zero value
// is not ready for use; call NewPad.
type Pad struct {
	expr string
}

func NewPad() *Pad {
	return &Pad{expr: "0"}
}

// Push applies one key press. Evaluation failures reset the pad to "0".
func (p *Pad) Push(key string) {
	switch key {
	case KeyClear:
		p.expr = "0"
		return
	case KeyBackspace:
		if utf8.RuneCountInString(p.expr) <= 1 {
			p.expr = "0"
			return
		}
		_, size := utf8.DecodeLastRuneInString(p.expr)
		p.expr = p.expr[:len(p.expr)-size]
		return
	case KeyEquals:
		v, err := Eval(p.expr)
		if err != nil {
			p.expr = "0"
			return
		}
		p.expr = v.String()
		return
	case "×":
		key = "*"
	case "÷":
		key = "/"
	}
	if p.expr == "0" && isDigits(key) {
		p.expr = key
		return
	}
	p.expr += key
}

// Expr is the raw expression.
func (p *Pad) Expr() string { return p.expr }

// Display is the expression with thousands separators.
func (p *Pad) Display() string { return Format(p.expr) }

// Format inserts ',' thousands separators into the integer part of every
// number in expr. Fraction digits are left alone.
func Format(expr string) string {
	var b strings.Builder
	for i := 0; i < len(expr); {
		c := expr[i]
		if c < '0' || c > '9' {
			b.WriteByte(c)
			i++
			// digits after a decimal point belong to a fraction
			if c == '.' {
				for i < len(expr) && expr[i] >= '0' && expr[i] <= '9' {
					b.WriteByte(expr[i])
					i++
				}
			}
			continue
		}
		j := i
		for j < len(expr) && expr[j] >= '0' && expr[j] <= '9' {
			j++
		}
		b.WriteString(group(expr[i:j]))
		i = j
	}
	return b.String()
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
