// Package calc evaluates the arithmetic typed on the entry form's calculator.
//
// The grammar is deliberately small:
//
//	expr   := term (('+' | '-') term)*
//	term   := factor (('*' | '/') factor)*
//	factor := ('+' | '-') factor | number | '(' expr ')'
//
// Numbers may carry ',' thousands separators as shown on the display and a
// '.' decimal point. Arithmetic is exact decimal arithmetic.
package calc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrSyntax         = errors.New("syntax error")
	ErrDivisionByZero = errors.New("division by zero")
)

// maxDepth bounds parenthesis nesting.
const maxDepth = 64

// Eval parses and evaluates expr.
func Eval(expr string) (decimal.Decimal, error) {
	p := &parser{src: expr}
	p.skipSpace()
	if p.eof() {
		return decimal.Zero, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	v, err := p.expr(0)
	if err != nil {
		return decimal.Zero, err
	}
	p.skipSpace()
	if !p.eof() {
		return decimal.Zero, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, p.src[p.pos], p.pos)
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) skipSpace() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// peek returns the next non-space byte, or 0 at the end of input.
func (p *parser) peek() byte {
	p.skipSpace()
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expr(depth int) (decimal.Decimal, error) {
	left, err := p.term(depth)
	if err != nil {
		return decimal.Zero, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.term(depth)
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Add(right)
		case '-':
			p.pos++
			right, err := p.term(depth)
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Sub(right)
		default:
			return left, nil
		}
	}
}

func (p *parser) term(depth int) (decimal.Decimal, error) {
	left, err := p.factor(depth)
	if err != nil {
		return decimal.Zero, err
	}
	for {
		switch op := p.peek(); op {
		case '*', '/':
			p.pos++
			right, err := p.factor(depth)
			if err != nil {
				return decimal.Zero, err
			}
			if op == '*' {
				left = left.Mul(right)
				continue
			}
			if right.IsZero() {
				return decimal.Zero, ErrDivisionByZero
			}
			left = left.Div(right)
		default:
			return left, nil
		}
	}
}

func (p *parser) factor(depth int) (decimal.Decimal, error) {
	// Any run of signs folds into one; only parentheses nest.
	neg := false
	for c := p.peek(); c == '+' || c == '-'; c = p.peek() {
		if c == '-' {
			neg = !neg
		}
		p.pos++
	}
	v, err := p.primary(depth)
	if neg {
		v = v.Neg()
	}
	return v, err
}

func (p *parser) primary(depth int) (decimal.Decimal, error) {
	switch c := p.peek(); {
	case c == '(':
		if depth >= maxDepth {
			return decimal.Zero, fmt.Errorf("%w: nesting too deep", ErrSyntax)
		}
		p.pos++
		v, err := p.expr(depth + 1)
		if err != nil {
			return decimal.Zero, err
		}
		if p.peek() != ')' {
			return decimal.Zero, fmt.Errorf("%w: missing ')'", ErrSyntax)
		}
		p.pos++
		return v, nil
	case c >= '0' && c <= '9' || c == '.':
		return p.number()
	case c == 0:
		return decimal.Zero, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	default:
		return decimal.Zero, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, c, p.pos)
	}
}

func (p *parser) number() (decimal.Decimal, error) {
	start := p.pos
	var b strings.Builder
	dot := false
loop:
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == ',' && !dot:
			// thousands separator
		case c == '.' && !dot:
			dot = true
			b.WriteByte(c)
		default:
			break loop
		}
		p.pos++
	}
	lit := b.String()
	if lit == "" || lit == "." {
		return decimal.Zero, fmt.Errorf("%w: bad number at %d", ErrSyntax, start)
	}
	d, err := decimal.NewFromString(lit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: bad number %q", ErrSyntax, p.src[start:p.pos])
	}
	return d, nil
}
