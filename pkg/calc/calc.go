// Package calc evaluates arithmetic expressions without handing user text to
// a general-purpose interpreter. Only numeric literals, + - * / ^ and
// parentheses are accepted.
package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrEmpty           = errors.New("empty expression")
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrNotFinite       = errors.New("result is not a finite number")
	ErrTooDeep         = errors.New("expression nested too deeply")
)

const maxDepth = 64

// Eval parses and evaluates expr.
func Eval(expr string) (float64, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(toks) == 0 {
		return 0, ErrEmpty
	}
	p := &parser{toks: toks}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if p.pos < len(p.toks) {
		return 0, p.unexpected()
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	return v, nil
}

// Format renders integral values without a fractional part.
func Format(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type parser struct {
	toks  []token
	pos   int
	depth int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) unexpected() error {
	if t, ok := p.peek(); ok {
		return fmt.Errorf("%w %q at position %d", ErrUnexpectedToken, t.text, t.pos)
	}
	return fmt.Errorf("%w: unexpected end of expression", ErrUnexpectedToken)
}

// expr := term (("+" | "-") term)*
func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || (t.kind != tokPlus && t.kind != tokMinus) {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if t.kind == tokPlus {
			left += right
		} else {
			left -= right
		}
	}
}

// term := unary (("*" | "/") unary)*
func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || (t.kind != tokStar && t.kind != tokSlash) {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		if t.kind == tokStar {
			left *= right
			continue
		}
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		left /= right
	}
}

// unary := ("+" | "-") unary | power
func (p *parser) unary() (float64, error) {
	t, ok := p.peek()
	if ok && (t.kind == tokPlus || t.kind == tokMinus) {
		p.pos++
		if err := p.enter(); err != nil {
			return 0, err
		}
		v, err := p.unary()
		p.depth--
		if err != nil {
			return 0, err
		}
		if t.kind == tokMinus {
			return -v, nil
		}
		return v, nil
	}
	return p.power()
}

// power := primary ("^" unary)?   right-associative, binds tighter than unary minus on its left
func (p *parser) power() (float64, error) {
	base, err := p.primary()
	if err != nil {
		return 0, err
	}
	t, ok := p.peek()
	if !ok || t.kind != tokCaret {
		return base, nil
	}
	p.pos++
	if err := p.enter(); err != nil {
		return 0, err
	}
	exp, err := p.unary()
	p.depth--
	if err != nil {
		return 0, err
	}
	if base == 0 && exp < 0 {
		return 0, ErrDivisionByZero
	}
	return math.Pow(base, exp), nil
}

// primary := number | "(" expr ")"
func (p *parser) primary() (float64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, p.unexpected()
	}
	switch t.kind {
	case tokNumber:
		p.pos++
		return t.value, nil
	case tokLParen:
		p.pos++
		if err := p.enter(); err != nil {
			return 0, err
		}
		v, err := p.expr()
		p.depth--
		if err != nil {
			return 0, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokRParen {
			return 0, p.unexpected()
		}
		p.pos++
		return v, nil
	}
	return 0, p.unexpected()
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return ErrTooDeep
	}
	return nil
}
