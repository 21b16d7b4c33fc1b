package calc

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	text  string
	value float64
	pos   int
}

func tokenize(s string) ([]token, error) {
	var out []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || c == '.':
			start := i
			i = scanNumber(s, i)
			text := s[start:i]
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w %q at position %d", ErrUnexpectedToken, text, start)
			}
			out = append(out, token{kind: tokNumber, text: text, value: v, pos: start})
		case c == '*' && i+1 < len(s) && s[i+1] == '*':
			out = append(out, token{kind: tokCaret, text: "**", pos: i})
			i += 2
		default:
			kind, ok := operators[c]
			if !ok {
				return nil, fmt.Errorf("%w %q at position %d", ErrUnexpectedToken, string(rune(c)), i)
			}
			out = append(out, token{kind: kind, text: string(c), pos: i})
			i++
		}
	}
	return out, nil
}

var operators = map[byte]tokenKind{
	'+': tokPlus,
	'-': tokMinus,
	'*': tokStar,
	'/': tokSlash,
	'^': tokCaret,
	'(': tokLParen,
	')': tokRParen,
}

func scanNumber(s string, i int) int {
	for i < len(s) && (isDigit(s[i]) || s[i] == '.') {
		i++
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			return j
		}
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
