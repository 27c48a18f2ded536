package nestfile

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// parseLiteral parses a key literal: an integer, a float, True/False, a
// quoted string or a (possibly nested) tuple of those. The result carries the
// canonical literal, so "(1,2)" and "(1, 2)" parse to the same key.
func parseLiteral(s string) (Key, error) {
	p := literalParser{s: s}
	k, err := p.value()
	if err != nil {
		return Key{}, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return Key{}, p.errorf("unexpected trailing input")
	}
	return k, nil
}

type literalParser struct {
	s   string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return errors.Newf("invalid literal %q at offset %d: %s", p.s, p.pos, fmt.Sprintf(format, args...))
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *literalParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *literalParser) value() (Key, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == 0:
		return Key{}, p.errorf("unexpected end of input")
	case c == '(':
		elems, err := p.tuple()
		if err != nil {
			return Key{}, err
		}
		return TupleKey(elems...), nil
	case c == '\'' || c == '"':
		s, err := p.str()
		if err != nil {
			return Key{}, err
		}
		return TextKey(s), nil
	case c == 'T' || c == 'F':
		return p.boolean()
	default:
		return p.number()
	}
}

func (p *literalParser) tuple() ([]Key, error) {
	p.pos++ // (
	var elems []Key
	for {
		p.skipSpace()
		if p.peek() == ')' {
			if len(elems) == 1 {
				return nil, p.errorf("one-element tuple needs a trailing comma")
			}
			p.pos++
			return elems, nil
		}
		e, err := p.value()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == ')' {
				p.pos++
				return elems, nil
			}
		case ')':
			if len(elems) == 1 {
				return nil, p.errorf("one-element tuple needs a trailing comma")
			}
			p.pos++
			return elems, nil
		default:
			return nil, p.errorf("expected , or )")
		}
	}
}

func (p *literalParser) str() (string, error) {
	quote := p.s[p.pos]
	p.pos++
	var buf strings.Builder
	for {
		if p.pos >= len(p.s) {
			return "", p.errorf("unterminated string")
		}
		if p.s[p.pos] == quote {
			p.pos++
			return buf.String(), nil
		}
		r, _, tail, err := strconv.UnquoteChar(p.s[p.pos:], quote)
		if err != nil {
			return "", p.errorf("bad escape")
		}
		p.pos = len(p.s) - len(tail)
		buf.WriteRune(r)
	}
}

func (p *literalParser) boolean() (Key, error) {
	rest := p.s[p.pos:]
	switch {
	case strings.HasPrefix(rest, "True"):
		p.pos += 4
		return BoolKey(true), nil
	case strings.HasPrefix(rest, "False"):
		p.pos += 5
		return BoolKey(false), nil
	default:
		return Key{}, p.errorf("unknown name")
	}
}

func (p *literalParser) number() (Key, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	isFloat := false
	digits := 0
scan:
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			isFloat = true
		case c == 'e' || c == 'E':
			isFloat = true
			if n := p.pos + 1; n < len(p.s) && (p.s[n] == '-' || p.s[n] == '+') {
				p.pos++
			}
		default:
			break scan
		}
		p.pos++
	}
	if digits == 0 {
		return Key{}, p.errorf("expected a literal")
	}
	text := p.s[start:p.pos]
	if isFloat {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Key{}, p.errorf("bad float %q", text)
		}
		return FloatKey(v), nil
	}
	v, err := strconv.ParseInt(strings.TrimPrefix(text, "+"), 10, 64)
	if err != nil {
		return Key{}, p.errorf("bad int %q", text)
	}
	return IntKey(v), nil
}

// quoteLiteral quotes s the way Python's repr() does for str.
func quoteLiteral(s string) string {
	quote := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		quote = '"'
	}
	var buf strings.Builder
	buf.WriteByte(quote)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(&buf, `\x%02x`, s[i-1])
		case r == '\\' || r == rune(quote):
			buf.WriteByte('\\')
			buf.WriteRune(r)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x100 && !unicode.IsPrint(r):
			fmt.Fprintf(&buf, `\x%02x`, r)
		case !unicode.IsPrint(r) && r <= 0xFFFF:
			fmt.Fprintf(&buf, `\u%04x`, r)
		case !unicode.IsPrint(r):
			fmt.Fprintf(&buf, `\U%08x`, r)
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte(quote)
	return buf.String()
}
