package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DecodeLiteral parses a string-encoded nested structure into Go values
// (string, int64, float64, bool, nil, []any, map[string]any). The corpus
// encodes these payloads as Python-style literals — single-quoted
// strings, True/False/None, tuples — so the decoder accepts that syntax
// as well as plain JSON. It is total: any failure yields (nil, false)
// and never an error or panic.
func DecodeLiteral(s string) (any, bool) {
	p := &literalParser{src: s}
	p.skipSpace()
	v, ok := p.value()
	if !ok {
		return nil, false
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, false // trailing garbage
	}
	return v, true
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *literalParser) value() (any, bool) {
	c, ok := p.peek()
	if !ok {
		return nil, false
	}
	switch {
	case c == '[':
		return p.sequence(']')
	case c == '(':
		return p.sequence(')')
	case c == '{':
		return p.mapping()
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || c == '+' || (c >= '0' && c <= '9') || c == '.':
		return p.number()
	default:
		return p.ident()
	}
}

// sequence parses a list or tuple; both become []any.
func (p *literalParser) sequence(close byte) (any, bool) {
	p.pos++ // opening bracket
	items := []any{}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, false
		}
		if c == close {
			p.pos++
			return items, true
		}
		v, ok := p.value()
		if !ok {
			return nil, false
		}
		items = append(items, v)
		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return nil, false
		}
		switch c {
		case ',':
			p.pos++
		case close:
			// closing handled on next loop
		default:
			return nil, false
		}
	}
}

func (p *literalParser) mapping() (any, bool) {
	p.pos++ // '{'
	m := map[string]any{}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, false
		}
		if c == '}' {
			p.pos++
			return m, true
		}
		key, ok := p.value()
		if !ok {
			return nil, false
		}
		p.skipSpace()
		c, ok = p.peek()
		if !ok || c != ':' {
			return nil, false
		}
		p.pos++
		p.skipSpace()
		val, ok := p.value()
		if !ok {
			return nil, false
		}
		m[mapKey(key)] = val
		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return nil, false
		}
		switch c {
		case ',':
			p.pos++
		case '}':
			// closing handled on next loop
		default:
			return nil, false
		}
	}
}

// mapKey flattens a decoded key to a string; non-string keys are rare in
// the corpus but legal in the literal syntax.
func mapKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

func (p *literalParser) str() (any, bool) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), true
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return nil, false
			}
			esc := p.src[p.pos]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'u':
				if p.pos+4 >= len(p.src) {
					return nil, false
				}
				n, err := strconv.ParseUint(p.src[p.pos+1:p.pos+5], 16, 32)
				if err != nil {
					return nil, false
				}
				b.WriteRune(rune(n))
				p.pos += 4
			default:
				// \', \", \\, \/ and anything else pass through verbatim.
				b.WriteByte(esc)
			}
			p.pos++
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
	return nil, false // unterminated
}

func (p *literalParser) number() (any, bool) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	text := p.src[start:p.pos]
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, true
	}
	return nil, false
}

func (p *literalParser) ident() (any, bool) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			p.pos++
			continue
		}
		break
	}
	switch p.src[start:p.pos] {
	case "True", "true":
		return true, true
	case "False", "false":
		return false, true
	case "None", "null":
		return nil, true
	default:
		return nil, false
	}
}
