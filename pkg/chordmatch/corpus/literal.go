package corpus

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/himanishpuri/chordmatch/pkg/chordmatch/chords"
)

// ErrLiteral is returned for annotation text that is not a valid literal.
var ErrLiteral = errors.New("invalid literal")

// Entry is one key/value pair of a decoded dict literal.
type Entry struct {
	Key   any
	Value any
}

// Dict is a decoded dict literal. Entries keep source order.
type Dict struct {
	Entries []Entry
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Entries)
}

// set stores val under key. A repeated key keeps its first position and
// takes the new value.
func (d *Dict) set(key, val any) {
	switch key.(type) {
	case nil, string, int64, float64, bool:
		for i := range d.Entries {
			if d.Entries[i].Key == key {
				d.Entries[i].Value = val
				return
			}
		}
	}
	d.Entries = append(d.Entries, Entry{Key: key, Value: val})
}

// Sections converts the dict into extractor sections. Non-string values
// become empty sections so they still count towards the section total.
func (d *Dict) Sections() []chords.Section {
	if d == nil {
		return nil
	}
	out := make([]chords.Section, len(d.Entries))
	for i, e := range d.Entries {
		name, ok := e.Key.(string)
		if !ok {
			name = fmt.Sprint(e.Key)
		}
		text, _ := e.Value.(string)
		out[i] = chords.Section{Name: name, Text: text}
	}
	return out
}

// ParseLiteral decodes the literal notation used by the corpus export:
// quoted strings, numbers, None/True/False (and null/true/false), lists,
// tuples, sets and dicts. Lists, tuples and sets decode to []any, dicts to
// *Dict, numbers to int64 or float64.
func ParseLiteral(s string) (any, error) {
	p := &literalParser{src: s}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input")
	}
	return v, nil
}

// ParseSections decodes a section-mapping annotation. Anything that is not a
// dict, including unparseable text, yields nil.
func ParseSections(raw string) *Dict {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := ParseLiteral(raw)
	if err != nil {
		return nil
	}
	d, _ := v.(*Dict)
	return d
}

// ParseStrings decodes a sequence literal into its string items. Non-string
// items are skipped; anything that is not a sequence yields nil.
func ParseStrings(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := ParseLiteral(raw)
	if err != nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrLiteral, p.pos, fmt.Sprintf(format, args...))
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

func (p *literalParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) value() (any, error) {
	switch c := p.peek(); {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '\'' || c == '"':
		return p.stringLiteral()
	case c == '[':
		return p.sequence('[', ']')
	case c == '(':
		return p.sequence('(', ')')
	case c == '{':
		return p.dictOrSet()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.keyword()
	}
}

// stringLiteral reads one string literal plus any adjacent ones, which the source
// notation concatenates.
func (p *literalParser) stringLiteral() (string, error) {
	var b strings.Builder
	for {
		s, err := p.str()
		if err != nil {
			return "", err
		}
		b.WriteString(s)

		save := p.pos
		p.skipSpace()
		if c := p.peek(); c != '\'' && c != '"' {
			p.pos = save
			return b.String(), nil
		}
	}
}

func (p *literalParser) str() (string, error) {
	quote := p.src[p.pos]
	delim := string(quote)
	if strings.HasPrefix(p.src[p.pos:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	p.pos += len(delim)

	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errorf("unterminated string")
		}
		if strings.HasPrefix(p.src[p.pos:], delim) {
			p.pos += len(delim)
			return b.String(), nil
		}
		c := p.src[p.pos]
		if len(delim) == 1 && (c == '\n' || c == '\r') {
			return "", p.errorf("newline in string")
		}
		if c != '\\' {
			_, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteString(p.src[p.pos : p.pos+size])
			p.pos += size
			continue
		}
		if err := p.escape(&b); err != nil {
			return "", err
		}
	}
}

func (p *literalParser) escape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return p.errorf("unterminated escape")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case '\n':
		// line continuation
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case 'x', 'u', 'U':
		n := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
		if p.pos+n > len(p.src) {
			return p.errorf("truncated \\%c escape", c)
		}
		code, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
		if err != nil {
			return p.errorf("bad \\%c escape", c)
		}
		p.pos += n
		b.WriteRune(rune(code))
	default:
		// unknown escapes are kept verbatim
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (p *literalParser) items(closing byte) ([]any, error) {
	out := []any{}
	for {
		p.skipSpace()
		if p.peek() == closing {
			p.pos++
			return out, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
			p.pos++
			return out, nil
		default:
			return nil, p.errorf("expected ',' or %q", closing)
		}
	}
}

func (p *literalParser) sequence(open, closing byte) ([]any, error) {
	p.pos++ // open
	return p.items(closing)
}

func (p *literalParser) dictOrSet() (any, error) {
	p.pos++ // {
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return &Dict{}, nil
	}

	first, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != ':' {
		// set literal
		switch p.peek() {
		case '}':
			p.pos++
			return []any{first}, nil
		case ',':
			p.pos++
			rest, err := p.items('}')
			if err != nil {
				return nil, err
			}
			return append([]any{first}, rest...), nil
		default:
			return nil, p.errorf("expected ':' or ','")
		}
	}

	d := &Dict{}
	key := first
	for {
		p.pos++ // :
		p.skipSpace()
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		d.set(key, val)

		p.skipSpace()
		switch p.peek() {
		case '}':
			p.pos++
			return d, nil
		case ',':
			p.pos++
		default:
			return nil, p.errorf("expected ',' or '}'")
		}

		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return d, nil
		}
		if key, err = p.value(); err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':'")
		}
	}
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '_' || c == 'e' || c == 'E' ||
			((c == '-' || c == '+') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E')) {
			p.pos++
			continue
		}
		break
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errorf("bad number %q", text)
	}
	return f, nil
}

var keywords = map[string]any{
	"None":  nil,
	"null":  nil,
	"True":  true,
	"true":  true,
	"False": false,
	"false": false,
}

func (p *literalParser) keyword() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			p.pos++
			continue
		}
		break
	}
	word := p.src[start:p.pos]
	if v, ok := keywords[word]; ok {
		return v, nil
	}
	p.pos = start
	return nil, p.errorf("unexpected token")
}
