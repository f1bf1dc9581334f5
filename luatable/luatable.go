// Package luatable implements a schema-less decoder for the Lua-style
// table literal language used by DCS mission and dictionary files:
// nested {} tables, quoted and long-bracket strings, numbers, booleans,
// nil, ["key"] = value and bare-identifier-key forms, and -- / --[[ ]]
// comments.
//
// The decoder is a total function: malformed input yields a best-effort
// partial tree (at worst an empty table) rather than an error, because
// archives in the wild contain trailing garbage and unknown pragmas the
// extractor must tolerate.
//
// Known limitation: comments are stripped in a lexical pre-pass. The
// stripper skips over quoted and long-bracket strings, but a pathological
// literal that opens a quote inside a stripped comment can still confuse
// it. The mission format does not exercise this case.
package luatable

import (
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindTable
)

// Value is one node of a decoded tree. Exactly one variant field is
// meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Bool bool
	Num  float64
	Str  string
	Seq  []*Value
	Tab  *Table
}

// Key is a table key: either an integer or a string.
type Key struct {
	Int   int
	Str   string
	IsInt bool
}

// IntKey builds an integer table key.
func IntKey(i int) Key { return Key{Int: i, IsInt: true} }

// StrKey builds a string table key.
func StrKey(s string) Key { return Key{Str: s} }

// Table is a decoded table with mixed string/integer keys in insertion
// order.
type Table struct {
	keys    []Key
	entries map[Key]*Value
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[Key]*Value)}
}

// Set stores a value under key, appending the key on first insertion.
func (t *Table) Set(k Key, v *Value) {
	if _, ok := t.entries[k]; !ok {
		t.keys = append(t.keys, k)
	}
	t.entries[k] = v
}

// Get returns the value stored under key.
func (t *Table) Get(k Key) (*Value, bool) {
	v, ok := t.entries[k]
	return v, ok
}

// Keys returns all keys in insertion order.
func (t *Table) Keys() []Key { return t.keys }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.keys) }

// ---------------------------------------------------------------------------
// Value accessors
// ---------------------------------------------------------------------------

// Nil is the shared nil value.
var Nil = &Value{Kind: KindNil}

// NewString wraps a string scalar.
func NewString(s string) *Value { return &Value{Kind: KindString, Str: s} }

// NewNumber wraps a number scalar.
func NewNumber(n float64) *Value { return &Value{Kind: KindNumber, Num: n} }

// NewBool wraps a boolean scalar.
func NewBool(b bool) *Value { return &Value{Kind: KindBool, Bool: b} }

// NewTableValue wraps an empty table.
func NewTableValue() *Value { return &Value{Kind: KindTable, Tab: NewTable()} }

// IsNil reports whether v is absent or the nil value.
func (v *Value) IsNil() bool { return v == nil || v.Kind == KindNil }

// AsString returns the string form of a string scalar.
func (v *Value) AsString() (string, bool) {
	if v == nil || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// Field returns the value stored under a string key, or nil when v is
// not a table or the key is absent. Safe to chain on nil receivers.
func (v *Value) Field(name string) *Value {
	if v == nil || v.Kind != KindTable {
		return nil
	}
	if e, ok := v.Tab.Get(StrKey(name)); ok {
		return e
	}
	return nil
}

// FieldString returns the string stored under a string key.
func (v *Value) FieldString(name string) (string, bool) {
	return v.Field(name).AsString()
}

// Index returns the 1-based element i of a sequence or an integer-keyed
// table entry, or nil.
func (v *Value) Index(i int) *Value {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case KindSequence:
		if i >= 1 && i <= len(v.Seq) {
			return v.Seq[i-1]
		}
	case KindTable:
		if e, ok := v.Tab.Get(IntKey(i)); ok {
			return e
		}
	}
	return nil
}

// Elems returns the positional elements of v: the sequence items, or
// the integer-keyed table entries in ascending key order. String-keyed
// entries are ignored.
func (v *Value) Elems() []*Value {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case KindSequence:
		return v.Seq
	case KindTable:
		var ints []int
		for _, k := range v.Tab.keys {
			if k.IsInt {
				ints = append(ints, k.Int)
			}
		}
		sort.Ints(ints)
		out := make([]*Value, 0, len(ints))
		for _, i := range ints {
			e, _ := v.Tab.Get(IntKey(i))
			out = append(out, e)
		}
		return out
	}
	return nil
}

// StringKeys returns the string keys of a table in insertion order.
func (v *Value) StringKeys() []string {
	if v == nil || v.Kind != KindTable {
		return nil
	}
	var out []string
	for _, k := range v.Tab.keys {
		if !k.IsInt {
			out = append(out, k.Str)
		}
	}
	return out
}

// Len returns the number of positional elements or table entries.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.Kind {
	case KindSequence:
		return len(v.Seq)
	case KindTable:
		return v.Tab.Len()
	}
	return 0
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// Decode parses a table-language text blob into a generic tree. The
// root is the table literal found after an optional `return` keyword or
// `<ident> =` assignment. Malformed input decodes to an empty table.
func Decode(text string) *Value {
	text = strings.TrimPrefix(text, "\ufeff")
	text = stripComments(text)
	text = strings.TrimSpace(text)

	// Isolate the top-level table literal.
	if rest, ok := strings.CutPrefix(text, "return"); ok && (rest == "" || !isIdentChar(rest[0])) {
		text = strings.TrimSpace(rest)
	} else if i := identAssignLen(text); i > 0 {
		text = strings.TrimSpace(text[i:])
	}

	if !strings.HasPrefix(text, "{") {
		return NewTableValue()
	}

	p := &parser{src: text}
	v := p.parseTable()
	if v == nil {
		return NewTableValue()
	}
	return v
}

// identAssignLen returns the length of a leading `<ident> =` prefix
// (including the '='), or 0 when text does not start with one.
func identAssignLen(text string) int {
	i := 0
	for i < len(text) && (isIdentChar(text[i]) || text[i] == '.') {
		i++
	}
	if i == 0 {
		return 0
	}
	j := i
	for j < len(text) && (text[j] == ' ' || text[j] == '\t' || text[j] == '\r' || text[j] == '\n') {
		j++
	}
	if j < len(text) && text[j] == '=' && (j+1 >= len(text) || text[j+1] != '=') {
		return j + 1
	}
	return 0
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// stripComments removes --[[ ]] block comments and -- line comments,
// skipping over quoted and long-bracket strings so comment markers
// inside literals survive.
func stripComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '"' || c == '\'':
			// Copy the quoted string verbatim.
			quote := c
			b.WriteByte(c)
			i++
			for i < len(text) {
				if text[i] == '\\' && i+1 < len(text) {
					b.WriteByte(text[i])
					b.WriteByte(text[i+1])
					i += 2
					continue
				}
				b.WriteByte(text[i])
				if text[i] == quote {
					i++
					break
				}
				i++
			}
		case c == '[' && longBracketLevel(text, i) >= 0:
			// Copy a long-bracket string verbatim.
			level := longBracketLevel(text, i)
			end := findLongClose(text, i+level+2, level)
			b.WriteString(text[i:end])
			i = end
		case c == '-' && i+1 < len(text) && text[i+1] == '-':
			// Block or line comment.
			if level := longBracketLevel(text, i+2); level >= 0 {
				i = findLongClose(text, i+2+level+2, level)
				continue
			}
			for i < len(text) && text[i] != '\n' {
				i++
			}
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// longBracketLevel reports the equal-sign count of a long-bracket opener
// `[=*[` starting at i, or -1 when there is none.
func longBracketLevel(text string, i int) int {
	if i >= len(text) || text[i] != '[' {
		return -1
	}
	j := i + 1
	for j < len(text) && text[j] == '=' {
		j++
	}
	if j < len(text) && text[j] == '[' {
		return j - i - 1
	}
	return -1
}

// findLongClose returns the index just past the `]=*]` closer matching
// the given level, or len(text) when unterminated.
func findLongClose(text string, from, level int) int {
	closer := "]" + strings.Repeat("=", level) + "]"
	if idx := strings.Index(text[from:], closer); idx >= 0 {
		return from + idx + len(closer)
	}
	return len(text)
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

// entry is one scanned table entry before the sequence/table
// reconciliation pass.
type entry struct {
	key    Key
	hasKey bool
	val    *Value
}

// parseTable scans key/value entries between braces. Trailing commas
// are legal, unknown tokens are skipped.
func (p *parser) parseTable() *Value {
	if p.peek() != '{' {
		return nil
	}
	p.pos++

	var entries []entry
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		c := p.peek()
		if c == '}' {
			p.pos++
			break
		}
		if c == ',' || c == ';' {
			p.pos++
			continue
		}

		if c == '[' && longBracketLevel(p.src, p.pos) < 0 {
			// Bracketed key: ["name"] = v, [7] = v, ["1"] = v.
			k, ok := p.parseBracketKey()
			if !ok {
				p.pos++
				continue
			}
			p.skipSpace()
			if p.peek() != '=' {
				continue
			}
			p.pos++
			p.skipSpace()
			v := p.parseValue()
			entries = append(entries, entry{key: k, hasKey: true, val: v})
			continue
		}

		if isIdentStart(c) {
			start := p.pos
			tok := p.scanIdentPath()
			p.skipSpace()
			if p.peek() == '=' && (p.pos+1 >= len(p.src) || p.src[p.pos+1] != '=') {
				// Bare-identifier key.
				p.pos++
				p.skipSpace()
				v := p.parseValue()
				entries = append(entries, entry{key: StrKey(tok), hasKey: true, val: v})
				continue
			}
			// Positional bare token (true/false/nil/enum path).
			p.pos = start
			entries = append(entries, entry{val: p.parseValue()})
			continue
		}

		if c == '"' || c == '\'' || c == '{' || c == '-' || c == '.' || isDigit(c) ||
			longBracketLevel(p.src, p.pos) >= 0 {
			entries = append(entries, entry{val: p.parseValue()})
			continue
		}

		// Unknown token: skip a byte to stay total.
		p.pos++
	}

	return reconcile(entries)
}

// reconcile applies the sequence/table rule: a table collapses to a
// sequence only when every key is a contiguous 1-based integer run and
// no string key is present. Positional items take their 1-based
// positions as keys.
func reconcile(entries []entry) *Value {
	tab := NewTable()
	next := 1
	stringKeySeen := false
	for _, e := range entries {
		k := e.key
		if !e.hasKey {
			k = IntKey(next)
			next++
		} else if k.IsInt {
			if k.Int >= next {
				next = k.Int + 1
			}
		} else {
			stringKeySeen = true
		}
		v := e.val
		if v == nil {
			v = Nil
		}
		tab.Set(k, v)
	}

	if !stringKeySeen && tab.Len() > 0 {
		contiguous := true
		for i, k := range tab.keys {
			if !k.IsInt || k.Int != i+1 {
				contiguous = false
				break
			}
		}
		if contiguous {
			seq := make([]*Value, 0, tab.Len())
			for _, k := range tab.keys {
				e, _ := tab.Get(k)
				seq = append(seq, e)
			}
			return &Value{Kind: KindSequence, Seq: seq}
		}
	}

	return &Value{Kind: KindTable, Tab: tab}
}

// parseBracketKey scans [“key”] keys. Bracket-quoted numbers ("1") are
// integers, not strings.
func (p *parser) parseBracketKey() (Key, bool) {
	p.pos++ // '['
	p.skipSpace()
	c := p.peek()

	var k Key
	switch {
	case c == '"' || c == '\'':
		s := p.parseQuoted()
		if n, err := strconv.Atoi(s); err == nil && s != "" {
			k = IntKey(n)
		} else {
			k = StrKey(s)
		}
	case c == '-' || isDigit(c):
		num := p.scanNumberToken()
		if n, err := strconv.Atoi(num); err == nil {
			k = IntKey(n)
		} else if f, err := strconv.ParseFloat(num, 64); err == nil {
			k = IntKey(int(f))
		} else {
			return Key{}, false
		}
	default:
		return Key{}, false
	}

	p.skipSpace()
	if p.peek() != ']' {
		return Key{}, false
	}
	p.pos++
	return k, true
}

// parseValue dispatches on the lookahead character.
func (p *parser) parseValue() *Value {
	p.skipSpace()
	if p.eof() {
		return Nil
	}
	c := p.peek()

	switch {
	case c == '"' || c == '\'':
		return NewString(p.parseQuoted())
	case longBracketLevel(p.src, p.pos) >= 0:
		return NewString(p.parseLongString())
	case c == '{':
		if v := p.parseTable(); v != nil {
			return v
		}
		return Nil
	case isIdentStart(c):
		tok := p.scanIdentPath()
		switch tok {
		case "true":
			return NewBool(true)
		case "false":
			return NewBool(false)
		case "nil":
			return Nil
		}
		// Enum-like bare token (e.g. country.id.USA) captured verbatim.
		return NewString(tok)
	case c == '-' || c == '.' || isDigit(c):
		tok := p.scanNumberToken()
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return NewNumber(f)
		}
		return NewString(tok)
	}

	p.pos++
	return Nil
}

// parseQuoted scans a quoted string with backslash escapes
// (\n \t \r \\ \" \' \0). Unknown escapes keep the escaped character.
func (p *parser) parseQuoted() string {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		if c == '\\' && p.pos+1 < len(p.src) {
			switch p.src[p.pos+1] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte(p.src[p.pos+1])
			}
			p.pos += 2
			continue
		}
		if c == quote {
			p.pos++
			break
		}
		b.WriteByte(c)
		p.pos++
	}
	return b.String()
}

// parseLongString scans a [[...]] / [=[...]=] string. The closing
// delimiter must carry the same equal-sign count as the opener.
func (p *parser) parseLongString() string {
	level := longBracketLevel(p.src, p.pos)
	start := p.pos + level + 2
	closer := "]" + strings.Repeat("=", level) + "]"

	var content string
	if idx := strings.Index(p.src[start:], closer); idx >= 0 {
		content = p.src[start : start+idx]
		p.pos = start + idx + len(closer)
	} else {
		content = p.src[start:]
		p.pos = len(p.src)
	}
	// A leading newline directly after the opener is not part of the value.
	return strings.TrimPrefix(content, "\n")
}

// scanIdentPath scans an identifier or dotted path token.
func (p *parser) scanIdentPath() string {
	start := p.pos
	for !p.eof() && (isIdentChar(p.src[p.pos]) || p.src[p.pos] == '.') {
		p.pos++
	}
	return p.src[start:p.pos]
}

// scanNumberToken scans an optional sign, digits, a single decimal
// point, and an optional exponent.
func (p *parser) scanNumberToken() string {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	seenDot := false
	for !p.eof() {
		c := p.src[p.pos]
		if isDigit(c) {
			p.pos++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			p.pos++
			continue
		}
		if (c == 'e' || c == 'E') && p.pos > start {
			p.pos++
			if !p.eof() && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
				p.pos++
			}
			continue
		}
		break
	}
	return p.src[start:p.pos]
}
