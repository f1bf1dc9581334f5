// Package dictfile implements reading and surgical rewriting of locale
// dictionary files from mission archives.
//
// A dictionary is a flat table-language mapping from indirect-reference
// keys (DictKey_*) to literal strings, one file per locale. The File
// type keeps the original source text as the serialization skeleton:
// Marshal never re-serializes the table — it pattern-matches entries in
// the original text and replaces only the quoted values that were Set,
// so spacing, ordering, comments and untouched entries survive
// byte-for-byte.
package dictfile

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dcs-tools/mizkit/luatable"
	"github.com/dcs-tools/mizkit/textclean"
)

// KeyPrefix marks an indirect-reference key into a locale dictionary.
const KeyPrefix = "DictKey_"

// ResourcePrefix marks a reference into a locale resource map.
const ResourcePrefix = "ResKey_"

// Dictionary is a resolved flat key → text mapping.
type Dictionary map[string]string

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// File is a parsed dictionary keeping its raw source text.
type File struct {
	raw     string
	keys    []string
	entries map[string]string
	pending map[string]string
}

// Parse decodes dictionary source text. Like the decoder it is total:
// malformed input yields an empty dictionary with the raw text intact.
func Parse(text string) *File {
	f := &File{
		raw:     text,
		entries: make(map[string]string),
		pending: make(map[string]string),
	}
	root := luatable.Decode(text)
	for _, key := range root.StringKeys() {
		if s, ok := root.FieldString(key); ok {
			if _, dup := f.entries[key]; !dup {
				f.keys = append(f.keys, key)
			}
			f.entries[key] = s
		}
	}
	return f
}

// Raw returns the original source text.
func (f *File) Raw() string { return f.raw }

// Keys returns all keys in document order.
func (f *File) Keys() []string { return f.keys }

// Len returns the number of entries.
func (f *File) Len() int { return len(f.keys) }

// Get returns the raw (unnormalized) value for key.
func (f *File) Get(key string) (string, bool) {
	v, ok := f.entries[key]
	return v, ok
}

// Set stages a replacement value for an existing key. Returns false
// when the key is not present — Marshal never invents entries.
func (f *File) Set(key, value string) bool {
	if _, ok := f.entries[key]; !ok {
		return false
	}
	f.pending[key] = value
	return true
}

// Entries returns a resolved copy of all entries including staged
// replacements.
func (f *File) Entries() Dictionary {
	d := make(Dictionary, len(f.entries))
	for k, v := range f.entries {
		d[k] = v
	}
	for k, v := range f.pending {
		d[k] = v
	}
	return d
}

// Marshal renders the dictionary: the original text with staged values
// substituted in place and everything else untouched.
func (f *File) Marshal() []byte {
	out, _ := Substitute(f.raw, f.pending)
	return []byte(out)
}

// ---------------------------------------------------------------------------
// Surgical substitution
// ---------------------------------------------------------------------------

// entryRe matches one ["key"] = "value" assignment. Group 1 is the key,
// group 2 the quoted value body (escapes intact).
var entryRe = regexp.MustCompile(`\[\s*"((?:[^"\\]|\\.)+)"\s*\]\s*=\s*"((?:[^"\\]|\\.)*)"`)

// Substitute rewrites translations into raw dictionary source text,
// replacing only the quoted values of matched keys. Returns the new
// text and the number of substituted entries.
func Substitute(raw string, translations map[string]string) (string, int) {
	if len(translations) == 0 {
		return raw, 0
	}

	var b strings.Builder
	b.Grow(len(raw))
	last := 0
	replaced := 0

	for _, loc := range entryRe.FindAllStringSubmatchIndex(raw, -1) {
		key := raw[loc[2]:loc[3]]
		value, ok := translations[key]
		if !ok {
			continue
		}
		// loc[4]:loc[5] is the value body between its quotes.
		b.WriteString(raw[last:loc[4]])
		b.WriteString(EscapeString(value))
		last = loc[5]
		replaced++
	}
	b.WriteString(raw[last:])
	return b.String(), replaced
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// EscapeString renders s as the body of a double-quoted table-language
// string literal.
func EscapeString(s string) string { return escaper.Replace(s) }

// ---------------------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------------------

// Resolve turns a mission scalar into display text. Indirect-reference
// strings are looked up in dict (absence yields no text, not an error);
// anything else is treated as literal text. The result is normalized.
func Resolve(v *luatable.Value, dict Dictionary) (string, bool) {
	_, text, ok := ResolveKey(v, dict)
	return text, ok
}

// ResolveKey is Resolve plus the original indirect-reference key when
// there was one, preserved by extractors as the item context so the
// round-trip codec can map translations back onto dictionary entries.
func ResolveKey(v *luatable.Value, dict Dictionary) (key, text string, ok bool) {
	s, isStr := v.AsString()
	if !isStr {
		return "", "", false
	}
	if strings.HasPrefix(s, KeyPrefix) {
		raw, found := dict[s]
		if !found {
			return s, "", false
		}
		cleaned, nonEmpty := textclean.Clean(raw)
		return s, cleaned, nonEmpty
	}
	cleaned, nonEmpty := textclean.Clean(s)
	return "", cleaned, nonEmpty
}

// ---------------------------------------------------------------------------
// Locale merge
// ---------------------------------------------------------------------------

// DefaultLocale is the locale every archive must carry for import and
// the fallback base for extraction.
const DefaultLocale = "DEFAULT"

// Merge builds the locale-fallback view used by extraction: DEFAULT
// entries overlaid by the selected locale (selected value wins per
// key). When neither DEFAULT nor the selected locale has any entries,
// the first available locale is used in full, so extraction
// completeness never depends on which locale was requested.
func Merge(dicts map[string]*File, locale string) Dictionary {
	merged := make(Dictionary)

	if def, ok := dicts[DefaultLocale]; ok {
		for k, v := range def.Entries() {
			merged[k] = v
		}
	}
	if locale != DefaultLocale {
		if sel, ok := dicts[locale]; ok {
			for k, v := range sel.Entries() {
				merged[k] = v
			}
		}
	}

	if len(merged) == 0 {
		names := make([]string, 0, len(dicts))
		for name := range dicts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if d := dicts[name]; d.Len() > 0 {
				for k, v := range d.Entries() {
					merged[k] = v
				}
				break
			}
		}
	}

	return merged
}
