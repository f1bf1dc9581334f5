// Package report renders extraction results as editable reports and
// parses edited reports back into an import mapping.
//
// The plain-text format is the round-trip surface: bilingual section
// headers, one "label: text" line per item, everything else ignored on
// parse so partially edited files survive.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/dcs-tools/mizkit/dictfile"
	"github.com/dcs-tools/mizkit/extract"
)

// sectionHeaders are the fixed bilingual section literals, in report
// order via extract.AllCategories.
var sectionHeaders = map[extract.Category]string{
	extract.CategoryBriefing: "БРИФИНГ: / BRIEFING:",
	extract.CategoryTrigger:  "ТРИГГЕРЫ: / TRIGGERS:",
	extract.CategoryRadio:    "РАДИОСООБЩЕНИЯ: / RADIO MESSAGES:",
	extract.CategoryTask:     "ЗАДАЧИ: / TASKS:",
	extract.CategoryUnit:     "ПОДРАЗДЕЛЕНИЯ: / UNITS:",
	extract.CategoryWaypoint: "ПУТЕВЫЕ ТОЧКИ: / WAYPOINTS:",
}

// synthesized sequential tags per category, used when an item has no
// indirect-reference key to serve as its label.
var categoryTags = map[extract.Category]string{
	extract.CategoryTrigger:  "TRIGGER",
	extract.CategoryRadio:    "RADIO",
	extract.CategoryTask:     "TASK",
	extract.CategoryUnit:     "UNIT",
	extract.CategoryWaypoint: "WAYPOINT",
}

// textEscaper keeps multi-line texts on one report line.
var textEscaper = strings.NewReplacer("\\", `\\`, "\n", `\n`, "\t", `\t`)

func unescapeText(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Label picks the report label for an item: the original
// indirect-reference key when there is one, otherwise a synthesized
// sequential tag within its category.
func Label(item extract.Item, index int) string {
	if strings.HasPrefix(item.Context, dictfile.KeyPrefix) ||
		strings.HasPrefix(item.Context, dictfile.ResourcePrefix) {
		return item.Context
	}
	if item.Category == extract.CategoryBriefing {
		if strings.HasPrefix(item.Context, "Briefing_") {
			return item.Context
		}
		return fmt.Sprintf("Briefing_%d", index)
	}
	return fmt.Sprintf("[%s_%d]", categoryTags[item.Category], index)
}

// FormatText renders a plain-text report: one section per non-empty
// category, bilingual header, blank line, then label: text lines.
func FormatText(result *extract.Result) string {
	var b strings.Builder
	for _, cat := range extract.AllCategories {
		items := result.Items[cat]
		if len(items) == 0 {
			continue
		}
		b.WriteString(sectionHeaders[cat])
		b.WriteString("\n\n")
		for i, item := range items {
			b.WriteString(Label(item, i+1))
			b.WriteString(": ")
			b.WriteString(textEscaper.Replace(item.Text))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

type jsonMetadata struct {
	Locale        string `json:"locale"`
	TotalStrings  int    `json:"totalStrings"`
	UniqueStrings int    `json:"uniqueStrings"`
}

type jsonString struct {
	Category string `json:"category"`
	Context  string `json:"context"`
	Text     string `json:"text"`
}

type jsonReport struct {
	Metadata jsonMetadata          `json:"metadata"`
	Strings  map[string]jsonString `json:"strings"`
}

// FormatJSON renders the structured report: a metadata block plus a
// flat map from "<Category>_<n>" keys to item records.
func FormatJSON(result *extract.Result) (string, error) {
	doc := jsonReport{
		Metadata: jsonMetadata{
			Locale:        result.Locale,
			TotalStrings:  result.Stats.Total,
			UniqueStrings: result.Stats.Unique,
		},
		Strings: make(map[string]jsonString),
	}
	for _, cat := range extract.AllCategories {
		for i, item := range result.Items[cat] {
			key := fmt.Sprintf("%s_%d", cat, i+1)
			doc.Strings[key] = jsonString{
				Category: string(item.Category),
				Context:  item.Context,
				Text:     item.Text,
			}
		}
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	return string(out) + "\n", nil
}

// Mapping is a parsed edited report. KeyMappings is authoritative for
// injection; ByCategory keeps labeled lines per category for display
// and for the briefing-field surgery.
type Mapping struct {
	KeyMappings map[string]string
	ByCategory  map[extract.Category]map[string]string
}

// BriefingFieldTexts resolves Briefing_<role> labels back to mission
// field names with their edited texts.
func (m *Mapping) BriefingFieldTexts() map[string]string {
	fields := make(map[string]string)
	for label, text := range m.ByCategory[extract.CategoryBriefing] {
		for _, bf := range extract.BriefingFields {
			if bf.Label == label {
				fields[bf.Field] = text
				break
			}
		}
	}
	return fields
}

var labelLineRe = regexp.MustCompile(`^(DictKey_\w+|ResKey_\w+|\[(TRIGGER|RADIO|TASK|UNIT|WAYPOINT)_\d+\]|Briefing_\w+|Trigger_Message_\d+): ?(.*)$`)

// ParseImported is the inverse of FormatText. Section headers scope the
// following lines to a category; label lines are routed by shape;
// anything else is ignored so hand-edited reports stay importable.
func ParseImported(text string) *Mapping {
	m := &Mapping{
		KeyMappings: make(map[string]string),
		ByCategory:  make(map[extract.Category]map[string]string),
	}

	current := extract.Category("")
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if cat, ok := headerCategory(line); ok {
			current = cat
			continue
		}
		match := labelLineRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		label, tag, value := match[1], match[2], unescapeText(match[3])
		switch {
		case strings.HasPrefix(label, dictfile.KeyPrefix), strings.HasPrefix(label, dictfile.ResourcePrefix):
			m.KeyMappings[label] = value
			cat := current
			if cat == "" {
				cat = keyCategory(label)
			}
			if cat != "" {
				m.add(cat, label, value)
			}
		case tag != "":
			m.add(tagCategory(tag), label, value)
		case strings.HasPrefix(label, "Briefing_"):
			m.add(extract.CategoryBriefing, label, value)
		case strings.HasPrefix(label, "Trigger_Message_"):
			m.add(extract.CategoryTrigger, label, value)
		}
	}
	return m
}

func (m *Mapping) add(cat extract.Category, label, value string) {
	if m.ByCategory[cat] == nil {
		m.ByCategory[cat] = make(map[string]string)
	}
	m.ByCategory[cat][label] = value
}

// headerCategory recognizes a section header line, matching either the
// full bilingual literal or one of its halves.
func headerCategory(line string) (extract.Category, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}
	for cat, header := range sectionHeaders {
		if trimmed == header {
			return cat, true
		}
		ru, en, found := strings.Cut(header, " / ")
		if found && (trimmed == ru || trimmed == en) {
			return cat, true
		}
	}
	return "", false
}

func tagCategory(tag string) extract.Category {
	for cat, t := range categoryTags {
		if t == tag {
			return cat
		}
	}
	return ""
}

// keyCategory guesses a category from an indirect-reference key name,
// used only when a label line appears outside any section.
func keyCategory(key string) extract.Category {
	switch {
	case strings.Contains(key, "ActionRadioText"), strings.Contains(key, "subtitle"):
		return extract.CategoryRadio
	case strings.Contains(key, "ActionText"):
		return extract.CategoryTrigger
	case strings.Contains(key, "sortie"), strings.Contains(key, "description"):
		return extract.CategoryBriefing
	case strings.Contains(key, "UnitName"):
		return extract.CategoryUnit
	case strings.Contains(key, "WptName"):
		return extract.CategoryWaypoint
	default:
		return ""
	}
}
