// Package extract pulls localizable strings out of a decoded mission
// tree and its locale dictionaries.
//
// Six category extractors (briefings, tasks, triggers, units,
// waypoints, radio) walk the mission tree against a merged dictionary
// (DEFAULT overlaid by the selected locale) and emit ordered item
// lists. Deduplication is category-specific: Trigger and Radio dedup
// by cleaned text, Unit dedups by resolved name, Briefing, Task and
// Waypoint keep every occurrence.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dcs-tools/mizkit/dictfile"
	"github.com/dcs-tools/mizkit/luatable"
	"github.com/dcs-tools/mizkit/textclean"
)

// Category is one extraction bucket.
type Category string

const (
	CategoryBriefing Category = "Briefing"
	CategoryTask     Category = "Task"
	CategoryTrigger  Category = "Trigger"
	CategoryUnit     Category = "Unit"
	CategoryWaypoint Category = "Waypoint"
	CategoryRadio    Category = "Radio"
)

// AllCategories lists every bucket in report order.
var AllCategories = []Category{
	CategoryBriefing, CategoryTrigger, CategoryRadio,
	CategoryTask, CategoryUnit, CategoryWaypoint,
}

// AutoCategories is the focused set extracted in automatic mode.
var AutoCategories = []Category{CategoryBriefing, CategoryTrigger, CategoryRadio}

// ParseCategory maps a user-supplied name to a Category.
func ParseCategory(name string) (Category, bool) {
	for _, cat := range AllCategories {
		if strings.EqualFold(name, string(cat)) {
			return cat, true
		}
	}
	return "", false
}

// Item is one extracted string. Context is the original
// indirect-reference key when there was one (which enables exact
// round-trip injection) or a synthesized human-readable path.
type Item struct {
	Category Category
	Context  string
	Text     string
}

// Stats summarizes an extraction pass. Unique counts distinct texts
// across all categories combined.
type Stats struct {
	Total      int
	Unique     int
	ByCategory map[Category]int
}

// Validation carries non-fatal findings attached to a result.
type Validation struct {
	IsComplete bool
	Errors     []string
	Warnings   []string
}

// Result is a completed extraction pass. Items holds an entry for
// every requested category, empty or not.
type Result struct {
	Locale     string
	Items      map[Category][]Item
	Stats      Stats
	Validation Validation
}

// ProgressFunc reports coarse milestones with a monotonically
// increasing percentage.
type ProgressFunc func(percent int, status string)

// Options selects what to extract.
type Options struct {
	// Locale to extract; DEFAULT when empty.
	Locale string
	// Categories to extract; empty means automatic mode (AutoCategories).
	Categories []Category
	// Resources is the locale's resource map (ResKey_* to asset path),
	// used only to annotate radio sound references.
	Resources dictfile.Dictionary
	// OnProgress receives milestone callbacks; may be nil.
	OnProgress ProgressFunc
}

// SoundPrefix marks informational radio entries that name an audio
// asset rather than translatable text.
const SoundPrefix = "[SOUND] "

// Extract runs the category extractors over a decoded mission tree and
// the per-locale dictionaries.
func Extract(mission *luatable.Value, dicts map[string]*dictfile.File, opts Options) *Result {
	progress := opts.OnProgress
	if progress == nil {
		progress = func(int, string) {}
	}

	locale := opts.Locale
	if locale == "" {
		locale = dictfile.DefaultLocale
	}
	categories := opts.Categories
	if len(categories) == 0 {
		categories = AutoCategories
	}

	progress(10, "merging dictionaries")
	merged := dictfile.Merge(dicts, locale)

	e := &extractor{mission: mission, dict: merged, resources: opts.Resources}

	result := &Result{
		Locale: locale,
		Items:  make(map[Category][]Item),
	}

	for i, cat := range categories {
		var items []Item
		switch cat {
		case CategoryBriefing:
			items = e.briefings()
		case CategoryTask:
			items = e.tasks()
		case CategoryTrigger:
			items = e.triggers()
		case CategoryUnit:
			items = e.units()
		case CategoryWaypoint:
			items = e.waypoints()
		case CategoryRadio:
			items = e.radio()
		default:
			continue
		}
		result.Items[cat] = items
		progress(10+(i+1)*80/len(categories), fmt.Sprintf("extracted %s", strings.ToLower(string(cat))))
	}

	result.Stats = computeStats(result.Items)
	result.Validation = validate(result.Items)
	progress(100, "done")
	return result
}

func computeStats(items map[Category][]Item) Stats {
	s := Stats{ByCategory: make(map[Category]int)}
	seen := make(map[string]bool)
	for cat, list := range items {
		s.ByCategory[cat] = len(list)
		s.Total += len(list)
		for _, it := range list {
			seen[it.Text] = true
		}
	}
	s.Unique = len(seen)
	return s
}

// validate checks the required categories: Briefing, Trigger and Radio
// must all be present and non-empty for a complete result.
func validate(items map[Category][]Item) Validation {
	v := Validation{IsComplete: true}
	for _, cat := range AutoCategories {
		list, present := items[cat]
		switch {
		case !present:
			v.Errors = append(v.Errors, fmt.Sprintf("required category %s missing from result", cat))
			v.IsComplete = false
		case len(list) == 0:
			v.Warnings = append(v.Warnings, fmt.Sprintf("category %s is empty", cat))
			v.IsComplete = false
		}
	}
	return v
}

type extractor struct {
	mission   *luatable.Value
	dict      dictfile.Dictionary
	resources dictfile.Dictionary
}

var coalitionNames = []string{"blue", "red", "neutrals"}

var groupTypes = []string{"plane", "helicopter", "vehicle", "ship", "static"}

// walkGroups visits every group of every group type in every country of
// every coalition, in the fixed mission order, with a synthesized
// human-readable path.
func (e *extractor) walkGroups(fn func(path string, group *luatable.Value)) {
	coalition := e.mission.Field("coalition")
	for _, side := range coalitionNames {
		countries := coalition.Field(side).Field("country")
		for ci, country := range countries.Elems() {
			countryName, ok := country.FieldString("name")
			if !ok {
				countryName = fmt.Sprintf("country%d", ci+1)
			}
			for _, gtype := range groupTypes {
				groups := country.Field(gtype).Field("group")
				for gi, group := range groups.Elems() {
					name := e.groupName(group, gi+1)
					path := fmt.Sprintf("%s/%s/%s/%s", side, countryName, gtype, name)
					fn(path, group)
				}
			}
		}
	}
}

func (e *extractor) groupName(group *luatable.Value, index int) string {
	if _, text, ok := dictfile.ResolveKey(group.Field("name"), e.dict); ok {
		return text
	}
	return fmt.Sprintf("group%d", index)
}

// BriefingField binds a mission-tree field to its report label.
type BriefingField struct {
	Field string
	Label string
}

// BriefingFields lists the mission-embedded briefing fields in fixed
// report order.
var BriefingFields = []BriefingField{
	{"sortie", "Briefing_Sortie"},
	{"descriptionText", "Briefing_Mission"},
	{"descriptionBlueTask", "Briefing_BlueTask"},
	{"descriptionRedTask", "Briefing_RedTask"},
	{"descriptionNeutralsTask", "Briefing_NeutralsTask"},
}

func (e *extractor) briefings() []Item {
	var items []Item
	for _, bf := range BriefingFields {
		key, text, ok := dictfile.ResolveKey(e.mission.Field(bf.Field), e.dict)
		if !ok {
			continue
		}
		context := key
		if context == "" {
			context = bf.Label
		}
		items = append(items, Item{Category: CategoryBriefing, Context: context, Text: text})
	}
	return items
}

func (e *extractor) tasks() []Item {
	var items []Item
	e.walkGroups(func(path string, group *luatable.Value) {
		key, text, ok := dictfile.ResolveKey(group.Field("task"), e.dict)
		if !ok {
			return
		}
		context := key
		if context == "" {
			context = path + "/Task"
		}
		items = append(items, Item{Category: CategoryTask, Context: context, Text: text})
	})
	return items
}

// units dedups by resolved name: the same unit name placed in several
// groups reads once in the report.
func (e *extractor) units() []Item {
	var items []Item
	seen := make(map[string]bool)
	e.walkGroups(func(path string, group *luatable.Value) {
		for ui, unit := range group.Field("units").Elems() {
			key, text, ok := dictfile.ResolveKey(unit.Field("name"), e.dict)
			if !ok || seen[text] {
				continue
			}
			seen[text] = true
			context := key
			if context == "" {
				context = fmt.Sprintf("%s/unit%d", path, ui+1)
			}
			items = append(items, Item{Category: CategoryUnit, Context: context, Text: text})
		}
	})
	return items
}

func (e *extractor) waypoints() []Item {
	var items []Item
	e.walkGroups(func(path string, group *luatable.Value) {
		points := group.Field("route").Field("points")
		for pi, point := range points.Elems() {
			if key, text, ok := dictfile.ResolveKey(point.Field("name"), e.dict); ok {
				context := key
				if context == "" {
					context = fmt.Sprintf("%s/WP%d", path, pi+1)
				}
				items = append(items, Item{Category: CategoryWaypoint, Context: context, Text: text})
			}
			if key, text, ok := dictfile.ResolveKey(point.Field("comment"), e.dict); ok {
				context := key
				if context == "" {
					context = fmt.Sprintf("%s/WP%d Comment", path, pi+1)
				}
				items = append(items, Item{Category: CategoryWaypoint, Context: context, Text: text})
			}
		}
	})
	return items
}

// outTextRe captures the first quoted argument of outText-style script
// calls inside string-valued trigger actions. Covers both the editor
// spelling (a_out_text_delay) and the scripting one (outTextForCoalition).
var outTextRe = regexp.MustCompile(`(?si)out_?text\w*\(\s*[^)]*?"((?:[^"\\]|\\.)*)"`)

// radioMarkerRe detects radio-transmission script calls in an action blob.
var radioMarkerRe = regexp.MustCompile(`(?i)radio_?transmission|transmit_?message`)

var oggRe = regexp.MustCompile(`[\w/.\\-]+\.ogg`)

var resKeyRe = regexp.MustCompile(`ResKey_\w+`)

// triggers tries the three trigger storage formats in order from
// newest to oldest; the first format that yields items wins. When all
// three come up empty it falls back to scanning the merged dictionary.
func (e *extractor) triggers() []Item {
	dedup := make(map[string]bool)
	var items []Item

	add := func(context, text string) {
		cleaned, ok := textclean.Clean(text)
		if !ok || dedup[cleaned] {
			return
		}
		dedup[cleaned] = true
		items = append(items, Item{Category: CategoryTrigger, Context: context, Text: cleaned})
	}

	// (a) Modern format: triggers.triggers[*].actions[*].
	count := 0
	for _, trig := range e.mission.Field("triggers").Field("triggers").Elems() {
		for _, action := range trig.Field("actions").Elems() {
			count++
			e.scanActionString(action, fmt.Sprintf("triggers/action%d", count), add)
		}
	}
	if len(items) > 0 {
		return items
	}

	// (b) Legacy format: trig.actions[*].
	for ai, action := range e.mission.Field("trig").Field("actions").Elems() {
		e.scanActionString(action, fmt.Sprintf("trig/action%d", ai+1), add)
	}
	if len(items) > 0 {
		return items
	}

	// (c) Oldest format: trigrules[*].actions[*] with explicit fields.
	for _, rule := range e.mission.Field("trigrules").Elems() {
		for _, action := range rule.Field("actions").Elems() {
			if isRadioAction(action) {
				continue // handled by the Radio extractor
			}
			for _, field := range []string{"text", "message"} {
				key, text, ok := dictfile.ResolveKey(action.Field(field), e.dict)
				if !ok || textclean.IsSystemMessage(text, key) {
					continue
				}
				context := key
				if context == "" {
					context = "trigrules/" + field
				}
				add(context, text)
			}
		}
	}
	if len(items) > 0 {
		return items
	}

	// Fallback: scan the merged dictionary directly.
	for _, key := range sortedKeysWithPrefix(e.dict, "DictKey_ActionText_") {
		text := e.dict[key]
		if textclean.IsSystemMessage(text, key) {
			continue
		}
		add(key, text)
	}
	return items
}

// scanActionString extracts outText message arguments from one
// string-valued action. Captured DictKey references resolve through
// the merged dictionary and keep the key as context.
func (e *extractor) scanActionString(action *luatable.Value, fallbackCtx string, add func(context, text string)) {
	script, ok := action.AsString()
	if !ok {
		return
	}
	for _, m := range outTextRe.FindAllStringSubmatch(script, -1) {
		arg := m[1]
		if strings.HasPrefix(arg, dictfile.KeyPrefix) {
			if raw, found := e.dict[arg]; found && !textclean.IsSystemMessage(raw, arg) {
				add(arg, raw)
			}
			continue
		}
		if !textclean.IsSystemMessage(arg, "ActionText") {
			add(fallbackCtx, arg)
		}
	}
}

// isRadioAction reports whether a trigrules action is radio-specific:
// it has a radioText field or an id naming a radio/transmit action.
func isRadioAction(action *luatable.Value) bool {
	if !action.Field("radioText").IsNil() {
		return true
	}
	if id, ok := action.FieldString("id"); ok {
		lower := strings.ToLower(id)
		return strings.Contains(lower, "radio") || strings.Contains(lower, "transmit")
	}
	return false
}

// radio mirrors the trigger cascade but only considers actions carrying
// a radio-transmission marker, and additionally reports referenced
// sound assets as informational entries.
func (e *extractor) radio() []Item {
	dedup := make(map[string]bool)
	var items []Item

	add := func(context, text string) {
		cleaned, ok := textclean.Clean(text)
		if !ok || dedup[cleaned] {
			return
		}
		dedup[cleaned] = true
		items = append(items, Item{Category: CategoryRadio, Context: context, Text: cleaned})
	}

	// (a) Modern format: triggers whose action set contains a marker.
	for ti, trig := range e.mission.Field("triggers").Field("triggers").Elems() {
		actions := trig.Field("actions").Elems()
		var blob strings.Builder
		for _, action := range actions {
			if s, ok := action.AsString(); ok {
				blob.WriteString(s)
				blob.WriteByte('\n')
			}
		}
		if !radioMarkerRe.MatchString(blob.String()) {
			continue
		}
		for _, action := range actions {
			e.scanActionString(action, fmt.Sprintf("radio/trigger%d", ti+1), add)
		}
		e.soundReferences(blob.String(), add)
	}
	if len(items) > 0 {
		return items
	}

	// (b) Legacy format: trig.actions[*] carrying the marker.
	for ai, action := range e.mission.Field("trig").Field("actions").Elems() {
		script, ok := action.AsString()
		if !ok || !radioMarkerRe.MatchString(script) {
			continue
		}
		e.scanActionString(action, fmt.Sprintf("radio/action%d", ai+1), add)
		e.soundReferences(script, add)
	}
	if len(items) > 0 {
		return items
	}

	// (c) Oldest format: radio-specific trigrules actions.
	for _, rule := range e.mission.Field("trigrules").Elems() {
		for _, action := range rule.Field("actions").Elems() {
			if !isRadioAction(action) {
				continue
			}
			for _, field := range []string{"radioText", "text", "message"} {
				key, text, ok := dictfile.ResolveKey(action.Field(field), e.dict)
				if !ok || textclean.IsSystemMessage(text, key) {
					continue
				}
				context := key
				if context == "" {
					context = "trigrules/" + field
				}
				add(context, text)
			}
		}
	}
	if len(items) > 0 {
		return items
	}

	// Fallback: subtitle and radio-action keys from the merged
	// dictionary, with the radio-menu filter on the menu sub-case.
	for _, key := range sortedKeysWithPrefix(e.dict, "DictKey_subtitle_") {
		text := e.dict[key]
		if textclean.IsSystemMessage(text, key) {
			continue
		}
		add(key, text)
	}
	for _, key := range sortedKeysWithPrefix(e.dict, "DictKey_ActionRadioText_") {
		text := e.dict[key]
		if textclean.IsSystemMessage(text, key) || textclean.IsRadioMenuMessage(text) {
			continue
		}
		add(key, text)
	}
	return items
}

// soundReferences emits informational entries for audio files and
// resource keys named by a radio action blob.
func (e *extractor) soundReferences(script string, add func(context, text string)) {
	for _, name := range oggRe.FindAllString(script, -1) {
		add("Sound", SoundPrefix+name)
	}
	for _, key := range resKeyRe.FindAllString(script, -1) {
		if path, ok := e.resources[key]; ok {
			add(key, SoundPrefix+path)
		} else {
			add(key, SoundPrefix+key)
		}
	}
}

// sortedKeysWithPrefix returns matching dictionary keys ordered by
// numeric suffix (DictKey_ActionText_2 before _10), then lexically.
func sortedKeysWithPrefix(dict dictfile.Dictionary, prefix string) []string {
	var keys []string
	for k := range dict {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, iok := keySuffix(keys[i])
		nj, jok := keySuffix(keys[j])
		if iok && jok && ni != nj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func keySuffix(key string) (int, bool) {
	idx := strings.LastIndexByte(key, '_')
	if idx < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(key[idx+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}
