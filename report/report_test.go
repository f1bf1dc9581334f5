package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dcs-tools/mizkit/extract"
)

func sampleResult() *extract.Result {
	return &extract.Result{
		Locale: "DEFAULT",
		Items: map[extract.Category][]extract.Item{
			extract.CategoryBriefing: {
				{Category: extract.CategoryBriefing, Context: "DictKey_sortie_5", Text: "Sample Training Mission"},
				{Category: extract.CategoryBriefing, Context: "Briefing_Mission", Text: "Fly the route.\nLand at home plate."},
			},
			extract.CategoryTrigger: {
				{Category: extract.CategoryTrigger, Context: "DictKey_ActionText_20", Text: "Welcome to the training mission"},
				{Category: extract.CategoryTrigger, Context: "triggers/action2", Text: "Bridge is down"},
			},
			extract.CategoryRadio: {
				{Category: extract.CategoryRadio, Context: "DictKey_ActionRadioText_7", Text: "Overlord, Eagle Flight checking in"},
			},
		},
		Stats: extract.Stats{
			Total:  5,
			Unique: 5,
			ByCategory: map[extract.Category]int{
				extract.CategoryBriefing: 2,
				extract.CategoryTrigger:  2,
				extract.CategoryRadio:    1,
			},
		},
		Validation: extract.Validation{IsComplete: true},
	}
}

func TestFormatText_Sections(t *testing.T) {
	text := FormatText(sampleResult())

	for _, header := range []string{
		"БРИФИНГ: / BRIEFING:",
		"ТРИГГЕРЫ: / TRIGGERS:",
		"РАДИОСООБЩЕНИЯ: / RADIO MESSAGES:",
	} {
		if !strings.Contains(text, header+"\n\n") {
			t.Errorf("missing header %q followed by blank line", header)
		}
	}
	for _, line := range []string{
		"DictKey_sortie_5: Sample Training Mission",
		`Briefing_Mission: Fly the route.\nLand at home plate.`,
		"DictKey_ActionText_20: Welcome to the training mission",
		"[TRIGGER_2]: Bridge is down",
		"DictKey_ActionRadioText_7: Overlord, Eagle Flight checking in",
	} {
		if !strings.Contains(text, line+"\n") {
			t.Errorf("missing line %q in:\n%s", line, text)
		}
	}
	if strings.Contains(text, "TASKS:") {
		t.Error("empty category rendered a section")
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(sampleResult())
	if err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}

	var doc struct {
		Metadata struct {
			Locale        string `json:"locale"`
			TotalStrings  int    `json:"totalStrings"`
			UniqueStrings int    `json:"uniqueStrings"`
		} `json:"metadata"`
		Strings map[string]struct {
			Category string `json:"category"`
			Context  string `json:"context"`
			Text     string `json:"text"`
		} `json:"strings"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Metadata.Locale != "DEFAULT" || doc.Metadata.TotalStrings != 5 {
		t.Errorf("metadata = %+v", doc.Metadata)
	}
	entry, ok := doc.Strings["Trigger_1"]
	if !ok {
		t.Fatalf("missing Trigger_1 key; keys %v", keysOf(doc.Strings))
	}
	if entry.Context != "DictKey_ActionText_20" || entry.Text != "Welcome to the training mission" {
		t.Errorf("Trigger_1 = %+v", entry)
	}
	if len(doc.Strings) != 5 {
		t.Errorf("len(strings) = %d, want 5", len(doc.Strings))
	}
}

func keysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestParseImported_RoundTrip(t *testing.T) {
	text := FormatText(sampleResult())
	m := ParseImported(text)

	want := map[string]string{
		"DictKey_sortie_5":          "Sample Training Mission",
		"DictKey_ActionText_20":     "Welcome to the training mission",
		"DictKey_ActionRadioText_7": "Overlord, Eagle Flight checking in",
	}
	for key, wantText := range want {
		if got := m.KeyMappings[key]; got != wantText {
			t.Errorf("KeyMappings[%q] = %q, want %q", key, got, wantText)
		}
	}
	if got := m.ByCategory[extract.CategoryTrigger]["[TRIGGER_2]"]; got != "Bridge is down" {
		t.Errorf("[TRIGGER_2] = %q", got)
	}
	if got := m.ByCategory[extract.CategoryBriefing]["Briefing_Mission"]; got != "Fly the route.\nLand at home plate." {
		t.Errorf("Briefing_Mission = %q, want multi-line text restored", got)
	}
}

func TestParseImported_TolerantInput(t *testing.T) {
	text := strings.Join([]string{
		"Some translator notes that mean nothing to the parser.",
		"",
		"ТРИГГЕРЫ: / TRIGGERS:",
		"",
		"DictKey_ActionText_3: Цель уничтожена",
		"Trigger_Message_4: Второе сообщение",
		"random line without a label",
		"",
		"BRIEFING:",
		"",
		"Briefing_Sortie: Учебный вылет",
	}, "\n")

	m := ParseImported(text)

	if got := m.KeyMappings["DictKey_ActionText_3"]; got != "Цель уничтожена" {
		t.Errorf("KeyMappings = %v", m.KeyMappings)
	}
	if got := m.ByCategory[extract.CategoryTrigger]["Trigger_Message_4"]; got != "Второе сообщение" {
		t.Errorf("legacy label = %q", got)
	}
	if got := m.ByCategory[extract.CategoryBriefing]["Briefing_Sortie"]; got != "Учебный вылет" {
		t.Errorf("english-only header not recognized: %v", m.ByCategory)
	}
	if len(m.KeyMappings) != 1 {
		t.Errorf("KeyMappings = %v, want a single key", m.KeyMappings)
	}
}

func TestParseImported_KeyCategoryHeuristic(t *testing.T) {
	m := ParseImported("DictKey_subtitle_9: Copy, proceeding inbound\n")

	if got := m.KeyMappings["DictKey_subtitle_9"]; got != "Copy, proceeding inbound" {
		t.Fatalf("KeyMappings = %v", m.KeyMappings)
	}
	if got := m.ByCategory[extract.CategoryRadio]["DictKey_subtitle_9"]; got != "Copy, proceeding inbound" {
		t.Errorf("key outside any section not routed to Radio: %v", m.ByCategory)
	}
}

func TestBriefingFieldTexts(t *testing.T) {
	m := ParseImported(strings.Join([]string{
		"БРИФИНГ: / BRIEFING:",
		"",
		"Briefing_Sortie: Night strike",
		"Briefing_BlueTask: Destroy the bridge",
		"Briefing_Unknown: ignored role",
	}, "\n"))

	fields := m.BriefingFieldTexts()
	if fields["sortie"] != "Night strike" {
		t.Errorf("sortie = %q", fields["sortie"])
	}
	if fields["descriptionBlueTask"] != "Destroy the bridge" {
		t.Errorf("descriptionBlueTask = %q", fields["descriptionBlueTask"])
	}
	if len(fields) != 2 {
		t.Errorf("fields = %v, want unknown roles dropped", fields)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		item  extract.Item
		index int
		want  string
	}{
		{extract.Item{Category: extract.CategoryTrigger, Context: "DictKey_ActionText_1"}, 1, "DictKey_ActionText_1"},
		{extract.Item{Category: extract.CategoryTrigger, Context: "trig/action3"}, 3, "[TRIGGER_3]"},
		{extract.Item{Category: extract.CategoryRadio, Context: "Sound"}, 2, "[RADIO_2]"},
		{extract.Item{Category: extract.CategoryBriefing, Context: "Briefing_Mission"}, 1, "Briefing_Mission"},
		{extract.Item{Category: extract.CategoryUnit, Context: "blue/USA/plane/Enfield-1/unit1"}, 4, "[UNIT_4]"},
	}
	for _, tt := range tests {
		if got := Label(tt.item, tt.index); got != tt.want {
			t.Errorf("Label(%q, %d) = %q, want %q", tt.item.Context, tt.index, got, tt.want)
		}
	}
}
