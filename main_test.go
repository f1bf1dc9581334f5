package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dcs-tools/mizkit/dictfile"
	"github.com/dcs-tools/mizkit/extract"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		width   int
		want    string
	}{
		{
			name:    "clamps below zero",
			percent: -10,
			width:   4,
			want:    colorRed + "░░░░" + colorReset + "   0%",
		},
		{
			name:    "mid range uses yellow",
			percent: 50,
			width:   4,
			want:    colorYellow + "██░░" + colorReset + "  50%",
		},
		{
			name:    "clamps above hundred",
			percent: 120,
			width:   4,
			want:    colorGreen + "████" + colorReset + " 100%",
		},
	}

	for _, tc := range tests {
		if got := progressBar(tc.percent, tc.width); got != tc.want {
			t.Fatalf("%s: progressBar() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" Briefing, Trigger ,,Radio ")
	want := []string{"Briefing", "Trigger", "Radio"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitList() = %#v, want %#v", got, want)
	}
	if got := splitList(""); got != nil {
		t.Fatalf("splitList(empty) = %#v, want nil", got)
	}
}

func TestParseCategories(t *testing.T) {
	cats, err := parseCategories([]string{"briefing", "Radio"})
	if err != nil {
		t.Fatalf("parseCategories: %v", err)
	}
	want := []extract.Category{extract.CategoryBriefing, extract.CategoryRadio}
	if !reflect.DeepEqual(cats, want) {
		t.Fatalf("parseCategories() = %v, want %v", cats, want)
	}

	if _, err := parseCategories([]string{"bogus"}); err == nil || !strings.Contains(err.Error(), "unknown category") {
		t.Fatalf("err = %v, want unknown category", err)
	}
}

func TestDefaultReportPath(t *testing.T) {
	got := defaultReportPath(filepath.Join("missions", "training.miz"), "RU", "text")
	want := filepath.Join("missions", "training.RU.txt")
	if got != want {
		t.Fatalf("defaultReportPath() = %q, want %q", got, want)
	}

	got = defaultReportPath("training.miz", "DEFAULT", "json")
	if got != "training.DEFAULT.json" {
		t.Fatalf("defaultReportPath(json) = %q", got)
	}
}

func TestDefaultImportOutput(t *testing.T) {
	got := defaultImportOutput("missions/training.miz", "RU")
	if got != "missions/training.RU.miz" {
		t.Fatalf("defaultImportOutput() = %q", got)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(filePath, []byte("ok"), 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}

	if !fileExists(filePath) {
		t.Fatalf("fileExists(file) = false, want true")
	}
	if fileExists(dir) {
		t.Fatalf("fileExists(directory) = true, want false")
	}
	if fileExists(filepath.Join(dir, "missing.txt")) {
		t.Fatalf("fileExists(missing) = true, want false")
	}
}

func TestCompleteness(t *testing.T) {
	result := &extract.Result{
		Items: map[extract.Category][]extract.Item{
			extract.CategoryBriefing: {{Category: extract.CategoryBriefing, Context: "Briefing_Sortie", Text: "x"}},
			extract.CategoryTrigger:  {},
			extract.CategoryRadio:    {},
		},
	}
	if got := completeness(result); got != 33 {
		t.Fatalf("completeness() = %d, want 33", got)
	}
	result.Validation.IsComplete = true
	if got := completeness(result); got != 100 {
		t.Fatalf("completeness(complete) = %d, want 100", got)
	}
}

func TestCoverage(t *testing.T) {
	result := &extract.Result{
		Items: map[extract.Category][]extract.Item{
			extract.CategoryTrigger: {
				{Category: extract.CategoryTrigger, Context: "DictKey_ActionText_1", Text: "a"},
				{Category: extract.CategoryTrigger, Context: "DictKey_ActionText_2", Text: "b"},
				{Category: extract.CategoryTrigger, Context: "trig/action3", Text: "c"},
			},
		},
	}
	dict := dictfile.Parse(`dictionary = { ["DictKey_ActionText_1"] = "а" }`)

	if got := coverage(result, dict); got != 50 {
		t.Fatalf("coverage() = %d, want 50", got)
	}
	if got := coverage(result, nil); got != 0 {
		t.Fatalf("coverage(nil) = %d, want 0", got)
	}
}

func TestLockEntries(t *testing.T) {
	result := &extract.Result{
		Items: map[extract.Category][]extract.Item{
			extract.CategoryBriefing: {
				{Category: extract.CategoryBriefing, Context: "DictKey_sortie_5", Text: "Night strike"},
			},
		},
	}
	entries := lockEntries(result)
	if len(entries) != 1 {
		t.Fatalf("entries = %v", entries)
	}
	if entries["DictKey_sortie_5"] == "" {
		t.Fatal("missing entry content")
	}
}
