// Package inject writes an edited report back into a mission archive
// as a new locale.
//
// The target locale's dictionary is never re-serialized: it is the raw
// DEFAULT dictionary text with surgical value substitutions, so
// spacing, ordering and comments stay byte-identical outside the
// translated spans. All other DEFAULT locale assets are copied
// verbatim into the target locale.
package inject

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dcs-tools/mizkit/dictfile"
	"github.com/dcs-tools/mizkit/extract"
	"github.com/dcs-tools/mizkit/mizfile"
	"github.com/dcs-tools/mizkit/report"
)

// Options tunes an import run.
type Options struct {
	// OnProgress receives milestone callbacks; may be nil.
	OnProgress extract.ProgressFunc
}

// Result describes a completed import.
type Result struct {
	// Archive is the rebuilt mission archive.
	Archive []byte
	// Substituted counts dictionary values replaced.
	Substituted int
	// BriefingFields counts mission-text briefing rewrites.
	BriefingFields int
	// DictionaryPath is where the target dictionary was written.
	DictionaryPath string
}

// Run parses editedText as a report, builds the target locale from the
// DEFAULT locale and returns the rebuilt archive. A missing DEFAULT
// dictionary is fatal: there is no format template to clone.
func Run(archiveBytes []byte, editedText, targetLocale string, opts Options) (*Result, error) {
	progress := opts.OnProgress
	if progress == nil {
		progress = func(int, string) {}
	}
	if targetLocale == "" {
		return nil, fmt.Errorf("target locale must not be empty")
	}

	progress(10, "reading archive")
	arc, err := mizfile.Open(archiveBytes)
	if err != nil {
		return nil, err
	}
	defaultRaw, defaultPath, ok := arc.Dictionary(dictfile.DefaultLocale)
	if !ok {
		return nil, mizfile.ErrMissingDefaultDictionary
	}

	progress(25, "parsing report")
	mapping := report.ParseImported(editedText)

	translations := make(map[string]string, len(mapping.KeyMappings))
	for key, text := range mapping.KeyMappings {
		translations[key] = text
	}
	briefing := mapping.BriefingFieldTexts()
	for field, text := range briefing {
		if key, found := briefingKeyInDictionary(defaultRaw, field); found {
			translations[key] = text
		}
	}

	progress(50, "substituting dictionary")
	newDict, substituted := dictfile.Substitute(defaultRaw, translations)
	targetDictPath := targetDictionaryPath(defaultPath, targetLocale)

	missionText, _ := arc.ReadText(mizfile.MissionPath)
	missionText, rewritten := rewriteBriefingFields(missionText, briefing)

	progress(75, "packaging")
	targetDir := mizfile.LocaleDir(targetLocale)
	defaultDir := mizfile.LocaleDir(dictfile.DefaultLocale)

	replaced := map[string]bool{
		mizfile.MissionPath: true,
		targetDictPath:      true,
	}
	assets := arc.LocaleAssets(dictfile.DefaultLocale)
	for _, p := range assets {
		replaced[targetDir+strings.TrimPrefix(p, defaultDir)] = true
	}

	builder := mizfile.NewBuilder()
	builder.WriteText(mizfile.MissionPath, missionText)
	for _, p := range arc.Paths() {
		if replaced[p] {
			continue
		}
		data, _ := arc.ReadBytes(p)
		builder.WriteBytes(p, data)
	}
	for _, p := range assets {
		data, _ := arc.ReadBytes(p)
		builder.WriteBytes(targetDir+strings.TrimPrefix(p, defaultDir), data)
	}
	builder.WriteText(targetDictPath, newDict)

	out, err := builder.Finish()
	if err != nil {
		return nil, err
	}
	progress(100, "done")
	return &Result{
		Archive:        out,
		Substituted:    substituted,
		BriefingFields: rewritten,
		DictionaryPath: targetDictPath,
	}, nil
}

// targetDictionaryPath keeps the DEFAULT dictionary's naming variant
// (plain or .lua) for the target locale.
func targetDictionaryPath(defaultPath, targetLocale string) string {
	base := defaultPath[strings.LastIndexByte(defaultPath, '/')+1:]
	return mizfile.LocaleDir(targetLocale) + base
}

// briefingKeyInDictionary finds the mission-generated indirect key for
// a briefing field in the raw DEFAULT dictionary text. Only confirmed
// keys join the translation map; inventing keys would desynchronize
// dictionary and mission.
func briefingKeyInDictionary(raw, field string) (string, bool) {
	re := regexp.MustCompile(`DictKey_` + regexp.QuoteMeta(field) + `_\d+`)
	key := re.FindString(raw)
	return key, key != ""
}

// rewriteBriefingFields patches edited briefing values directly in the
// mission's raw text. Values holding an indirect-reference key keep
// the indirection: their text lives in the dictionary and is handled
// by the substitution pass.
func rewriteBriefingFields(missionText string, briefing map[string]string) (string, int) {
	if missionText == "" || len(briefing) == 0 {
		return missionText, 0
	}
	rewritten := 0
	for _, bf := range extract.BriefingFields {
		text, edited := briefing[bf.Field]
		if !edited {
			continue
		}
		re := regexp.MustCompile(`(\[\s*"` + regexp.QuoteMeta(bf.Field) + `"\s*\]\s*=\s*")((?:[^"\\]|\\.)*)(")`)
		loc := re.FindStringSubmatchIndex(missionText)
		if loc == nil {
			continue
		}
		current := missionText[loc[4]:loc[5]]
		if strings.HasPrefix(current, dictfile.KeyPrefix) {
			continue
		}
		missionText = missionText[:loc[4]] + dictfile.EscapeString(text) + missionText[loc[5]:]
		rewritten++
	}
	return missionText, rewritten
}
