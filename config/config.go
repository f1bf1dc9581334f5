// Package config — .mizkit.yaml configuration file support.
//
// When a .mizkit.yaml file exists in the project root, mizkit uses it
// as the sole source of truth for mission targets. No auto-detection
// is performed — every mission must be explicitly declared.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dcs-tools/mizkit/extract"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .mizkit.yaml structure.
type File struct {
	// Locales is the default target-locale list for all missions
	// (can be overridden per mission).
	Locales []string `yaml:"locales,omitempty"`
	// SourceLocale is the locale extracted from (default "DEFAULT").
	SourceLocale string `yaml:"source_locale,omitempty"`
	// Format is the default report format: "text" or "json".
	Format string `yaml:"format,omitempty"`
	// Missions is the list of mission targets.
	Missions []Mission `yaml:"missions"`
}

// Mission describes a single mission archive target.
type Mission struct {
	// Name is a human-readable label shown in status/logs.
	Name string `yaml:"name"`
	// Path is the .miz archive path relative to .mizkit.yaml.
	Path string `yaml:"path"`
	// ReportsDir is where reports are written, relative to .mizkit.yaml
	// (default "reports").
	ReportsDir string `yaml:"reports_dir,omitempty"`

	// --- overrides ---

	// Locales overrides the global target-locale list for this mission.
	Locales []string `yaml:"locales,omitempty"`
	// Categories restricts extraction; empty means automatic mode.
	Categories []string `yaml:"categories,omitempty"`
	// Format overrides the global report format.
	Format string `yaml:"format,omitempty"`
}

// FormatText renders reports as editable plain text.
const FormatText = "text"

// FormatJSON renders reports as structured JSON.
const FormatJSON = "json"

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// FileName is the default config file name.
const FileName = ".mizkit.yaml"

// Load loads and validates .mizkit.yaml from the given directory.
// Returns nil if no .mizkit.yaml exists.
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// Defaults
	if f.SourceLocale == "" {
		f.SourceLocale = "DEFAULT"
	}
	if f.Format == "" {
		f.Format = FormatText
	}
	if f.Format != FormatText && f.Format != FormatJSON {
		return nil, fmt.Errorf("%s: unknown format %q (valid: text, json)", path, f.Format)
	}

	// Validate & resolve missions
	for i := range f.Missions {
		m := &f.Missions[i]

		if m.Name == "" {
			return nil, fmt.Errorf("%s: mission #%d has no name", path, i+1)
		}
		if m.Path == "" {
			return nil, fmt.Errorf("%s: mission %q has no path", path, m.Name)
		}

		if m.ReportsDir == "" {
			m.ReportsDir = "reports"
		}

		// Inherit global settings if not overridden
		if len(m.Locales) == 0 {
			m.Locales = f.Locales
		}
		if m.Format == "" {
			m.Format = f.Format
		}
		if m.Format != FormatText && m.Format != FormatJSON {
			return nil, fmt.Errorf("%s: mission %q has unknown format %q (valid: text, json)", path, m.Name, m.Format)
		}

		for _, c := range m.Categories {
			if _, ok := extract.ParseCategory(c); !ok {
				return nil, fmt.Errorf("%s: mission %q has unknown category %q", path, m.Name, c)
			}
		}
	}

	return &f, nil
}

// ---------------------------------------------------------------------------
// Resolving missions
// ---------------------------------------------------------------------------

// ResolvedMission holds a fully resolved mission target with absolute paths.
type ResolvedMission struct {
	Mission       Mission
	AbsPath       string
	AbsReportsDir string
	Locales       []string
}

// Resolve converts a File into a list of ResolvedMissions with
// absolute paths.
func (f *File) Resolve(projectRoot string) ([]ResolvedMission, error) {
	absProjectRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	var resolved []ResolvedMission
	for _, m := range f.Missions {
		resolved = append(resolved, ResolvedMission{
			Mission:       m,
			AbsPath:       filepath.Join(absProjectRoot, m.Path),
			AbsReportsDir: filepath.Join(absProjectRoot, m.ReportsDir),
			Locales:       m.Locales,
		})
	}

	return resolved, nil
}

// ExtractCategories maps the mission's category names to extract
// categories. Empty means automatic mode.
func (rm *ResolvedMission) ExtractCategories() []extract.Category {
	var cats []extract.Category
	for _, c := range rm.Mission.Categories {
		if cat, ok := extract.ParseCategory(c); ok {
			cats = append(cats, cat)
		}
	}
	return cats
}

// ReportPath returns the report file path for a locale.
func (rm *ResolvedMission) ReportPath(locale string) string {
	ext := ".txt"
	if rm.Mission.Format == FormatJSON {
		ext = ".json"
	}
	base := strings.TrimSuffix(filepath.Base(rm.Mission.Path), filepath.Ext(rm.Mission.Path))
	return filepath.Join(rm.AbsReportsDir, base+"."+locale+ext)
}

// AllLocales returns the deduplicated union of all mission locales.
func (f *File) AllLocales() []string {
	seen := make(map[string]bool)
	var all []string
	for _, m := range f.Missions {
		for _, locale := range m.Locales {
			if !seen[locale] {
				seen[locale] = true
				all = append(all, locale)
			}
		}
	}
	sort.Strings(all)
	return all
}
