// mizkit — Mission Localization Kit: extracts translatable strings from
// DCS mission archives into editable reports and injects edited reports
// back as new locales.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dcs-tools/mizkit/config"
	"github.com/dcs-tools/mizkit/dictfile"
	"github.com/dcs-tools/mizkit/extract"
	"github.com/dcs-tools/mizkit/i18n"
	"github.com/dcs-tools/mizkit/inject"
	"github.com/dcs-tools/mizkit/localemeta"
	"github.com/dcs-tools/mizkit/lockfile"
	"github.com/dcs-tools/mizkit/luatable"
	"github.com/dcs-tools/mizkit/mizfile"
	"github.com/dcs-tools/mizkit/report"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// progressBar renders a colored bar for a 0-100 percentage.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent > 0:
		color = colorYellow
	}

	return fmt.Sprintf("%s%s%s%s %3d%%",
		color,
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		colorReset,
		percent)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mizkit",
		Short: "Mission Localization Kit: mission archive string extraction and re-injection",
		Long: `mizkit — Mission Localization Kit for DCS .miz archives.

Extracts briefing, trigger, radio, task, unit and waypoint strings from
a mission archive into an editable report, and injects the edited
report back as a new locale — preserving the original dictionary's
byte layout outside the translated values.

Commands:
  status      Show mission targets and per-locale translation coverage
  extract     Extract strings from a mission into a report
  import      Inject an edited report into a mission as a new locale
  locales     List the locales present in a mission archive`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newStatusCmd(),
		newExtractCmd(),
		newImportCmd(),
		newLocalesCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mizkit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// Archive loading shared by commands
// ---------------------------------------------------------------------------

// loadedMiz bundles everything a command needs from one archive.
type loadedMiz struct {
	arc       *mizfile.Archive
	mission   *luatable.Value
	dicts     map[string]*dictfile.File
	resources dictfile.Dictionary
}

func loadMiz(path, locale string) (*loadedMiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	arc, err := mizfile.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	missionText, _ := arc.ReadText(mizfile.MissionPath)
	mission := luatable.Decode(missionText)

	dicts := make(map[string]*dictfile.File)
	for _, loc := range arc.Locales() {
		if raw, _, ok := arc.Dictionary(loc); ok {
			dicts[loc] = dictfile.Parse(raw)
		}
	}

	resources := dictfile.Dictionary{}
	for _, loc := range []string{dictfile.DefaultLocale, locale} {
		if raw, _, ok := arc.MapResource(loc); ok {
			for key, val := range dictfile.Parse(raw).Entries() {
				resources[key] = val
			}
		}
	}

	return &loadedMiz{arc: arc, mission: mission, dicts: dicts, resources: resources}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// splitList splits a comma-separated flag value, dropping empty parts.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseCategories(names []string) ([]extract.Category, error) {
	var cats []extract.Category
	for _, name := range names {
		cat, ok := extract.ParseCategory(name)
		if !ok {
			return nil, fmt.Errorf("unknown category %q (valid: Briefing, Trigger, Radio, Task, Unit, Waypoint)", name)
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

func progressLogger() extract.ProgressFunc {
	return func(percent int, status string) {
		logInfo("%s %s", progressBar(percent, 20), status)
	}
}

// ---------------------------------------------------------------------------
// extract (mission -> editable report)
// ---------------------------------------------------------------------------

func newExtractCmd() *cobra.Command {
	var (
		locale     string
		categories string
		format     string
		output     string
		noLock     bool
	)

	cmd := &cobra.Command{
		Use:   "extract <mission.miz>",
		Short: "Extract strings from a mission into a report",
		Long: `Extract translatable strings from a mission archive.

By default extracts the focused category set (Briefing, Trigger, Radio)
for the DEFAULT locale and writes a plain-text report next to the
archive. Use --categories to select others, --format json for the
structured report, and --output - to print to stdout.

Also records source-string checksums in mizkit.lock so a later import
can warn when the report was produced from an older mission version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := parseCategories(splitList(categories))
			if err != nil {
				return err
			}
			if format != config.FormatText && format != config.FormatJSON {
				return fmt.Errorf("unknown format %q (valid: text, json)", format)
			}
			return runExtract(args[0], locale, cats, format, output, !noLock)
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", dictfile.DefaultLocale, "Locale to extract")
	cmd.Flags().StringVarP(&categories, "categories", "c", "", "Categories to extract (comma-separated; default: Briefing,Trigger,Radio)")
	cmd.Flags().StringVarP(&format, "format", "f", config.FormatText, "Report format: text or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Report file path ('-' for stdout)")
	cmd.Flags().BoolVar(&noLock, "no-lock", false, "Skip mizkit.lock update")

	return cmd
}

func runExtract(mizPath, locale string, cats []extract.Category, format, output string, updateLock bool) error {
	logInfo(i18n.T("Extracting strings from %s"), mizPath)

	miz, err := loadMiz(mizPath, locale)
	if err != nil {
		return err
	}

	result := extract.Extract(miz.mission, miz.dicts, extract.Options{
		Locale:     locale,
		Categories: cats,
		Resources:  miz.resources,
		OnProgress: progressLogger(),
	})

	for _, msg := range result.Validation.Errors {
		logError("%s", msg)
	}
	for _, msg := range result.Validation.Warnings {
		logWarning("%s", msg)
	}
	if !result.Validation.IsComplete {
		logWarning(i18n.T("mission is missing required categories"))
	}

	var rendered string
	if format == config.FormatJSON {
		rendered, err = report.FormatJSON(result)
		if err != nil {
			return err
		}
	} else {
		rendered = report.FormatText(result)
	}

	if output == "" {
		output = defaultReportPath(mizPath, locale, format)
	}
	if output == "-" {
		fmt.Print(rendered)
	} else {
		if err := os.WriteFile(output, []byte(rendered), 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		logSuccess(i18n.T("Report written to %s"), output)
	}

	logInfo(i18n.N("Found %d string", "Found %d strings", result.Stats.Total), result.Stats.Total)
	for _, cat := range extract.AllCategories {
		if n, ok := result.Stats.ByCategory[cat]; ok {
			logInfo("  %-10s %d", cat, n)
		}
	}

	if updateLock {
		if err := recordLock(mizPath, locale, result); err != nil {
			logWarning("%v", err)
		}
	}
	return nil
}

// defaultReportPath places the report next to the archive:
// missions/training.miz -> missions/training.RU.txt.
func defaultReportPath(mizPath, locale, format string) string {
	ext := ".txt"
	if format == config.FormatJSON {
		ext = ".json"
	}
	base := strings.TrimSuffix(mizPath, filepath.Ext(mizPath))
	return base + "." + locale + ext
}

func lockEntries(result *extract.Result) map[string]string {
	entries := make(map[string]string)
	for _, items := range result.Items {
		for _, item := range items {
			entries[item.Context] = lockfile.EntryContent(item.Context, item.Text)
		}
	}
	return entries
}

func recordLock(mizPath, locale string, result *extract.Result) error {
	lf, err := lockfile.Load(rootDir)
	if err != nil {
		return err
	}
	lf.UpdateBatch(lockfile.TargetKey(mizPath, locale), lockEntries(result))
	return lf.Save()
}

// ---------------------------------------------------------------------------
// import (edited report -> mission archive with a new locale)
// ---------------------------------------------------------------------------

func newImportCmd() *cobra.Command {
	var (
		locale string
		output string
	)

	cmd := &cobra.Command{
		Use:   "import <mission.miz> <report.txt>",
		Short: "Inject an edited report into a mission as a new locale",
		Long: `Inject an edited plain-text report back into a mission archive.

Builds the target locale from the DEFAULT locale: all DEFAULT assets
are copied verbatim, and the new dictionary is the raw DEFAULT
dictionary text with the translated values substituted in place. The
rest of the archive is untouched.

If mizkit.lock has checksums for this mission, a warning is printed
when the mission's source strings changed since the report was
extracted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if locale == "" {
				return fmt.Errorf("--locale is required")
			}
			return runImport(args[0], args[1], localemeta.Canonicalize(locale), output)
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", "", "Target locale (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output archive path (default: <mission>.<locale>.miz)")

	return cmd
}

func runImport(mizPath, reportPath, locale, output string) error {
	logInfo(i18n.T("Importing %s into locale %s"), reportPath, locale)

	if !localemeta.Known(locale) {
		logWarning("locale %s is not a known mission locale", locale)
	}

	data, err := os.ReadFile(mizPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", mizPath, err)
	}
	edited, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", reportPath, err)
	}

	warnIfStale(mizPath)

	res, err := inject.Run(data, string(edited), locale, inject.Options{
		OnProgress: progressLogger(),
	})
	if err != nil {
		return err
	}

	if output == "" {
		output = defaultImportOutput(mizPath, locale)
	}
	if err := os.WriteFile(output, res.Archive, 0644); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}

	logSuccess(i18n.T("Archive written to %s"), output)
	logInfo("%d dictionary values substituted, %d briefing fields rewritten, dictionary at %s",
		res.Substituted, res.BriefingFields, res.DictionaryPath)
	return nil
}

// warnIfStale re-extracts the mission's current DEFAULT strings and
// compares them against the checksums recorded when the report was
// generated.
func warnIfStale(mizPath string) {
	lf, err := lockfile.Load(rootDir)
	if err != nil {
		return
	}
	target := lockfile.TargetKey(mizPath, dictfile.DefaultLocale)
	if !hasLockTarget(lf, target) {
		return
	}

	miz, err := loadMiz(mizPath, dictfile.DefaultLocale)
	if err != nil {
		return
	}
	result := extract.Extract(miz.mission, miz.dicts, extract.Options{Resources: miz.resources})
	changed := lf.FilterChanged(target, lockEntries(result))
	if len(changed) > 0 {
		logWarning(i18n.N(
			"report may be stale: %d source string changed since extraction",
			"report may be stale: %d source strings changed since extraction",
			len(changed)), len(changed))
	}
}

func hasLockTarget(lf *lockfile.LockFile, target string) bool {
	for _, t := range lf.Targets() {
		if t == target {
			return true
		}
	}
	return false
}

// defaultImportOutput keeps the original archive untouched:
// missions/training.miz -> missions/training.RU.miz.
func defaultImportOutput(mizPath, locale string) string {
	ext := filepath.Ext(mizPath)
	return strings.TrimSuffix(mizPath, ext) + "." + locale + ext
}

// ---------------------------------------------------------------------------
// locales (list locales in an archive)
// ---------------------------------------------------------------------------

func newLocalesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locales <mission.miz>",
		Short: "List the locales present in a mission archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocales(args[0])
		},
	}

	return cmd
}

func runLocales(mizPath string) error {
	data, err := os.ReadFile(mizPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", mizPath, err)
	}
	arc, err := mizfile.Open(data)
	if err != nil {
		return fmt.Errorf("%s: %w", mizPath, err)
	}

	fmt.Printf(i18n.T("Locales in %s:")+"\n", mizPath)
	for _, loc := range arc.Locales() {
		meta := localemeta.Resolve(loc)
		entries := 0
		if raw, _, ok := arc.Dictionary(loc); ok {
			entries = dictfile.Parse(raw).Len()
		}
		assets := len(arc.LocaleAssets(loc))
		fmt.Printf("  %s %-8s %-22s %4d dictionary entries, %d assets\n",
			meta.Flag, loc, meta.Name, entries, assets)
	}
	return nil
}

// ---------------------------------------------------------------------------
// status (config-driven overview of mission targets)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show mission targets and per-locale translation coverage",
		Long: `Show the mission targets declared in .mizkit.yaml with per-locale
translation coverage: how many of the DEFAULT dictionary's extracted
keys each locale's dictionary overrides. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}

	return cmd
}

func runStatus() error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("no %s found in %s", config.FileName, rootDir)
	}

	resolved, err := cfg.Resolve(rootDir)
	if err != nil {
		return err
	}

	lf, err := lockfile.Load(rootDir)
	if err != nil {
		return err
	}

	for _, rm := range resolved {
		fmt.Printf("%s (%s)\n", rm.Mission.Name, rm.Mission.Path)
		if !fileExists(rm.AbsPath) {
			logWarning("archive not found: %s", rm.AbsPath)
			continue
		}

		miz, err := loadMiz(rm.AbsPath, cfg.SourceLocale)
		if err != nil {
			logError("%v", err)
			continue
		}

		result := extract.Extract(miz.mission, miz.dicts, extract.Options{
			Locale:     cfg.SourceLocale,
			Categories: rm.ExtractCategories(),
			Resources:  miz.resources,
		})
		fmt.Printf("  %s  ", progressBar(completeness(result), 20))
		fmt.Printf(i18n.N("Found %d string", "Found %d strings", result.Stats.Total)+"\n", result.Stats.Total)

		locales := rm.Locales
		if len(locales) == 0 {
			locales = presentLocales(miz)
		}
		for _, loc := range locales {
			meta := localemeta.Resolve(loc)
			percent := coverage(result, miz.dicts[localemeta.Canonicalize(loc)])
			fmt.Printf("  %s %-8s %s\n", meta.Flag, loc, progressBar(percent, 20))
		}

		target := lockfile.TargetKey(rm.Mission.Path, cfg.SourceLocale)
		if hasLockTarget(lf, target) {
			if changed := lf.FilterChanged(target, lockEntries(result)); len(changed) > 0 {
				logWarning("%d strings changed since the last extraction of %s", len(changed), rm.Mission.Name)
			}
		}
		fmt.Println()
	}
	return nil
}

// completeness folds the validation state into a coarse percentage for
// the status bar.
func completeness(result *extract.Result) int {
	if result.Validation.IsComplete {
		return 100
	}
	present := 0
	for _, cat := range extract.AutoCategories {
		if len(result.Items[cat]) > 0 {
			present++
		}
	}
	return present * 100 / len(extract.AutoCategories)
}

// coverage counts how many keyed source items a locale dictionary
// overrides.
func coverage(result *extract.Result, dict *dictfile.File) int {
	if dict == nil {
		return 0
	}
	total, translated := 0, 0
	for _, items := range result.Items {
		for _, item := range items {
			if !strings.HasPrefix(item.Context, dictfile.KeyPrefix) {
				continue
			}
			total++
			if _, ok := dict.Get(item.Context); ok {
				translated++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return translated * 100 / total
}

// presentLocales lists non-DEFAULT locales found in the archive.
func presentLocales(miz *loadedMiz) []string {
	var locales []string
	for loc := range miz.dicts {
		if loc != dictfile.DefaultLocale {
			locales = append(locales, loc)
		}
	}
	sort.Strings(locales)
	return locales
}
