// Package mizfile implements reading and writing of .miz mission
// archives — ZIP containers with a fixed layout:
//
//	mission                          table-language mission document (required)
//	l10n/<LOCALE>/dictionary[.lua]   table-language dictionary, one per locale
//	l10n/<LOCALE>/mapResource[.lua]  optional table-language resource map
//	l10n/<LOCALE>/*                  opaque per-locale assets (sounds, images)
//
// The archive is loaded fully into memory: mission archives are small
// and every operation on them is a synchronous byte transform.
package mizfile

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrInvalidArchive marks data that is not a valid mission archive or
// lacks the required mission entry. Fatal for both read and write paths.
var ErrInvalidArchive = errors.New("invalid mission archive")

// ErrMissingDefaultDictionary marks an archive without a DEFAULT locale
// dictionary. Fatal for round-trip import only — extraction falls back
// to the first available locale.
var ErrMissingDefaultDictionary = errors.New("archive has no DEFAULT dictionary")

// MissionPath is the archive path of the mission document.
const MissionPath = "mission"

const localePrefix = "l10n/"

// DictionaryPaths returns the candidate archive paths for a locale's
// dictionary, in lookup order.
func DictionaryPaths(locale string) []string {
	dir := localePrefix + locale + "/"
	return []string{dir + "dictionary", dir + "dictionary.lua"}
}

// MapResourcePaths returns the candidate archive paths for a locale's
// resource map, in lookup order.
func MapResourcePaths(locale string) []string {
	dir := localePrefix + locale + "/"
	return []string{dir + "mapResource", dir + "mapResource.lua"}
}

// LocaleDir returns the archive directory prefix of a locale.
func LocaleDir(locale string) string { return localePrefix + locale + "/" }

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// Archive is a fully loaded mission archive.
type Archive struct {
	paths []string
	files map[string][]byte
}

// Open reads a mission archive from raw bytes. The archive must be a
// valid ZIP container with a mission entry.
func Open(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	a := &Archive{files: make(map[string][]byte)}
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, "/") {
			continue // directory entry
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidArchive, zf.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidArchive, zf.Name, err)
		}
		if _, dup := a.files[zf.Name]; !dup {
			a.paths = append(a.paths, zf.Name)
		}
		a.files[zf.Name] = content
	}

	if _, ok := a.files[MissionPath]; !ok {
		return nil, fmt.Errorf("%w: no %s entry", ErrInvalidArchive, MissionPath)
	}
	return a, nil
}

// Paths lists all file paths in archive order.
func (a *Archive) Paths() []string { return a.paths }

// ReadBytes returns the raw content of path.
func (a *Archive) ReadBytes(path string) ([]byte, bool) {
	b, ok := a.files[path]
	return b, ok
}

// ReadText returns the content of path as a string.
func (a *Archive) ReadText(path string) (string, bool) {
	b, ok := a.files[path]
	if !ok {
		return "", false
	}
	return string(b), true
}

// Locales lists the locale names present under l10n/, sorted.
func (a *Archive) Locales() []string {
	seen := make(map[string]bool)
	var locales []string
	for _, p := range a.paths {
		rest, ok := strings.CutPrefix(p, localePrefix)
		if !ok {
			continue
		}
		name, _, ok := strings.Cut(rest, "/")
		if !ok || name == "" || seen[name] {
			continue
		}
		seen[name] = true
		locales = append(locales, name)
	}
	sort.Strings(locales)
	return locales
}

// Dictionary returns the raw dictionary text of a locale and the path
// it was found at, trying both naming variants.
func (a *Archive) Dictionary(locale string) (text, path string, ok bool) {
	for _, p := range DictionaryPaths(locale) {
		if t, found := a.ReadText(p); found {
			return t, p, true
		}
	}
	return "", "", false
}

// MapResource returns the raw resource map text of a locale, trying
// both naming variants.
func (a *Archive) MapResource(locale string) (text, path string, ok bool) {
	for _, p := range MapResourcePaths(locale) {
		if t, found := a.ReadText(p); found {
			return t, p, true
		}
	}
	return "", "", false
}

// LocaleAssets lists every path under a locale except its dictionary
// files — the opaque assets inherited verbatim during import.
func (a *Archive) LocaleAssets(locale string) []string {
	dict := make(map[string]bool)
	for _, p := range DictionaryPaths(locale) {
		dict[p] = true
	}
	var assets []string
	for _, p := range a.paths {
		if strings.HasPrefix(p, LocaleDir(locale)) && !dict[p] {
			assets = append(assets, p)
		}
	}
	return assets
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Builder assembles a new mission archive.
type Builder struct {
	buf bytes.Buffer
	zw  *zip.Writer
	err error
}

// NewBuilder creates an empty archive builder.
func NewBuilder() *Builder {
	b := &Builder{}
	b.zw = zip.NewWriter(&b.buf)
	return b
}

// WriteBytes adds a file entry. Errors stick until Finish.
func (b *Builder) WriteBytes(path string, data []byte) {
	if b.err != nil {
		return
	}
	w, err := b.zw.Create(path)
	if err != nil {
		b.err = fmt.Errorf("creating %s: %w", path, err)
		return
	}
	if _, err := w.Write(data); err != nil {
		b.err = fmt.Errorf("writing %s: %w", path, err)
	}
}

// WriteText adds a text file entry.
func (b *Builder) WriteText(path, text string) {
	b.WriteBytes(path, []byte(text))
}

// Finish closes the archive and returns its bytes.
func (b *Builder) Finish() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return b.buf.Bytes(), nil
}
