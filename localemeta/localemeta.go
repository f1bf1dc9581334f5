// Package localemeta provides a shared mission-locale metadata registry
// (native names and emoji flags) used across report output and CLI UI.
//
// Mission archives name locales with short uppercase directory codes
// under l10n/ rather than BCP 47 tags; Resolve maps common ISO codes
// onto them.
package localemeta

import "strings"

// Meta describes locale display metadata.
type Meta struct {
	Name string
	Flag string
}

// DefaultLocale is the fallback locale every mission carries.
const DefaultLocale = "DEFAULT"

// Registry contains canonical locale metadata, keyed by the l10n/
// directory code.
var Registry = map[string]Meta{
	"DEFAULT": {Name: "Default", Flag: "🏳️"},
	"EN":      {Name: "English", Flag: "🇺🇸"},
	"RU":      {Name: "Русский", Flag: "🇷🇺"},
	"DE":      {Name: "Deutsch", Flag: "🇩🇪"},
	"ES":      {Name: "Español", Flag: "🇪🇸"},
	"FR":      {Name: "Français", Flag: "🇫🇷"},
	"IT":      {Name: "Italiano", Flag: "🇮🇹"},
	"CS":      {Name: "Čeština", Flag: "🇨🇿"},
	"PL":      {Name: "Polski", Flag: "🇵🇱"},
	"TR":      {Name: "Türkçe", Flag: "🇹🇷"},
	"UK":      {Name: "Українська", Flag: "🇺🇦"},
	"CN":      {Name: "中文", Flag: "🇨🇳"},
	"CHS":     {Name: "简体中文", Flag: "🇨🇳"},
	"JP":      {Name: "日本語", Flag: "🇯🇵"},
	"KR":      {Name: "한국어", Flag: "🇰🇷"},
	"BR":      {Name: "Português (Brasil)", Flag: "🇧🇷"},
}

// isoAliases maps lowercase ISO 639-1 codes onto locale directory codes
// where the two differ.
var isoAliases = map[string]string{
	"ja": "JP",
	"ko": "KR",
	"zh": "CN",
	"pt": "BR",
}

// Canonicalize normalizes a user-supplied locale name to its directory
// code form: trimmed, uppercased, ISO aliases resolved.
func Canonicalize(locale string) string {
	trimmed := strings.TrimSpace(locale)
	if trimmed == "" {
		return ""
	}
	// strip a region subtag: zh-CN, pt_BR
	base := trimmed
	if idx := strings.IndexAny(base, "-_"); idx > 0 {
		base = base[:idx]
	}
	if code, ok := isoAliases[strings.ToLower(base)]; ok {
		return code
	}
	return strings.ToUpper(base)
}

// Resolve returns best-effort locale metadata, falling back to the
// given name when the code is unknown.
func Resolve(locale string) Meta {
	if m, ok := Registry[locale]; ok {
		return m
	}
	if m, ok := Registry[Canonicalize(locale)]; ok {
		return m
	}
	return Meta{Name: locale, Flag: ""}
}

// Known reports whether a locale code (after canonicalization) is in
// the registry.
func Known(locale string) bool {
	_, ok := Registry[Canonicalize(locale)]
	return ok
}
