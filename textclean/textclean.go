// Package textclean normalizes raw scalar strings pulled out of mission
// files and classifies non-localizable system text.
//
// Clean is idempotent over its own output, so extractors may normalize
// values that already passed through a dictionary resolve. The
// system-message patterns are static ordered tables, not scattered
// conditionals, so they can be unit-tested and extended independently
// of extractor logic.
package textclean

import (
	"regexp"
	"strings"
	"unicode"
)

// ---------------------------------------------------------------------------
// Normalization
// ---------------------------------------------------------------------------

var (
	spaceRuns  = regexp.MustCompile(`[ \t]+`)
	blankLines = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
	strayEsc   = regexp.MustCompile(`\\([^n\\])`)
)

// Clean normalizes a raw scalar: trims, strips one layer of surviving
// quote characters, unescapes \n \t \" \' \\, collapses tab/space runs
// to a single space, strips stray backslashes not followed by 'n',
// and collapses blank lines. Returns ok=false for an empty result.
//
// The pass repeats until the text is stable, so Clean is idempotent
// even when a quote layer only surfaces after unescaping (input
// \"hello\" cleans to hello, not to "hello").
func Clean(raw string) (string, bool) {
	s := raw
	for {
		next := cleanPass(s)
		if next == s {
			break
		}
		s = next
	}
	if s == "" {
		return "", false
	}
	return s, true
}

// cleanPass is one normalization sweep. Every rewrite either shortens
// the text or simplifies a character in place, so the Clean loop
// reaches a fixed point.
func cleanPass(raw string) string {
	s := strings.TrimSpace(raw)

	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			s = s[1 : len(s)-1]
		}
	}

	s = unescape(s)
	s = spaceRuns.ReplaceAllString(s, " ")
	s = strayEsc.ReplaceAllString(s, "$1")
	s = strings.TrimSuffix(s, `\`)
	s = blankLines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// unescape resolves the escape sequences the table-language string
// grammar produces: \n \t \" \' \\. Other sequences pass through for
// the stray-backslash pass.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '"':
			b.WriteByte('"')
		case '\'':
			b.WriteByte('\'')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(s[i])
			continue
		}
		i++
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// System-message classification
// ---------------------------------------------------------------------------

// Pattern is one non-localizable message shape with the intent it covers.
type Pattern struct {
	Intent string
	Re     *regexp.Regexp
}

// SystemPatterns lists the known non-localizable device/UI message
// shapes, in match order. These strings come from aircraft systems
// (jammer, countermeasures) or scripted counters and are never meant
// for player-facing translation.
var SystemPatterns = []Pattern{
	{"jammer-status", regexp.MustCompile(`(?i)^JAMMER\s+(READY|ACTIVE|COOLING|OVERHEAT|OFF)\b`)},
	{"ecm-status", regexp.MustCompile(`(?i)^ECM\s+(ON|OFF|ACTIVE|STANDBY)\b`)},
	{"cms-status", regexp.MustCompile(`(?i)^CMS\s+(AUTO|SEMI|MAN|MANUAL|OFF|BYPASS)\b`)},
	{"countdown", regexp.MustCompile(`(?i)^\d+\s+(SECOND|SECONDS|SEC|MINUTE|MINUTES|MIN)(\s+(LEFT|REMAINING|TO\s+\w+))?$`)},
	{"timer", regexp.MustCompile(`^T[+-]\s*\d+([:.]\d+)*$`)},
	{"clock", regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)},
	{"equipment-state", regexp.MustCompile(`(?i)^(ON|OFF|ACTIVE|INACTIVE|ARMED|SAFE|READY|STANDBY|ONLINE|OFFLINE|ENABLED|DISABLED|EMPTY|RELOADING)$`)},
	{"numeric", regexp.MustCompile(`^[\d\s.,:%/+-]+$`)},
}

// RadioMenuPhrases lists fixed radio-menu boilerplate lines (F10 menu
// entries, point-shop labels) that are game UI, not mission dialogue.
var RadioMenuPhrases = []string{
	"Contact Tower",
	"Request Takeoff",
	"Request Landing",
	"Request Startup",
	"Request Taxi",
	"Ready for Takeoff",
	"Abort Takeoff",
	"Inbound",
	"Point Shop",
	"Buy",
	"Open Shop",
	"Other...",
	"Main Menu",
}

// actionKeyRe matches context keys whose values flow through trigger
// action text fields, the only place system noise appears.
var actionKeyRe = regexp.MustCompile(`Action(Radio)?Text`)

// IsSystemMessage reports whether text is non-localizable system noise.
// The filter applies only to values reached through ActionText /
// ActionRadioText context keys; everything else is assumed authored.
func IsSystemMessage(text, contextKey string) bool {
	if !actionKeyRe.MatchString(contextKey) {
		return false
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	for _, p := range SystemPatterns {
		if p.Re.MatchString(trimmed) {
			return true
		}
	}
	if IsRadioMenuMessage(trimmed) {
		return true
	}

	// Catch-all: short strings that are entirely upper-case, digits and
	// punctuation are device readouts (e.g. "JAMMER COOLING 9 MINUTE"
	// variants the explicit patterns miss).
	words := strings.Fields(trimmed)
	if len(words) <= 3 && isShoutyToken(trimmed) {
		return true
	}
	return false
}

// IsRadioMenuMessage reports whether text is fixed radio-menu
// boilerplate rather than mission dialogue.
func IsRadioMenuMessage(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, phrase := range RadioMenuPhrases {
		if strings.EqualFold(trimmed, phrase) {
			return true
		}
	}
	return false
}

// isShoutyToken reports whether s contains at least one letter or digit
// and no lower-case letters.
func isShoutyToken(s string) bool {
	hasContent := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			hasContent = true
		}
	}
	return hasContent
}
