// Package namefilter decides whether a display name denotes a human rather
// than an organizational account. The filter favors precision over recall: a
// human surname that collides with a blocked token is an accepted loss.
package namefilter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold decomposes accented characters and drops whatever cannot be
// represented in plain ASCII (emoji, combining marks, CJK).
var asciiFold = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// DefaultBlocklist returns the organizational keyword list. It mixes generic
// corporate terms with account names specific to one campus's social scene;
// the mix is preserved as-is from the data this filter was tuned on.
func DefaultBlocklist() []string {
	return []string{
		"ucla", "store", "club", "official", "university", "association", "group",
		"organization", "school", "community", "foundation", "society", "team",
		"committee", "company", "inc", "corp", "llc", "association", "the",
		"enabler", "athletics", "admission", "engineering", "barstool", "school",
		"den", "backpacking", "sjp", "shop", "tuned", "metronome", "samueli",
		"undergraduate", "what's bruin", "berkeley", "official",
	}
}

// Normalize strips non-letter, non-space characters and transliterates the
// result to an ASCII approximation.
func Normalize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	folded, _, err := transform.String(asciiFold, b.String())
	if err != nil {
		folded = b.String()
	}
	return strings.TrimSpace(folded)
}

// IsHuman reports whether name looks like a person rather than an
// organization. A name is rejected when any whitespace token of its lowercased
// normalized form exactly matches a blocklist entry, or when the original name
// is entirely upper-case and longer than 3 runes.
func IsHuman(name string, blocklist []string) bool {
	tokens := strings.Fields(strings.ToLower(Normalize(name)))
	for _, keyword := range blocklist {
		for _, token := range tokens {
			if token == keyword {
				return false
			}
		}
	}

	if allUpper(name) && utf8.RuneCountInString(name) > 3 {
		return false
	}

	return true
}

// allUpper reports whether the string contains at least one cased rune and no
// lowercase ones.
func allUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
