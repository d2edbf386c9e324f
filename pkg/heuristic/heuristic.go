// Package heuristic guesses demographic attributes from plain page text using
// pronoun counting and ordered keyword rules.
package heuristic

import (
	"regexp"
	"strings"
)

// Sex labels produced by Gender.
const (
	SexMale    = "Male"
	SexFemale  = "Female"
	SexUnknown = "Unknown"
)

// RaceUnavailable is returned when no ethnicity rule matches.
const RaceUnavailable = "Information not available"

var (
	malePronouns   = regexp.MustCompile(`\bhe\b|\bhis\b|\bhim\b`)
	femalePronouns = regexp.MustCompile(`\bshe\b|\bher\b|\bhers\b`)

	// "born to ... family/parents" spans often name ethnicity when the page
	// body never does directly.
	birthContext = regexp.MustCompile(`born to .{5,100}?(family|parents|mother|father)`)
)

// Gender counts whole-word he/his/him against she/her/hers in the lowercased
// text. The strictly larger count wins; a tie (including 0-0) is Unknown.
func Gender(text string) string {
	lower := strings.ToLower(text)
	he := len(malePronouns.FindAllString(lower, -1))
	she := len(femalePronouns.FindAllString(lower, -1))

	switch {
	case he > she:
		return SexMale
	case she > he:
		return SexFemale
	default:
		return SexUnknown
	}
}

// Rule pairs a category label with its lowercase trigger terms. Rules are
// scanned in slice order and the first match wins, so a text containing
// triggers for several categories always reports the earliest declared one.
// That ordering is load-bearing for reproducibility.
type Rule struct {
	Label string
	Terms []string
}

// DefaultRules returns the built-in ethnicity rules in their fixed scan order.
func DefaultRules() []Rule {
	return []Rule{
		{Label: "African American/Black", Terms: []string{
			"african american", "african-american", "black american", "black",
			"african descent", "nigerian", "kenyan", "jamaican", "haitian",
		}},
		{Label: "White/Caucasian", Terms: []string{
			"caucasian", "white american", "european american", "white",
			"irish", "italian", "german", "english", "scottish", "french",
		}},
		{Label: "Hispanic/Latino", Terms: []string{
			"hispanic", "latino", "latina", "latinx", "mexican", "puerto rican",
			"cuban", "dominican", "spanish", "colombian", "venezuelan",
		}},
		{Label: "Asian", Terms: []string{
			"asian", "chinese", "japanese", "korean", "vietnamese", "filipino",
			"indian", "pakistani", "bangladeshi", "thai", "cambodian",
		}},
		{Label: "Mixed Race", Terms: []string{
			"mixed race", "biracial", "multiracial", "mixed heritage",
		}},
		{Label: "Native American", Terms: []string{
			"native american", "indigenous", "american indian", "cherokee",
			"navajo", "sioux", "apache",
		}},
	}
}

// Ethnicity scans the rules in order for a whole-word trigger match in the
// lowercased text. When nothing matches directly it retries against a
// "born to ..." span using plain substring containment, the second pass being
// deliberately looser than the first.
func Ethnicity(text string, rules []Rule) string {
	lower := strings.ToLower(text)

	for _, rule := range rules {
		for _, term := range rule.Terms {
			if wholeWordMatch(lower, term) {
				return rule.Label
			}
		}
	}

	if span := birthContext.FindString(lower); span != "" {
		for _, rule := range rules {
			for _, term := range rule.Terms {
				if strings.Contains(span, term) {
					return rule.Label
				}
			}
		}
	}

	return RaceUnavailable
}

func wholeWordMatch(lower, term string) bool {
	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	return pattern.MatchString(lower)
}
