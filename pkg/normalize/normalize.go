// Package normalize canonicalizes organization names for duplicate detection.
//
// The keys produced here are only ever used for comparison. Display names are
// stored exactly as submitted.
package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// stateAbbreviations maps US state and territory abbreviations to their full
// names. "co" is absent because it is handled as a corporate suffix.
var stateAbbreviations = map[string]string{
	"al":  "alabama",
	"ak":  "alaska",
	"az":  "arizona",
	"ar":  "arkansas",
	"ca":  "california",
	"ct":  "connecticut",
	"de":  "delaware",
	"fl":  "florida",
	"ga":  "georgia",
	"hi":  "hawaii",
	"id":  "idaho",
	"il":  "illinois",
	"in":  "indiana",
	"ia":  "iowa",
	"ks":  "kansas",
	"ky":  "kentucky",
	"la":  "louisiana",
	"me":  "maine",
	"md":  "maryland",
	"ma":  "massachusetts",
	"mi":  "michigan",
	"mn":  "minnesota",
	"ms":  "mississippi",
	"mo":  "missouri",
	"mt":  "montana",
	"ne":  "nebraska",
	"nv":  "nevada",
	"nh":  "new hampshire",
	"nj":  "new jersey",
	"nm":  "new mexico",
	"ny":  "new york",
	"nc":  "north carolina",
	"nd":  "north dakota",
	"oh":  "ohio",
	"ok":  "oklahoma",
	"or":  "oregon",
	"pa":  "pennsylvania",
	"ri":  "rhode island",
	"sc":  "south carolina",
	"sd":  "south dakota",
	"tn":  "tennessee",
	"tx":  "texas",
	"ut":  "utah",
	"vt":  "vermont",
	"va":  "virginia",
	"wa":  "washington",
	"wv":  "west virginia",
	"wi":  "wisconsin",
	"wy":  "wyoming",
	"dc":  "district of columbia",
	"pr":  "puerto rico",
	"gu":  "guam",
	"vi":  "virgin islands",
	"as":  "american samoa",
	"mp":  "northern mariana islands",
	"nys": "new york state",
	"nyc": "new york city",
}

// corporateSuffixes are stripped as whole words, longest first so that
// "company" wins over "co".
var corporateSuffixes = []string{
	`p\.l\.l\.c`,
	`l\.l\.c`,
	"incorporated",
	"corporation",
	"company",
	"pllc",
	"corp",
	"inc",
	"llc",
	"ltd",
	"co",
}

type replacement struct {
	words *wordPattern
	with  string
}

// organizationAbbreviations run in order after suffix stripping.
var organizationAbbreviations = []replacement{
	{newWordPattern(true, "dept"), "department"},
	{newWordPattern(true, "div"), "division"},
	{newWordPattern(true, "govt"), "government"},
	{newWordPattern(true, "univ"), "university"},
	{newWordPattern(true, "ctr"), "center"},
	{newWordPattern(true, "assoc"), "association"},
	{newWordPattern(true, "intl"), "international"},
	{newWordPattern(false, "state senate"), "senate"},
	{newWordPattern(false, "state assembly"), "assembly"},
}

var (
	statePattern  = newWordPattern(false, stateKeys()...)
	suffixPattern = newWordPattern(true, corporateSuffixes...)
)

// strippedPunctuation is the set removed in the final cleanup pass.
const strippedPunctuation = ".,/#!$%^&*;:{}=-_`~()"

func stateKeys() []string {
	keys := make([]string, 0, len(stateAbbreviations))
	for k := range stateAbbreviations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for i, k := range keys {
		keys[i] = regexp.QuoteMeta(k)
	}
	return keys
}

// wordPattern matches any of its alternatives only as a whole word: the
// runes on either side of a match must not be letters or digits in any
// script. regexp's \b only knows ASCII, so "al" would match inside
// "montréal".
type wordPattern struct {
	re *regexp.Regexp
	// dot also consumes one period directly after the word.
	dot bool
}

func newWordPattern(dot bool, alternatives ...string) *wordPattern {
	return &wordPattern{
		re:  regexp.MustCompile(`(?:` + strings.Join(alternatives, "|") + `)`),
		dot: dot,
	}
}

// replace substitutes fn(word) for every whole-word match in s.
func (p *wordPattern) replace(s string, fn func(word string) string) string {
	var b strings.Builder
	flushed, pos := 0, 0
	for pos < len(s) {
		loc := p.re.FindStringIndex(s[pos:])
		if loc == nil || loc[0] == loc[1] {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if !wholeWord(s, start, end) {
			_, size := utf8.DecodeRuneInString(s[start:])
			pos = start + size
			continue
		}

		word := s[start:end]
		if p.dot && end < len(s) && s[end] == '.' {
			end++
		}
		b.WriteString(s[flushed:start])
		b.WriteString(fn(word))
		flushed, pos = end, end
	}
	b.WriteString(s[flushed:])
	return b.String()
}

func wholeWord(s string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// OrganizationName returns the comparison key for an organization name.
func OrganizationName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = statePattern.replace(s, func(abbr string) string {
		return stateAbbreviations[abbr]
	})

	s = suffixPattern.replace(s, func(string) string { return " " })

	for _, r := range organizationAbbreviations {
		s = r.words.replace(s, func(string) string { return r.with })
	}

	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(strippedPunctuation, r) {
			return -1
		}
		return r
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// Fold is the storage-side approximation of OrganizationName: lowercase,
// ASCII letters and digits only, single spaces. It applies none of the
// abbreviation or suffix rules.
func Fold(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\f', r == '\v':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
