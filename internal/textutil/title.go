package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	yearPattern       = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	imdbIDPattern     = regexp.MustCompile(`\b(tt\d{7,})\b`)

	// Applied in order to the end of a title.
	titleSuffixPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(\d{4}\)$`),
		regexp.MustCompile(`\s*\[.*\]$`),
		regexp.MustCompile(`(?i)\s*-\s*trailer$`),
		regexp.MustCompile(`(?i)\s*official\s*trailer$`),
	}
)

// CollapseWhitespace trims s and replaces internal whitespace runs with a
// single space.
func CollapseWhitespace(s string) string {
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

// CleanMovieTitle normalizes whitespace and strips a trailing year in
// parentheses, bracketed tags and "trailer" suffixes.
func CleanMovieTitle(title string) string {
	title = CollapseWhitespace(title)
	for _, p := range titleSuffixPatterns {
		title = p.ReplaceAllString(title, "")
	}
	return strings.TrimSpace(title)
}

// ExtractYear returns the first 19xx or 20xx year in text, or "".
func ExtractYear(text string) string {
	return yearPattern.FindString(text)
}

// ParseIMDbID returns the first IMDb title id (tt followed by at least
// seven digits) in text, or "".
func ParseIMDbID(text string) string {
	return imdbIDPattern.FindString(text)
}

// Truncate shortens text to at most maxLen runes including suffix.
func Truncate(text string, maxLen int, suffix string) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	keep := maxLen - utf8.RuneCountInString(suffix)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(text)
	return string(runes[:keep]) + suffix
}

// FoldKey returns a normalized, case-folded form of s suitable for map and
// cache keys. Compatibility forms are unified so that full-width and
// ligature variants of a query share a key.
func FoldKey(s string) string {
	// A Caser keeps state, so one is built per call.
	return cases.Fold().String(norm.NFKC.String(CollapseWhitespace(s)))
}
