package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into base letter plus combining mark.
var specialLetters = strings.NewReplacer(
	"ı", "i", "ß", "ss", "ø", "o", "æ", "ae", "œ", "oe", "đ", "d", "ł", "l",
	"+", " plus ", "#", " sharp ",
)

// Generate creates a URL-friendly slug from a title.
//
// Examples:
//   - "Go Concurrency Patterns" → "go-concurrency-patterns"
//   - "Café Résumé" → "cafe-resume"
//   - "C++ & C#" → "c-plus-plus-c-sharp"
func Generate(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = specialLetters.Replace(s)

	// Strip accents: decompose, drop combining marks, recompose.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}

	s = slugRegexp.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
