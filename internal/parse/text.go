package parse

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mrz1836/go-sanitize"
)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// unescapeEntities decodes the five entities feeds actually use.
func unescapeEntities(s string) string {
	return entityReplacer.Replace(s)
}

// bareLessThan matches a "<" that cannot open a tag, as in "yields < 4%".
var bareLessThan = regexp.MustCompile(`<([^a-zA-Z/!]|$)`)

// stripTags removes markup, leaving a space where each tag was so that
// adjacent words stay separated. Bare "<" signs come back escaped as "&lt;".
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	s = bareLessThan.ReplaceAllString(s, "&lt;${1}")
	return sanitize.HTML(strings.ReplaceAll(s, "<", " <"))
}

// tagPattern matches the start of a real tag, not a bare comparison sign.
var tagPattern = regexp.MustCompile(`<[a-zA-Z/!]`)

// CleanText turns feed markup into a single line of plain text. Feeds that
// entity-escape their HTML get a second strip only when unescaping exposed
// real tags.
func CleanText(s string) string {
	s = unescapeEntities(stripTags(s))
	if tagPattern.MatchString(s) {
		s = unescapeEntities(stripTags(s))
	}
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most max runes, ending in "..." when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimRight(string(runes[:max-3]), " ") + "..."
}
