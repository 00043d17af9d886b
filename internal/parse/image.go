package parse

import (
	"strings"
)

// imageExtensions are matched against the URL path, case-insensitively.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"}

// junkImageMarkers identify tracking pixels and tiny icons.
var junkImageMarkers = []string{
	"1x1",
	"pixel",
	"tracking",
	"tracker",
	"spacer",
	"blank.gif",
	"favicon",
	"16x16",
	"32x32",
	"/icons/",
	"feeds.feedburner.com/~r",
	"doubleclick.net",
}

// ValidImageURL reports whether u is usable as a preview image: absolute
// http(s), at least 10 characters, and not a tracking pixel or icon.
func ValidImageURL(u string) bool {
	if len(u) < 10 {
		return false
	}
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http") {
		return false
	}
	for _, m := range junkImageMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return true
}

// HasImageExtension reports whether the URL path ends in a known image
// extension. Query strings and fragments are ignored.
func HasImageExtension(u string) bool {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	lower := strings.ToLower(u)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// extractImage walks the candidate cascade and returns the first URL that
// passes ValidImageURL, or "".
func extractImage(block, description string) string {
	steps := []func() []string{
		func() []string { return mediaContentURLs(block, false) },
		func() []string { return attrValues(findElements(block, "media:thumbnail"), "url") },
		func() []string { return mediaContentURLs(block, true) },
		func() []string { return enclosureURLs(block, true) },
		func() []string { return enclosureURLs(block, false) },
		func() []string { return attrValues(findElements(unescapeEntities(description), "img"), "src") },
		func() []string { return imageElementURLs(block) },
		func() []string { return bareImageURLs(unescapeEntities(block)) },
	}
	for _, step := range steps {
		for _, u := range step() {
			u = strings.TrimSpace(u)
			if ValidImageURL(u) {
				return u
			}
		}
	}
	return ""
}

func attrValues(els []element, key string) []string {
	var out []string
	for _, el := range els {
		if v := el.attrs[key]; v != "" {
			out = append(out, v)
		}
	}
	return out
}

// mediaContentURLs returns media:content urls either outside or inside a
// media:group. Entries explicitly marked as video or audio are skipped.
func mediaContentURLs(block string, inGroup bool) []string {
	groups := findElements(block, "media:group")
	inside := func(el element) bool {
		for _, g := range groups {
			if el.start > g.start && el.end <= g.end {
				return true
			}
		}
		return false
	}

	var out []string
	for _, el := range findElements(block, "media:content") {
		if inside(el) != inGroup || nonImageMedia(el.attrs) {
			continue
		}
		if u := el.attrs["url"]; u != "" {
			out = append(out, u)
		}
	}
	return out
}

func nonImageMedia(attrs map[string]string) bool {
	medium := strings.ToLower(attrs["medium"])
	if medium != "" && medium != "image" {
		return true
	}
	typ := strings.ToLower(attrs["type"])
	return strings.HasPrefix(typ, "video/") || strings.HasPrefix(typ, "audio/")
}

// enclosureURLs returns enclosure urls matched by MIME type when byType is
// set, otherwise by file extension.
func enclosureURLs(block string, byType bool) []string {
	var out []string
	for _, el := range findElements(block, "enclosure") {
		u := el.attrs["url"]
		if u == "" {
			continue
		}
		if byType && strings.HasPrefix(strings.ToLower(el.attrs["type"]), "image/") {
			out = append(out, u)
		}
		if !byType && HasImageExtension(u) {
			out = append(out, u)
		}
	}
	return out
}

// imageElementURLs handles <image><url>...</url></image> and a bare
// <image>URL</image>.
func imageElementURLs(block string) []string {
	var out []string
	for _, el := range findElements(block, "image") {
		if u := pickText(el.inner, "url"); u != "" {
			out = append(out, unescapeEntities(u))
			continue
		}
		if t := strings.TrimSpace(el.inner); strings.HasPrefix(t, "http") {
			out = append(out, unescapeEntities(t))
		}
	}
	return out
}

// bareImageURLs finds http(s) URLs anywhere in s whose path ends in an
// image extension.
func bareImageURLs(s string) []string {
	var out []string
	pos := 0
	for pos < len(s) {
		i := strings.Index(s[pos:], "http")
		if i < 0 {
			break
		}
		i += pos
		j := i
		for j < len(s) && !urlDelimiter(s[j]) {
			j++
		}
		u := s[i:j]
		if (strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")) && HasImageExtension(u) {
			out = append(out, u)
		}
		pos = j
		if j == i {
			pos++
		}
	}
	return out
}

func urlDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '"', '\'', '<', '>', '(', ')', '[', ']':
		return true
	}
	return false
}
