package parse

import "strings"

// element is one occurrence of a tag found by the scanner. Offsets index
// the source string the element was found in.
type element struct {
	attrs map[string]string
	inner string
	start int
	end   int
}

// findElements returns every <name ...>...</name> or <name .../> in src, in
// document order. Matching is case-insensitive and tolerant: an opening tag
// without a closing one yields an element with attributes and no content,
// and nested elements of the same name are not tracked.
func findElements(src, name string) []element {
	lower := strings.ToLower(src)
	name = strings.ToLower(name)
	open := "<" + name

	var out []element
	pos := 0
	for pos < len(src) {
		i := strings.Index(lower[pos:], open)
		if i < 0 {
			break
		}
		i += pos
		after := i + len(open)
		if after >= len(src) {
			break
		}
		if !isNameEnd(src[after]) {
			pos = after
			continue
		}

		gt := tagEnd(src, after)
		if gt < 0 {
			break
		}
		body := strings.TrimSpace(src[after:gt])
		if strings.HasSuffix(body, "/") {
			out = append(out, element{
				attrs: parseAttrs(strings.TrimSuffix(body, "/")),
				start: i,
				end:   gt + 1,
			})
			pos = gt + 1
			continue
		}

		closeStart, closeEnd := findClose(lower, gt+1, name)
		if closeStart < 0 {
			// void or unterminated: attributes only
			out = append(out, element{attrs: parseAttrs(body), start: i, end: gt + 1})
			pos = gt + 1
			continue
		}
		out = append(out, element{
			attrs: parseAttrs(body),
			inner: src[gt+1 : closeStart],
			start: i,
			end:   closeEnd,
		})
		pos = closeEnd
	}
	return out
}

func isNameEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '>', '/':
		return true
	}
	return false
}

// tagEnd returns the index of the '>' closing the tag that starts before
// from, skipping quoted attribute values. -1 when unterminated.
func tagEnd(src string, from int) int {
	var quote byte
	for i := from; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i
		}
	}
	return -1
}

// findClose locates </name> (optionally with whitespace before '>') at or
// after from in the lower-cased source.
func findClose(lower string, from int, name string) (int, int) {
	closing := "</" + name
	pos := from
	for pos < len(lower) {
		i := strings.Index(lower[pos:], closing)
		if i < 0 {
			return -1, -1
		}
		i += pos
		j := i + len(closing)
		for j < len(lower) && isSpace(lower[j]) {
			j++
		}
		if j < len(lower) && lower[j] == '>' {
			return i, j + 1
		}
		pos = i + len(closing)
	}
	return -1, -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// parseAttrs reads key="value" pairs. Keys are lower-cased, values are
// entity-unescaped, and the first occurrence of a key wins.
func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	i := 0
	for i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		start := i
		for i < len(s) && !isSpace(s[i]) && s[i] != '=' {
			i++
		}
		key := strings.ToLower(s[start:i])
		if key == "" {
			i++
			continue
		}
		for i < len(s) && isSpace(s[i]) {
			i++
		}

		val := ""
		if i < len(s) && s[i] == '=' {
			i++
			for i < len(s) && isSpace(s[i]) {
				i++
			}
			if i < len(s) && (s[i] == '"' || s[i] == '\'') {
				q := s[i]
				i++
				vs := i
				for i < len(s) && s[i] != q {
					i++
				}
				val = s[vs:i]
				i++
			} else {
				vs := i
				for i < len(s) && !isSpace(s[i]) {
					i++
				}
				val = s[vs:i]
			}
		}
		if _, seen := attrs[key]; !seen {
			attrs[key] = unescapeEntities(val)
		}
	}
	return attrs
}

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

// cdataText concatenates every CDATA section in s. ok is false when s has none.
func cdataText(s string) (text string, ok bool) {
	var b strings.Builder
	for {
		i := strings.Index(s, cdataOpen)
		if i < 0 {
			break
		}
		s = s[i+len(cdataOpen):]
		j := strings.Index(s, cdataClose)
		if j < 0 {
			b.WriteString(s)
			ok = true
			break
		}
		b.WriteString(s[:j])
		s = s[j+len(cdataClose):]
		ok = true
	}
	return b.String(), ok
}

// withoutCDATA drops every CDATA section from s.
func withoutCDATA(s string) string {
	var b strings.Builder
	for {
		i := strings.Index(s, cdataOpen)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		j := strings.Index(s[i:], cdataClose)
		if j < 0 {
			return b.String()
		}
		s = s[i+j+len(cdataClose):]
	}
}

// pickText returns the content of the first element among names, in order,
// that yields non-empty text. CDATA content is preferred over plain content
// within each element.
func pickText(block string, names ...string) string {
	for _, name := range names {
		els := findElements(block, name)
		if len(els) == 0 {
			continue
		}
		inner := els[0].inner
		if text, ok := cdataText(inner); ok {
			if t := strings.TrimSpace(text); t != "" {
				return t
			}
			inner = withoutCDATA(inner)
		}
		if t := strings.TrimSpace(inner); t != "" {
			return t
		}
	}
	return ""
}

// pickLink prefers an href attribute (rel alternate or absent first) over a
// text-node <link>.
func pickLink(block string) string {
	var fallback string
	for _, el := range findElements(block, "link") {
		href := strings.TrimSpace(el.attrs["href"])
		if href == "" {
			continue
		}
		if rel := el.attrs["rel"]; rel == "" || rel == "alternate" {
			return href
		}
		if fallback == "" {
			fallback = href
		}
	}
	if fallback != "" {
		return fallback
	}
	return strings.TrimSpace(unescapeEntities(pickText(block, "link")))
}
