package enrich

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/abelbrown/marketpulse/internal/parse"
)

var headClose = []byte("</head>")

// readHead reads at most max bytes from r, stopping early once </head> has
// been seen.
func readHead(r io.Reader, max int64) ([]byte, error) {
	lr := io.LimitReader(r, max)
	var buf bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		n, err := lr.Read(chunk)
		if n > 0 {
			from := buf.Len() - len(headClose) + 1
			if from < 0 {
				from = 0
			}
			buf.Write(chunk[:n])
			if bytes.Contains(bytes.ToLower(buf.Bytes()[from:]), headClose) {
				return buf.Bytes(), nil
			}
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return buf.Bytes(), err
		}
	}
}

// imageSources is the lookup order on an article page: og:image, then
// twitter:image, then <link rel="image_src">.
var imageSources = []struct {
	selector string
	attr     string
}{
	{`meta[property="og:image"]`, "content"},
	{`meta[name="og:image"]`, "content"},
	{`meta[property="og:image:secure_url"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`meta[property="twitter:image"]`, "content"},
	{`meta[name="twitter:image:src"]`, "content"},
	{`link[rel="image_src"]`, "href"},
}

// extractImage returns the first valid preview image declared in head.
// Relative URLs are resolved against page.
func extractImage(head []byte, page *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(head))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	for _, src := range imageSources {
		var found string
		doc.Find(src.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, ok := s.Attr(src.attr)
			if !ok {
				return true
			}
			u := resolve(page, strings.TrimSpace(v))
			if parse.ValidImageURL(u) {
				found = u
				return false
			}
			return true
		})
		if found != "" {
			return found, nil
		}
	}
	return "", nil
}

func resolve(page *url.URL, ref string) string {
	if ref == "" || page == nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return page.ResolveReference(r).String()
}
