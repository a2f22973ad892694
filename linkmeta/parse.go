package linkmeta

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const contentMaxLength = 500

// parseHTML extracts preview fields from an HTML document. Per field the
// priority is Open Graph tag, then Twitter card tag, then the generic HTML
// fallback (<title>, <meta name="description">).
func parseHTML(doc *goquery.Document, base *url.URL) *Metadata {
	m := &Metadata{}

	attr := func(selector string) string {
		v, _ := doc.Find(selector).First().Attr("content")
		return strings.TrimSpace(v)
	}

	m.Title = firstNonEmpty(
		attr(`meta[property="og:title"]`),
		attr(`meta[name="twitter:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	m.Description = firstNonEmpty(
		attr(`meta[property="og:description"]`),
		attr(`meta[name="twitter:description"]`),
		attr(`meta[name="description"]`),
	)
	m.Image = resolveRef(firstNonEmpty(
		attr(`meta[property="og:image"]`),
		attr(`meta[name="twitter:image"]`),
	), base)

	m.SiteName = firstNonEmpty(attr(`meta[property="og:site_name"]`), base.Hostname())
	m.Domain = base.Hostname()

	favicon := ""
	for _, sel := range []string{
		`link[rel="icon"]`,
		`link[rel="shortcut icon"]`,
		`link[rel="apple-touch-icon"]`,
	} {
		if href, ok := doc.Find(sel).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			favicon = strings.TrimSpace(href)
			break
		}
	}
	if favicon == "" {
		favicon = "/favicon.ico"
	}
	m.Favicon = resolveRef(favicon, base)

	canonical, _ := doc.Find(`link[rel="canonical"]`).First().Attr("href")
	m.CanonicalURL = resolveRef(firstNonEmpty(strings.TrimSpace(canonical), attr(`meta[property="og:url"]`)), base)

	m.Content = extractContent(doc)

	return m
}

// extractContent joins the first significant paragraphs as a plain-text
// preview, capped at contentMaxLength.
func extractContent(doc *goquery.Document) string {
	var paragraphs []string
	doc.Find("article p, main p, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if len(text) > 50 {
			paragraphs = append(paragraphs, text)
		}
		return len(paragraphs) < 3
	})
	if len(paragraphs) == 0 {
		return ""
	}
	content := strings.Join(paragraphs, " ")
	if len(content) > contentMaxLength {
		content = content[:contentMaxLength] + "..."
	}
	return content
}

// resolveRef makes a possibly relative reference absolute against the page URL.
func resolveRef(ref string, base *url.URL) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
