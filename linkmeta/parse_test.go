package linkmeta

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTestDoc(t *testing.T, html string) *Metadata {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	base, err := url.Parse("https://news.example.com/story")
	require.NoError(t, err)
	return parseHTML(doc, base)
}

func TestParseHTMLPriority(t *testing.T) {
	m := parseTestDoc(t, `<html><head>
<meta property="og:title" content="OG Title">
<meta name="twitter:title" content="Card Title">
<title>Plain Title</title>
<meta name="twitter:description" content="Card Desc">
<meta name="description" content="Plain Desc">
</head><body></body></html>`)

	assert.Equal(t, "OG Title", m.Title, "Open Graph wins over twitter card and <title>")
	assert.Equal(t, "Card Desc", m.Description, "twitter card wins over the generic tag")
}

func TestParseHTMLFallsBackToGenericTags(t *testing.T) {
	m := parseTestDoc(t, `<html><head>
<title>  Plain Title  </title>
<meta name="description" content="Plain Desc">
</head><body></body></html>`)

	assert.Equal(t, "Plain Title", m.Title)
	assert.Equal(t, "Plain Desc", m.Description)
	assert.Equal(t, "news.example.com", m.SiteName, "site name falls back to the host")
	assert.Equal(t, "news.example.com", m.Domain)
}

func TestParseHTMLResolvesRelativeRefs(t *testing.T) {
	m := parseTestDoc(t, `<html><head>
<meta property="og:image" content="/img/cover.jpg">
<link rel="icon" href="assets/fav.ico">
</head><body></body></html>`)

	assert.Equal(t, "https://news.example.com/img/cover.jpg", m.Image)
	assert.Equal(t, "https://news.example.com/assets/fav.ico", m.Favicon)
}

func TestParseHTMLDefaultFavicon(t *testing.T) {
	m := parseTestDoc(t, `<html><head><title>x</title></head><body></body></html>`)
	assert.Equal(t, "https://news.example.com/favicon.ico", m.Favicon)
}

func TestExtractContent(t *testing.T) {
	long := strings.Repeat("sentence with enough words to pass the length filter ", 4)
	m := parseTestDoc(t, `<html><body>
<p>tiny</p>
<p>`+long+`</p>
<p>`+long+`</p>
<p>`+long+`</p>
<p>`+long+`</p>
</body></html>`)

	assert.NotEmpty(t, m.Content)
	assert.LessOrEqual(t, len(m.Content), contentMaxLength+len("..."))
	assert.True(t, strings.HasSuffix(m.Content, "..."), "long content is truncated with an ellipsis")
	assert.NotContains(t, m.Content, "tiny", "short paragraphs are skipped")
}

func TestResolveRef(t *testing.T) {
	base, _ := url.Parse("https://example.com/dir/page")

	assert.Equal(t, "https://cdn.example.com/a.png", resolveRef("https://cdn.example.com/a.png", base))
	assert.Equal(t, "https://example.com/a.png", resolveRef("/a.png", base))
	assert.Equal(t, "https://example.com/dir/a.png", resolveRef("a.png", base))
	assert.Equal(t, "", resolveRef("", base))
}
