package linkmeta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Twitter's raw HTML exposes no usable Open Graph tags to unauthenticated
// fetches, so tweets go through the fxtwitter mirror: its JSON API first,
// its OG-friendly HTML as fallback.
const (
	defaultTwitterAPIBase  = "https://api.fxtwitter.com"
	defaultTwitterHTMLBase = "https://fxtwitter.com"
	twitterFavicon         = "https://abs.twimg.com/favicons/twitter.2.ico"
)

func isTwitterURL(u *url.URL) bool {
	host := u.Hostname()
	return host == "x.com" || host == "twitter.com" ||
		strings.HasSuffix(host, ".x.com") || strings.HasSuffix(host, ".twitter.com")
}

type fxTweet struct {
	Tweet *struct {
		Text   string `json:"text"`
		Author *struct {
			Name       string `json:"name"`
			ScreenName string `json:"screen_name"`
			AvatarURL  string `json:"avatar_url"`
		} `json:"author"`
		Media *struct {
			Photos []struct {
				URL string `json:"url"`
			} `json:"photos"`
		} `json:"media"`
	} `json:"tweet"`
}

// resolveTwitter extracts tweet metadata via the mirror. A nil return means
// the caller should fall through to the generic extraction path.
func (r *Resolver) resolveTwitter(ctx context.Context, inputURL string, u *url.URL) *Metadata {
	path := u.Path
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	if m := r.twitterFromAPI(ctx, inputURL, path); m != nil {
		return m
	}
	return r.twitterFromHTML(ctx, inputURL, path)
}

func (r *Resolver) twitterFromAPI(ctx context.Context, inputURL, path string) *Metadata {
	body, _, err := r.fetch(ctx, r.twitterAPIBase+path, "application/json")
	if err != nil {
		return nil
	}

	var fx fxTweet
	if err := json.Unmarshal(body, &fx); err != nil || fx.Tweet == nil {
		return nil
	}
	tweet := fx.Tweet

	authorName, screenName, avatar := "Tweet", "unknown", ""
	if tweet.Author != nil {
		if tweet.Author.Name != "" {
			authorName = tweet.Author.Name
		}
		if tweet.Author.ScreenName != "" {
			screenName = tweet.Author.ScreenName
		}
		avatar = tweet.Author.AvatarURL
	}
	image := avatar
	if tweet.Media != nil && len(tweet.Media.Photos) > 0 {
		image = tweet.Media.Photos[0].URL
	}

	m := &Metadata{
		URL:          inputURL,
		Title:        fmt.Sprintf("%s (@%s)", authorName, screenName),
		Description:  tweet.Text,
		Image:        image,
		Favicon:      twitterFavicon,
		SiteName:     "X (Twitter)",
		Domain:       "x.com",
		Content:      tweet.Text,
		CanonicalURL: inputURL,
		FetchedAt:    time.Now(),
	}
	// A degenerate API response (no text, no media, no avatar) must not be
	// reported as success; fall through to the HTML path instead.
	if m.Status = classify(m); m.Status != StatusSuccess {
		return nil
	}
	return m
}

func (r *Resolver) twitterFromHTML(ctx context.Context, inputURL, path string) *Metadata {
	pageURL := r.twitterHTMLBase + path
	body, _, err := r.fetch(ctx, pageURL, "text/html")
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	m := parseHTML(doc, base)
	if m.Title == "" {
		return nil
	}
	m.URL = inputURL
	m.SiteName = "X (Twitter)"
	m.Domain = "x.com"
	m.CanonicalURL = inputURL
	if m.Favicon == "" {
		m.Favicon = twitterFavicon
	}
	m.Status = classify(m)
	m.FetchedAt = time.Now()
	return m
}
