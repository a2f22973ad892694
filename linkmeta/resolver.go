// Package linkmeta resolves best-effort page metadata for link posts. Every
// external failure is represented in the result status instead of an error,
// so post creation is never blocked by an unreliable third party.
package linkmeta

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/reelhub/reelhub/config"
)

const (
	maxFetchRetries  = 2
	retryBackoffBase = 500 * time.Millisecond
	expandTimeout    = 3 * time.Second
	maxBodyBytes     = 2 << 20
)

// Crawler identities that sites serving rich previews typically allow.
// Rotation reduces bot-blocking false negatives; it is cosmetic, not a
// security measure.
var userAgents = []string{
	"facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)",
	"Twitterbot/1.0",
	"WhatsApp/2.21.12.21 A",
	"Googlebot/2.1 (+http://www.google.com/bot.html)",
	"Mozilla/5.0 (compatible; Discordbot/2.0; +https://discordapp.com)",
	"Slackbot-LinkExpanding 1.0 (+https://api.slack.com/robots)",
}

var shortURLDomains = []string{
	"bit.ly", "t.co", "tinyurl.com", "goo.gl", "short.link", "ow.ly", "is.gd",
}

// Resolver turns URLs into preview metadata with caching and duplicate
// request collapsing. Safe for concurrent use.
type Resolver struct {
	client       *http.Client
	cache        *resultCache
	group        singleflight.Group
	fetchTimeout time.Duration
	maxRetries   uint64
	backoffBase  time.Duration

	twitterAPIBase  string
	twitterHTMLBase string
}

// NewResolver builds a resolver from application configuration.
func NewResolver(cfg config.AppConfig) *Resolver {
	timeout := time.Duration(cfg.LinkFetchTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("stopped after 10 redirects")
				}
				return nil
			},
		},
		cache:           newResultCache(),
		fetchTimeout:    timeout,
		maxRetries:      maxFetchRetries,
		backoffBase:     retryBackoffBase,
		twitterAPIBase:  defaultTwitterAPIBase,
		twitterHTMLBase: defaultTwitterHTMLBase,
	}
}

// Resolve returns the best-effort metadata for url. It never returns an
// error; all failure modes surface in the Status field.
func (r *Resolver) Resolve(ctx context.Context, inputURL string) *Metadata {
	inputURL = strings.TrimSpace(inputURL)

	u, err := url.Parse(inputURL)
	if err != nil {
		return failedResult(inputURL, "invalid URL format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return failedResult(inputURL, "only HTTP/HTTPS URLs are supported")
	}

	// Expand known shortlinks first: the cache key is the normalized URL,
	// so two shortlinks pointing at the same page share one entry.
	normalized := inputURL
	if isShortURL(u) {
		if expanded, err := r.expandShortURL(ctx, inputURL); err == nil && expanded != "" {
			if eu, perr := url.Parse(expanded); perr == nil {
				normalized = expanded
				u = eu
			}
		}
	}

	if m, ok := r.cache.get(normalized); ok {
		return m
	}

	// Collapse concurrent resolutions of the same key into one fetch.
	v, _, _ := r.group.Do(normalized, func() (interface{}, error) {
		if m, ok := r.cache.get(normalized); ok {
			return m, nil
		}
		m := r.resolveUncached(ctx, normalized, u)
		r.cache.set(normalized, m)
		return m, nil
	})
	return v.(*Metadata)
}

func (r *Resolver) resolveUncached(ctx context.Context, pageURL string, u *url.URL) *Metadata {
	if isTwitterURL(u) {
		if m := r.resolveTwitter(ctx, pageURL, u); m != nil {
			return m
		}
		// Mirror unavailable; fall through to the generic path.
	}

	body, contentType, err := r.fetch(ctx, pageURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return failedResult(pageURL, fetchErrorMessage(err, r.fetchTimeout))
	}
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return failedResult(pageURL, fmt.Sprintf("unexpected content type: %s", contentType))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return failedResult(pageURL, "unparseable HTML document")
	}

	m := parseHTML(doc, u)
	m.URL = pageURL
	m.FetchedAt = time.Now()
	m.Status = classify(m)
	if m.Status == StatusFailed {
		return failedResult(pageURL, "could not extract metadata")
	}
	return m
}

// fetch performs a GET with a bounded per-attempt timeout, a rotated
// User-Agent, and retries with exponential backoff on server errors and
// transport failures. Client errors (4xx) are never retried.
func (r *Resolver) fetch(ctx context.Context, rawURL, accept string) ([]byte, string, error) {
	var body []byte
	var contentType string

	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(r.backoffBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", randomUserAgent())
		req.Header.Set("Accept", accept)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := r.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		}

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return retry.RetryableError(err)
		}
		body = b
		contentType = resp.Header.Get("Content-Type")
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

// expandShortURL resolves a shortlink to its final destination, best-effort.
func (r *Resolver) expandShortURL(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, expandTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", randomUserAgent())

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// The client followed redirects; the request URL is the destination.
	return resp.Request.URL.String(), nil
}

func isShortURL(u *url.URL) bool {
	host := u.Hostname()
	for _, d := range shortURLDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

func fetchErrorMessage(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("request timeout after %s", timeout)
	}
	return err.Error()
}
