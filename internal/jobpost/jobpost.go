// Package jobpost fetches a job posting page and reduces it to the plain
// job description text used as scoring and rewrite context.
package jobpost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultTimeout bounds a single page fetch
	DefaultTimeout = 20 * time.Second
	// DefaultUserAgent is sent with every fetch
	DefaultUserAgent = "Mozilla/5.0 (compatible; CVAssistant/1.0)"
	// MaxPageBytes caps how much of a page is read
	MaxPageBytes = 4 << 20
	// MaxDescriptionRunes caps the returned description
	MaxDescriptionRunes = 12000
)

// ErrNoContent is returned when the page has no readable description text
var ErrNoContent = errors.New("job posting has no readable text")

// FetchError describes a failed page fetch
type FetchError struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Fetcher downloads job posting pages
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithUserAgent replaces the User-Agent header
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// NewFetcher returns a Fetcher with the default timeout and user agent
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Description fetches rawURL and returns the job description text found on
// the page, trimmed to MaxDescriptionRunes.
func (f *Fetcher) Description(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", &FetchError{URL: rawURL, Message: "invalid URL", Cause: err}
	}

	page, err := f.get(ctx, parsed.String())
	if err != nil {
		return "", err
	}

	platform := DetectPlatform(parsed)
	text, err := ExtractText(page, ContentSelectors(platform), NoiseSelectors(platform)...)
	if err != nil {
		return "", &FetchError{URL: rawURL, Message: "failed to parse page", Cause: err}
	}
	if text == "" {
		return "", ErrNoContent
	}
	return truncateRunes(text, MaxDescriptionRunes), nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &FetchError{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: rawURL, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageBytes))
	if err != nil {
		return "", &FetchError{URL: rawURL, Message: "failed to read body", Cause: err}
	}
	return string(body), nil
}

// ExtractText strips page chrome and noiseSelectors, then returns the text of
// the first element matching contentSelectors, or of <body> when none match.
// Block elements become line breaks and blank lines are dropped.
func ExtractText(page string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", err
	}

	doc.Find("nav, footer, header, script, style, noscript, svg, iframe, .cookie-banner, .popup").Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	content := doc.Find("body")
	for _, sel := range contentSelectors {
		if s := doc.Find(sel); s.Length() > 0 {
			content = s.First()
			break
		}
	}

	content.Find("br").ReplaceWithHtml("\n")
	content.Find("p, li, h1, h2, h3, h4, div, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	content.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})
	return collapseLines(content.Text()), nil
}

func collapseLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" && line != "-" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
