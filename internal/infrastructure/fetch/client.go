// Package fetch is the shared HTTP layer of the source adapters: browser-like
// headers, a request timeout and a per-host rate limit.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

// ErrStatus wraps non-2xx responses.
var ErrStatus = errors.New("unexpected status")

const (
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124 Safari/537.36"
	acceptHTML       = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.5"
	acceptFeed       = "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"
	maxBodyBytes     = 8 << 20
)

// Options tune a Client. Zero values select defaults.
type Options struct {
	Timeout   time.Duration
	PerSecond float64
	Burst     int
	UserAgent string
}

// Client performs polite GET requests for adapters.
type Client struct {
	http      *http.Client
	userAgent string
	perSecond rate.Limit
	burst     int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New builds a client; httpClient may be nil.
func New(httpClient *http.Client, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.PerSecond <= 0 {
		opts.PerSecond = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 2
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &Client{
		http:      httpClient,
		userAgent: opts.UserAgent,
		perSecond: rate.Limit(opts.PerSecond),
		burst:     opts.Burst,
		limiters:  map[string]*rate.Limiter{},
	}
}

func (c *Client) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(c.perSecond, c.burst)
		c.limiters[host] = l
	}
	return l
}

func (c *Client) get(ctx context.Context, rawURL, accept string) (io.ReadCloser, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", rawURL, err)
	}
	if err := c.limiter(parsed.Host).Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", parsed.Host, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s: %s", ErrStatus, resp.Status, rawURL, strings.TrimSpace(string(snippet)))
	}
	return resp.Body, nil
}

// GetText returns the response body as a string.
func (c *Client) GetText(ctx context.Context, rawURL string) (string, error) {
	body, err := c.get(ctx, rawURL, acceptHTML)
	if err != nil {
		return "", err
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rawURL, err)
	}
	return string(raw), nil
}

// GetDocument fetches and parses an HTML page.
func (c *Client) GetDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.get(ctx, rawURL, acceptHTML)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", rawURL, err)
	}
	return doc, nil
}

// GetFeed fetches and parses an RSS/Atom feed.
func (c *Client) GetFeed(ctx context.Context, rawURL string) (*gofeed.Feed, error) {
	body, err := c.get(ctx, rawURL, acceptFeed)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", rawURL, err)
	}
	return feed, nil
}
