package parser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"EventRadar/internal/domain"
	"EventRadar/internal/infrastructure/fetch"
	"EventRadar/internal/scanner"
	"EventRadar/internal/timeparse"
)

const googleNewsSearch = "https://news.google.com/rss/search"

// DefaultNewsQueries are searched when no queries are configured.
var DefaultNewsQueries = []string{"Fed interest rate", "FOMC statement", "US CPI inflation", "SEC bitcoin ETF"}

var (
	newsCPIExpr    = regexp.MustCompile(`(?i)cpi|inflation`)
	newsFedExpr    = regexp.MustCompile(`(?i)fomc|rate|interest|fed`)
	newsCryptoExpr = regexp.MustCompile(`(?i)bitcoin|crypto|etf|sec`)
)

// NewsScanner searches Google News RSS for each configured query.
type NewsScanner struct {
	client *fetch.Client
	now    func() time.Time
}

// NewNewsScanner wires the shared fetch client.
func NewNewsScanner(client *fetch.Client) *NewsScanner {
	return &NewsScanner{client: client, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (n *NewsScanner) Name() string {
	return string(domain.CategoryNews)
}

// Scan runs every query; a failing query does not stop the others and its
// error is returned alongside the collected candidates.
func (n *NewsScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	base := req.URL
	if base == "" {
		base = googleNewsSearch
	}

	var (
		results []domain.Candidate
		errs    []error
	)
	for _, query := range newsQueries(req.Option("queries", "")) {
		feedURL, err := newsSearchURL(base, query)
		if err != nil {
			return nil, err
		}
		feed, err := n.client.GetFeed(ctx, feedURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("news query %q: %w", query, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		for _, item := range feed.Items {
			title := collapse(item.Title)
			link := extractRealURL(strings.TrimSpace(item.Link))
			if title == "" || link == "" {
				continue
			}

			var texts []string
			if item.PublishedParsed != nil {
				texts = append(texts, item.PublishedParsed.UTC().Format(time.RFC3339))
			} else if item.Published != "" {
				texts = append(texts, item.Published)
			}
			// A headline without a usable date is stamped with the time it was seen.
			texts = append(texts, n.now().UTC().Format(time.RFC3339))

			results = append(results, domain.Candidate{
				Category:     newsTag(title),
				Title:        title,
				URL:          link,
				CanonicalURL: true,
				Place:        "USA",
				Summary:      stripTags(item.Description),
				TimeTexts:    texts,
				Locale:       timeparse.UTC(),
			})
		}
	}
	return results, errors.Join(errs...)
}

func newsQueries(option string) []string {
	var out []string
	for _, q := range strings.Split(option, ",") {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return DefaultNewsQueries
	}
	return out
}

func newsSearchURL(base, query string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid news url %s: %w", base, err)
	}
	q := parsed.Query()
	q.Set("q", query)
	if q.Get("hl") == "" {
		q.Set("hl", "en-US")
		q.Set("gl", "US")
		q.Set("ceid", "US:en")
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// extractRealURL unwraps Google News redirect links carrying the article in
// their url parameter.
func extractRealURL(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	if real := parsed.Query().Get("url"); real != "" {
		return real
	}
	return link
}

// newsTag classifies a headline; inflation wins over rates, rates over crypto.
func newsTag(title string) domain.Category {
	switch {
	case newsCPIExpr.MatchString(title):
		return domain.CategoryNewsCPI
	case newsFedExpr.MatchString(title):
		return domain.CategoryNewsFed
	case newsCryptoExpr.MatchString(title):
		return domain.CategoryNewsCrypto
	default:
		return domain.CategoryNews
	}
}

func stripTags(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapse(html)
	}
	return collapse(doc.Text())
}
