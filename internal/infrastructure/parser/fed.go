package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"EventRadar/internal/domain"
	"EventRadar/internal/infrastructure/fetch"
	"EventRadar/internal/scanner"
	"EventRadar/internal/timeparse"
)

const fedSpeechesFeed = "https://www.federalreserve.gov/feeds/speeches.xml"

// FedScanner reads the Federal Reserve speeches feed and looks up the
// scheduled time on each speech page.
type FedScanner struct {
	client *fetch.Client
}

// NewFedScanner wires the shared fetch client.
func NewFedScanner(client *fetch.Client) *FedScanner {
	return &FedScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (f *FedScanner) Name() string {
	return string(domain.CategoryFed)
}

// Scan returns one candidate per feed item. Page times are preferred over
// the item's publication date, which only approximates the speech time.
func (f *FedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	feedURL := req.URL
	if feedURL == "" {
		feedURL = fedSpeechesFeed
	}
	feed, err := f.client.GetFeed(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fed feed: %w", err)
	}

	lookupPages := req.Option("page_times", "true") == "true"
	results := make([]domain.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		title := collapse(item.Title)
		if title == "" {
			title = "Federal Reserve Speech"
		}

		var texts []string
		if lookupPages {
			if doc, err := f.client.GetDocument(ctx, link); err == nil {
				texts = fedPageTimes(doc)
			} else if ctx.Err() != nil {
				return results, ctx.Err()
			}
		}
		if item.PublishedParsed != nil {
			texts = append(texts, item.PublishedParsed.UTC().Format(time.RFC3339))
		} else if item.Published != "" {
			texts = append(texts, item.Published)
		}

		results = append(results, domain.Candidate{
			Category:     domain.CategoryFed,
			Title:        title,
			URL:          link,
			CanonicalURL: true,
			Actor:        speakerFromTitle(title),
			Place:        "USA",
			TimeTexts:    texts,
			Locale:       timeparse.NewYork(),
		})
	}
	return results, nil
}

func fedPageTimes(doc *goquery.Document) []string {
	return timeTexts(doc.Selection, ".lastUpdate", ".article__time", "h2 + p")
}
