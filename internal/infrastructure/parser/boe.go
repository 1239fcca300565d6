package parser

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"EventRadar/internal/domain"
	"EventRadar/internal/infrastructure/fetch"
	"EventRadar/internal/scanner"
	"EventRadar/internal/timeparse"
)

const boeSpeeches = "https://www.bankofengland.co.uk/speeches"

// BoEScanner parses the Bank of England speeches listing.
type BoEScanner struct {
	client *fetch.Client
}

// NewBoEScanner wires the shared fetch client.
func NewBoEScanner(client *fetch.Client) *BoEScanner {
	return &BoEScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (b *BoEScanner) Name() string {
	return string(domain.CategoryBoE)
}

// Scan reads listing cards and enriches each from its detail page when the
// time or the speaker is missing.
func (b *BoEScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	pageURL := req.URL
	if pageURL == "" {
		pageURL = boeSpeeches
	}
	doc, err := b.client.GetDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("boe speeches: %w", err)
	}

	locale := timeparse.London()
	seen := map[string]struct{}{}
	var results []domain.Candidate

	doc.Find("article, .teaser, .boe-card, li").Each(func(_ int, node *goquery.Selection) {
		if ctx.Err() != nil {
			return
		}
		anchor := node.Find("a").First()
		title := collapse(anchor.Text())
		if title == "" {
			title = firstText(node, "h3, h2")
		}
		if title == "" {
			return
		}

		href, _ := anchor.Attr("href")
		link := absoluteURL(pageURL, href)
		perEvent := link != "" && link != pageURL
		if !perEvent {
			link = pageURL
		}

		key := title + "|" + link
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		texts := timeTexts(node, "time", ".date, .published-date, .event-date, .datetime")
		actor := ""
		if perEvent {
			detailTexts, speaker := b.detail(ctx, link)
			// Detail page times are more precise than listing dates.
			texts = append(detailTexts, texts...)
			actor = speaker
		}
		if actor == "" {
			actor = speakerFromTitle(title)
		}

		results = append(results, domain.Candidate{
			Category:     domain.CategoryBoE,
			Title:        title,
			URL:          link,
			CanonicalURL: perEvent,
			Actor:        actor,
			Place:        "UK",
			TimeTexts:    texts,
			Locale:       locale,
		})
	})

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (b *BoEScanner) detail(ctx context.Context, link string) ([]string, string) {
	doc, err := b.client.GetDocument(ctx, link)
	if err != nil {
		return nil, ""
	}
	return timeTexts(doc.Selection, "time", ".date, .published-date, .event-date, .datetime"),
		firstText(doc.Selection, ".speaker, .author, .byline")
}
