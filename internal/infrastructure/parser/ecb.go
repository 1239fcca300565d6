package parser

import (
	"context"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"EventRadar/internal/domain"
	"EventRadar/internal/infrastructure/fetch"
	"EventRadar/internal/scanner"
	"EventRadar/internal/timeparse"
)

const ecbWeeklyCalendar = "https://www.ecb.europa.eu/press/calendars/weekly/html/index.en.html"

// Navigation and section headings share the event markup on the calendar page.
var ecbNoiseExpr = regexp.MustCompile(`(?i)calendar|week(?:ly)?|download|subscribe`)

// ECBScanner parses the ECB weekly calendar of speeches and meetings.
type ECBScanner struct {
	client *fetch.Client
}

// NewECBScanner wires the shared fetch client.
func NewECBScanner(client *fetch.Client) *ECBScanner {
	return &ECBScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (e *ECBScanner) Name() string {
	return string(domain.CategoryECB)
}

// Scan walks the calendar entries. Entries whose listing carries no usable
// time are completed from their detail page.
func (e *ECBScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	pageURL := req.URL
	if pageURL == "" {
		pageURL = ecbWeeklyCalendar
	}
	doc, err := e.client.GetDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("ecb calendar: %w", err)
	}

	locale := timeparse.Brussels()
	seen := map[string]struct{}{}
	var results []domain.Candidate

	doc.Find(".event, .ecb-cal-event, .calendar-event, li, article").Each(func(_ int, node *goquery.Selection) {
		if ctx.Err() != nil {
			return
		}
		heading := node.Find("h3, h2, .title, .eventTitle, a").First()
		title := collapse(heading.Text())
		if title == "" || ecbNoiseExpr.MatchString(title) {
			return
		}

		href, _ := heading.Attr("href")
		if href == "" {
			href, _ = node.Find("a").First().Attr("href")
		}
		link := absoluteURL(pageURL, href)
		perEvent := link != "" && link != pageURL
		if !perEvent {
			link = pageURL
		}

		texts := timeTexts(node, "time", ".eventDate, .date, .datetime")
		texts = append(texts, collapse(node.Text()))

		actor := ""
		if _, ok := timeparse.First(texts, locale); !ok && perEvent {
			detailTexts, speaker := e.detail(ctx, link)
			texts = append(texts, detailTexts...)
			actor = speaker
		}

		key := title + "|" + link
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		results = append(results, domain.Candidate{
			Category:     domain.CategoryECB,
			Title:        title,
			URL:          link,
			CanonicalURL: perEvent,
			Actor:        actor,
			Place:        "EU",
			TimeTexts:    texts,
			Locale:       locale,
		})
	})

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// detail is best effort; a failed page leaves the candidate as it was.
func (e *ECBScanner) detail(ctx context.Context, link string) ([]string, string) {
	doc, err := e.client.GetDocument(ctx, link)
	if err != nil {
		return nil, ""
	}
	return timeTexts(doc.Selection, "time", ".date, .eventDate, .published, .datetime"),
		firstText(doc.Selection, ".speaker, .author, .byline")
}
