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

const fomcCalendar = "https://www.federalreserve.gov/monetarypolicy/fomccalendars.htm"

var (
	fomcTopicExpr = regexp.MustCompile(`(?i)FOMC|Meeting|Statement|Press Conference`)
	// "September 16-17, 2025": a meeting span without a statement time.
	fomcRangeExpr = regexp.MustCompile(`[A-Za-z]+\s+\d{1,2}\s*(?:–|-|to)\s*\d{1,2},\s*\d{4}`)
	fomcTimeExpr  = regexp.MustCompile(`([A-Za-z]+ \d{1,2}, \d{4}).{0,50}?(\d{1,2}:\d{2})\s?(AM|PM)\s?ET`)
)

// FOMCScanner reads the FOMC meeting calendar. Only blocks naming an exact
// statement time produce candidates; bare meeting date ranges are skipped.
type FOMCScanner struct {
	client *fetch.Client
}

// NewFOMCScanner wires the shared fetch client.
func NewFOMCScanner(client *fetch.Client) *FOMCScanner {
	return &FOMCScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (f *FOMCScanner) Name() string {
	return string(domain.CategoryFOMC)
}

// Scan returns one candidate per timed block. Nested blocks repeat the same
// text; the ingest step drops the resulting duplicate ids.
func (f *FOMCScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	pageURL := req.URL
	if pageURL == "" {
		pageURL = fomcCalendar
	}
	doc, err := f.client.GetDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fomc calendar: %w", err)
	}

	seen := map[string]struct{}{}
	var results []domain.Candidate
	doc.Find("section, article, li, p, div").Each(func(_ int, node *goquery.Selection) {
		when, ok := fomcStatementTime(collapse(node.Text()))
		if !ok {
			return
		}
		if _, dup := seen[when]; dup {
			return
		}
		seen[when] = struct{}{}
		results = append(results, domain.Candidate{
			Category:  domain.CategoryFOMC,
			Title:     "FOMC Statement/Decision",
			URL:       pageURL,
			Place:     "USA",
			TimeTexts: []string{when},
			Locale:    timeparse.NewYork(),
		})
	})
	return results, nil
}

func fomcStatementTime(text string) (string, bool) {
	if !fomcTopicExpr.MatchString(text) || fomcRangeExpr.MatchString(text) {
		return "", false
	}
	m := fomcTimeExpr.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1] + " " + m[2] + " " + m[3] + " ET", true
}
