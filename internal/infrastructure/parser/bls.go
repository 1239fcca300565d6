package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"EventRadar/internal/domain"
	"EventRadar/internal/infrastructure/fetch"
	"EventRadar/internal/scanner"
	"EventRadar/internal/timeparse"
)

// BLS releases go out at 8:30 a.m. Eastern unless the page says otherwise.
const blsDefaultReleaseTime = "8:30 a.m. ET"

var (
	blsReleaseExpr = regexp.MustCompile(`(?i)Release Date:?\s*([A-Za-z]+\.?\s+\d{1,2},\s*\d{4})(?:.{0,80}?(?:at\s*)?(\d{1,2}:\d{2}\s*(?:a\.m\.|p\.m\.|am|pm)\s*ET))?`)
	blsRowDateExpr = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{1,2}),\s*(\d{4})$`)
	blsRowTimeExpr = regexp.MustCompile(`(?i)^(\d{1,2}:\d{2})\s*(AM|PM|a\.m\.|p\.m\.)$`)
)

// BLSScanner reads a BLS news release schedule (CPI, Employment Situation).
// Release occurrences share the schedule URL, so their identity is the
// release instant.
type BLSScanner struct {
	client   *fetch.Client
	category domain.Category
	title    string
	page     string
}

// NewCPIScanner schedules Consumer Price Index releases.
func NewCPIScanner(client *fetch.Client) *BLSScanner {
	return &BLSScanner{
		client:   client,
		category: domain.CategoryCPI,
		title:    "US CPI Release",
		page:     "https://www.bls.gov/schedule/news_release/cpi.htm",
	}
}

// NewNFPScanner schedules Employment Situation (nonfarm payrolls) releases.
func NewNFPScanner(client *fetch.Client) *BLSScanner {
	return &BLSScanner{
		client:   client,
		category: domain.CategoryNFP,
		title:    "US Nonfarm Payrolls (Employment Situation)",
		page:     "https://www.bls.gov/schedule/news_release/empsit.htm",
	}
}

// Name identifies the strategy inside the registry.
func (b *BLSScanner) Name() string {
	return string(b.category)
}

// Scan extracts every release date on the schedule page.
func (b *BLSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	pageURL := req.URL
	if pageURL == "" {
		pageURL = b.page
	}
	doc, err := b.client.GetDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%s schedule: %w", b.category, err)
	}

	var results []domain.Candidate
	for _, when := range blsReleaseTimes(doc) {
		results = append(results, domain.Candidate{
			Category:  b.category,
			Title:     b.title,
			URL:       pageURL,
			Place:     "USA",
			TimeTexts: []string{when},
			Locale:    timeparse.NewYork(),
		})
	}
	return results, nil
}

// blsReleaseTimes returns "Month D, YYYY h:mm a.m. ET" texts from both the
// "Release Date:" prose and the schedule table, in page order.
func blsReleaseTimes(doc *goquery.Document) []string {
	var out []string
	seen := map[string]struct{}{}
	push := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	text := collapse(doc.Text())
	for _, m := range blsReleaseExpr.FindAllStringSubmatch(text, -1) {
		date := expandMonth(m[1])
		if date == "" {
			continue
		}
		clock := m[2]
		if clock == "" {
			clock = blsDefaultReleaseTime
		}
		push(date + " " + clock)
	}

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		var date, clock string
		cells.Each(func(_ int, cell *goquery.Selection) {
			value := collapse(cell.Text())
			if date == "" && blsRowDateExpr.MatchString(value) {
				date = expandMonth(value)
				return
			}
			if clock == "" && blsRowTimeExpr.MatchString(value) {
				clock = value + " ET"
			}
		})
		if date == "" {
			return
		}
		if clock == "" {
			clock = blsDefaultReleaseTime
		}
		push(date + " " + clock)
	})
	return out
}

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// expandMonth rewrites "Sep. 11, 2025" or "Sept 11, 2025" as
// "September 11, 2025"; the normalizer only reads full month names.
func expandMonth(date string) string {
	m := blsRowDateExpr.FindStringSubmatch(collapse(date))
	if m == nil {
		return ""
	}
	word := strings.ToLower(m[1])
	if len(word) < 3 {
		return ""
	}
	for _, name := range monthNames {
		if strings.HasPrefix(strings.ToLower(name), word) {
			return name + " " + m[2] + ", " + m[3]
		}
	}
	return ""
}
