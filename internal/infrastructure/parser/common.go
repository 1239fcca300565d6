package parser

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"EventRadar/internal/timeparse"
)

var (
	speakerAtExpr  = regexp.MustCompile(`(?i)\bby (.+?) (?:at|on|in)\b`)
	speakerEndExpr = regexp.MustCompile(`(?i)\bby (.+)$`)
)

// collapse flattens whitespace the way page text is compared and stored.
func collapse(s string) string {
	return timeparse.Clean(s)
}

// absoluteURL resolves href against the page it was found on.
func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// speakerFromTitle extracts "X" from "Speech by X at ..." or "... by X".
func speakerFromTitle(title string) string {
	if m := speakerAtExpr.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := speakerEndExpr.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// timeTexts gathers time fragments from sel in priority order: the
// machine-readable datetime attribute, then the text of each selector.
func timeTexts(sel *goquery.Selection, textSelectors ...string) []string {
	var out []string
	if v, ok := sel.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(v) != "" {
		out = append(out, strings.TrimSpace(v))
	}
	for _, selector := range textSelectors {
		if txt := collapse(sel.Find(selector).First().Text()); txt != "" {
			out = append(out, txt)
		}
	}
	return out
}

func firstText(sel *goquery.Selection, selectors string) string {
	return collapse(sel.Find(selectors).First().Text())
}
