package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	"EventRadar/internal/domain"
)

const timeLayout = "2006-01-02 15:04 MST"

// Renderer turns intents and occurrences into Telegram HTML.
type Renderer struct {
	loc *time.Location
}

// NewRenderer displays instants in loc (UTC when nil).
func NewRenderer(loc *time.Location) Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return Renderer{loc: loc}
}

func label(c domain.Category) string {
	return "[" + strings.ToUpper(string(c)) + "]"
}

// Intent renders one notification.
func (r Renderer) Intent(in domain.Intent) string {
	var b strings.Builder
	switch {
	case in.Marker == domain.MarkerStart && in.Category.IsNews():
		b.WriteString("📰 ")
	case in.Marker == domain.MarkerStart:
		b.WriteString("🔔 ")
	default:
		b.WriteString("⏰ ")
	}
	fmt.Fprintf(&b, "<b>%s %s</b>\n", label(in.Category), html.EscapeString(in.Title))

	when := in.Start.In(r.loc).Format(timeLayout)
	if lead, ok := in.Marker.Lead(); ok {
		fmt.Fprintf(&b, "in %s · %s\n", domain.FormatLead(lead), when)
	} else if in.Category.IsNews() {
		fmt.Fprintf(&b, "%s\n", when)
	} else {
		fmt.Fprintf(&b, "starting now · %s\n", when)
	}

	if in.Actor != "" {
		fmt.Fprintf(&b, "%s\n", html.EscapeString(in.Actor))
	}
	if in.Place != "" {
		fmt.Fprintf(&b, "📍 %s\n", html.EscapeString(in.Place))
	}
	if in.Marker == domain.MarkerStart {
		for _, s := range summariesFor(in.Summaries, in.LocaleHint) {
			fmt.Fprintf(&b, "\n%s\n", html.EscapeString(s))
		}
	}
	if in.URL != "" {
		fmt.Fprintf(&b, "\n%s", html.EscapeString(in.URL))
	}
	return strings.TrimRight(b.String(), "\n")
}

// summariesFor picks the summaries a scope wants to read; mixed shows both.
func summariesFor(summaries map[string]string, lang domain.Lang) []string {
	var order []domain.Lang
	switch lang {
	case domain.LangKO:
		order = []domain.Lang{domain.LangKO}
	case domain.LangEN:
		order = []domain.Lang{domain.LangEN}
	default:
		order = []domain.Lang{domain.LangKO, domain.LangEN}
	}
	var out []string
	for _, l := range order {
		if s := strings.TrimSpace(summaries[string(l)]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Line renders an occurrence as a plain-text listing row.
func (r Renderer) Line(occ domain.Occurrence) string {
	return fmt.Sprintf("%s %s %s", occ.Start.In(r.loc).Format("01-02 15:04"), label(occ.Category), occ.Title)
}
