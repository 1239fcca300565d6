package domain

import "time"

// Lang is a scope's display language preference.
type Lang string

const (
	LangMixed Lang = "mixed"
	LangKO    Lang = "ko"
	LangEN    Lang = "en"
)

// ParseLang maps unknown values to LangMixed.
func ParseLang(value string) Lang {
	switch Lang(value) {
	case LangKO, LangEN:
		return Lang(value)
	default:
		return LangMixed
	}
}

// Intent is a notification handed to a delivery sink.
type Intent struct {
	OccurrenceID string            `json:"occurrence_id"`
	Category     Category          `json:"category"`
	Title        string            `json:"title"`
	URL          string            `json:"url,omitempty"`
	Actor        string            `json:"actor,omitempty"`
	Place        string            `json:"place,omitempty"`
	Start        time.Time         `json:"start"`
	Marker       Marker            `json:"marker"`
	Scope        string            `json:"scope"`
	LocaleHint   Lang              `json:"locale_hint"`
	Summaries    map[string]string `json:"summaries,omitempty"`
}

// NewIntent builds the intent for one marker of occ addressed to scope.
func NewIntent(occ Occurrence, marker Marker, scope string, lang Lang) Intent {
	return Intent{
		OccurrenceID: occ.ID,
		Category:     occ.Category,
		Title:        occ.Title,
		URL:          occ.URL,
		Actor:        occ.Actor,
		Place:        occ.Place,
		Start:        occ.Start,
		Marker:       marker,
		Scope:        scope,
		LocaleHint:   lang,
		Summaries:    occ.Summaries,
	}
}
