package domain

import (
	"EventRadar/internal/timeparse"
)

// Candidate is a raw observation produced by a source adapter before
// normalization.
type Candidate struct {
	Category Category
	Title    string
	URL      string
	// CanonicalURL marks URL as unique to this occurrence, making it the id key.
	CanonicalURL bool
	Actor        string
	Place        string
	// Summary is the feed description, used as summarizer input when the
	// article itself cannot be fetched.
	Summary string
	// TimeTexts are tried in order against the normalizer.
	TimeTexts []string
	Locale    timeparse.Locale
}

// Resolve normalizes the candidate's time texts.
func (c Candidate) Resolve() (timeparse.Result, bool) {
	return timeparse.First(c.TimeTexts, c.Locale)
}

// Occurrence converts a resolved candidate into its canonical form.
func (c Candidate) Occurrence(res timeparse.Result) Occurrence {
	key := ""
	if c.CanonicalURL {
		key = c.URL
	}
	return Occurrence{
		ID:          OccurrenceID(c.Category, key, res.Instant),
		Category:    c.Category,
		Title:       c.Title,
		Actor:       c.Actor,
		Place:       c.Place,
		URL:         c.URL,
		Start:       res.Instant,
		Fingerprint: ContentFingerprint(c.Title, res.Instant, c.URL),
	}
}
