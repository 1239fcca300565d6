package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Occurrence is a single timed real-world event tracked by the system.
type Occurrence struct {
	ID          string
	Category    Category
	Title       string
	Actor       string
	Place       string
	URL         string
	Start       time.Time
	Fingerprint string
	// Summaries maps a language code ("ko", "en") to a short summary. Only
	// news occurrences carry them.
	Summaries map[string]string
	// Deliveries holds the markers already sent, with their send time.
	Deliveries map[DeliveryKey]time.Time
}

// DeliveryKey names one delivery flag: a marker sent to a scope.
type DeliveryKey struct {
	Scope  string
	Marker Marker
}

// Delivered reports whether marker was already sent to scope.
func (o Occurrence) Delivered(scope string, marker Marker) bool {
	_, ok := o.Deliveries[DeliveryKey{Scope: scope, Marker: marker}]
	return ok
}

// Validate checks the fields every stored occurrence must have.
func (o Occurrence) Validate() error {
	switch {
	case strings.TrimSpace(o.ID) == "":
		return fmt.Errorf("%w: missing id", ErrInvalidOccurrence)
	case o.Category == "":
		return fmt.Errorf("%w: %s missing category", ErrInvalidOccurrence, o.ID)
	case o.Start.IsZero():
		return fmt.Errorf("%w: %s missing start", ErrInvalidOccurrence, o.ID)
	}
	return nil
}

// OccurrenceID derives the stable identifier. A per-occurrence canonical URL
// wins; otherwise the start instant is the only stable attribute available.
func OccurrenceID(category Category, canonicalURL string, start time.Time) string {
	if u := strings.TrimSpace(canonicalURL); u != "" {
		return category.IDPrefix() + ":" + u
	}
	return category.IDPrefix() + ":" + start.UTC().Format(time.RFC3339)
}

// ContentFingerprint hashes the fields whose change is meaningful on re-observation.
func ContentFingerprint(title string, start time.Time, url string) string {
	raw, _ := json.Marshal([]string{title, start.UTC().Format(time.RFC3339), url})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:12])
}
