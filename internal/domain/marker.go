package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Marker is a named delivery checkpoint of an occurrence.
type Marker string

// MarkerStart fires when the occurrence begins.
const MarkerStart Marker = "start"

const leadPrefix = "lead:"

// LeadMarker returns the marker for a reminder lead before start.
func LeadMarker(lead time.Duration) Marker {
	return Marker(fmt.Sprintf("%s%dm", leadPrefix, int64(lead/time.Minute)))
}

// Lead returns the duration encoded in a lead marker.
func (m Marker) Lead() (time.Duration, bool) {
	raw, ok := strings.CutPrefix(string(m), leadPrefix)
	if !ok {
		return 0, false
	}
	d, err := ParseLead(raw)
	if err != nil {
		return 0, false
	}
	return d, true
}

// DefaultLeads are used for scopes that never configured their own.
func DefaultLeads() []time.Duration {
	return []time.Duration{time.Hour, 24 * time.Hour}
}

var leadExpr = regexp.MustCompile(`^(\d+)\s*([mh])$`)

// ParseLead accepts "30m", "1h", "24h".
func ParseLead(value string) (time.Duration, error) {
	m := leadExpr.FindStringSubmatch(strings.ToLower(strings.TrimSpace(value)))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLead, value)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLead, value)
	}
	if m[2] == "h" {
		return time.Duration(n) * time.Hour, nil
	}
	return time.Duration(n) * time.Minute, nil
}

// FormatLead renders a lead the way ParseLead reads it.
func FormatLead(lead time.Duration) string {
	if lead%time.Hour == 0 {
		return fmt.Sprintf("%dh", int64(lead/time.Hour))
	}
	return fmt.Sprintf("%dm", int64(lead/time.Minute))
}

// NormalizeLeads drops non-positive and duplicate values and sorts ascending.
func NormalizeLeads(leads []time.Duration) []time.Duration {
	out := make([]time.Duration, 0, len(leads))
	seen := map[time.Duration]struct{}{}
	for _, l := range leads {
		l = l.Truncate(time.Minute)
		if l <= 0 {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
