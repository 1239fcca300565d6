// Package timeparse turns locale-specific date/time fragments scraped from
// source pages into UTC instants.
//
// Fragments are tried against a fixed chain, first success wins:
//
//  1. machine-readable timestamps with an explicit offset (RFC 3339, RFC 1123)
//  2. long-form date + time + zone abbreviation from the locale's family
//  3. long-form date + time without zone, read in the locale's civil zone
//  4. long-form date only, read as 00:00 in the locale's civil zone
//
// Anything else is unparseable. Only spelled-out month names are recognised,
// so day/month order is never ambiguous.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Step records which link of the chain produced a Result.
type Step int

const (
	StepNone Step = iota
	StepExplicitOffset
	StepZoneAbbrev
	StepCivilDateTime
	StepCivilDate
)

func (s Step) String() string {
	switch s {
	case StepExplicitOffset:
		return "explicit-offset"
	case StepZoneAbbrev:
		return "zone-abbrev"
	case StepCivilDateTime:
		return "civil-datetime"
	case StepCivilDate:
		return "civil-date"
	default:
		return "none"
	}
}

// Result is a successful normalization. Instant is always in UTC.
type Result struct {
	Instant time.Time
	Step    Step
}

const monthAlt = `January|February|March|April|May|June|July|August|September|October|November|December`

const clockExpr = `,?\s+(?:(?i:at)\s+)?(\d{1,2}):(\d{2})(?:\s*(?i:(am|pm)))?(?:\s+([A-Z]{2,5})\b)?`

var (
	dayFirstDate   = regexp.MustCompile(`\b(\d{1,2})\s+(?i:(` + monthAlt + `))\s+(\d{4})\b`)
	monthFirstDate = regexp.MustCompile(`\b(?i:(` + monthAlt + `))\s+(\d{1,2}),?\s+(\d{4})\b`)

	dayFirstDateTime   = regexp.MustCompile(dayFirstDate.String() + clockExpr)
	monthFirstDateTime = regexp.MustCompile(monthFirstDate.String() + clockExpr)

	meridiemExpr = regexp.MustCompile(`(?i)\b([ap])\.\s?m\.?`)

	// A clock the date+time shapes could not read.
	strayClockExpr = regexp.MustCompile(`(?i)\b\d{1,2}(?:[:.]\d{2})?\s*(?:AM|PM)\b|\b\d{1,2}[:.]\d{2}\b`)
)

var explicitLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
}

// Layouts with a zone name are only trusted for GMT/UTC.
var namedZoneLayouts = []string{
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 MST",
}

var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Normalize resolves text to a UTC instant using loc for zone defaults.
// The boolean is false when no link of the chain matched.
func Normalize(text string, loc Locale) (Result, bool) {
	s := Clean(text)
	if s == "" {
		return Result{}, false
	}

	if t, ok := parseExplicit(s); ok {
		return Result{Instant: t.UTC(), Step: StepExplicitOffset}, true
	}

	if t, ok := parseLayouts(s, localDateTimeLayouts, loc.zone()); ok {
		return Result{Instant: t.UTC(), Step: StepCivilDateTime}, true
	}

	if f, found, ok := matchDateTime(s); found {
		if !ok {
			return Result{}, false
		}
		if f.zone != "" {
			if ref, ok := loc.resolve(f.zone); ok {
				return Result{Instant: f.in(ref.location()).UTC(), Step: StepZoneAbbrev}, true
			}
			if _, known := knownAbbrevs[f.zone]; known {
				return Result{}, false
			}
		}
		return Result{Instant: f.in(loc.zone()).UTC(), Step: StepCivilDateTime}, true
	}

	if f, ok := matchDate(s); ok {
		return Result{Instant: f.in(loc.zone()).UTC(), Step: StepCivilDate}, true
	}

	if t, ok := parseLayouts(s, []string{"2006-01-02"}, loc.zone()); ok {
		return Result{Instant: t.UTC(), Step: StepCivilDate}, true
	}

	return Result{}, false
}

// First normalizes each text in order and returns the first success.
func First(texts []string, loc Locale) (Result, bool) {
	for _, text := range texts {
		if res, ok := Normalize(text, loc); ok {
			return res, true
		}
	}
	return Result{}, false
}

// Clean collapses whitespace (including NBSP) and rewrites "a.m."/"p.m." as AM/PM.
func Clean(text string) string {
	s := strings.ReplaceAll(text, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return meridiemExpr.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ToUpper(m[:1]) + "M"
	})
}

func parseExplicit(s string) (time.Time, bool) {
	for _, layout := range explicitLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if strings.HasSuffix(s, " GMT") || strings.HasSuffix(s, " UTC") {
		for _, layout := range namedZoneLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func parseLayouts(s string, layouts []string, loc *time.Location) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type fields struct {
	year, month, day int
	hour, minute     int
	zone             string
}

func (f fields) in(loc *time.Location) time.Time {
	return time.Date(f.year, time.Month(f.month), f.day, f.hour, f.minute, 0, 0, loc)
}

// matchDateTime reports found when a date+time shape is present; ok is false
// when that shape carries an impossible date or clock.
func matchDateTime(s string) (f fields, found, ok bool) {
	if m := dayFirstDateTime.FindStringSubmatch(s); m != nil {
		if f, ok = buildFields(m[3], m[2], m[1]); ok {
			f, ok = withClock(f, m[4], m[5], m[6], m[7])
		}
		return f, true, ok
	}
	if m := monthFirstDateTime.FindStringSubmatch(s); m != nil {
		if f, ok = buildFields(m[3], m[1], m[2]); ok {
			f, ok = withClock(f, m[4], m[5], m[6], m[7])
		}
		return f, true, ok
	}
	return fields{}, false, false
}

// matchDate only accepts a date with no time-of-day anywhere else in s;
// midnight is never assumed for a clock it cannot read.
func matchDate(s string) (fields, bool) {
	if loc := dayFirstDate.FindStringSubmatchIndex(s); loc != nil {
		m := submatches(s, loc)
		if f, ok := buildFields(m[3], m[2], m[1]); ok && !hasStrayClock(s, loc) {
			return f, true
		}
	}
	if loc := monthFirstDate.FindStringSubmatchIndex(s); loc != nil {
		m := submatches(s, loc)
		if f, ok := buildFields(m[3], m[1], m[2]); ok && !hasStrayClock(s, loc) {
			return f, true
		}
	}
	return fields{}, false
}

func submatches(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

func hasStrayClock(s string, loc []int) bool {
	return strayClockExpr.MatchString(s[:loc[0]] + " " + s[loc[1]:])
}

func buildFields(year, month, day string) (fields, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return fields{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return fields{}, false
	}
	mo := monthNumber(month)
	if mo == 0 {
		return fields{}, false
	}
	// time.Date silently rolls 31 September into October.
	if check := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC); check.Day() != d || int(check.Month()) != mo {
		return fields{}, false
	}
	return fields{year: y, month: mo, day: d}, true
}

func withClock(f fields, hour, minute, meridiem, zone string) (fields, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return fields{}, false
	}
	mi, err := strconv.Atoi(minute)
	if err != nil || mi > 59 {
		return fields{}, false
	}
	switch strings.ToUpper(meridiem) {
	case "AM":
		if h < 1 || h > 12 {
			return fields{}, false
		}
		if h == 12 {
			h = 0
		}
	case "PM":
		if h < 1 || h > 12 {
			return fields{}, false
		}
		if h != 12 {
			h += 12
		}
	default:
		if h > 23 {
			return fields{}, false
		}
	}
	f.hour, f.minute, f.zone = h, mi, zone
	return f, true
}

func monthNumber(name string) int {
	switch strings.ToLower(name) {
	case "january":
		return 1
	case "february":
		return 2
	case "march":
		return 3
	case "april":
		return 4
	case "may":
		return 5
	case "june":
		return 6
	case "july":
		return 7
	case "august":
		return 8
	case "september":
		return 9
	case "october":
		return 10
	case "november":
		return 11
	case "december":
		return 12
	default:
		return 0
	}
}
