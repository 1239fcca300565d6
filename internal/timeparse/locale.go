package timeparse

import (
	"fmt"
	"strings"
	"time"

	_ "time/tzdata"
)

// ZoneRef resolves a zone abbreviation either to a fixed UTC offset (BST, CEST)
// or to a civil zone whose offset depends on the calendar date (ET).
type ZoneRef struct {
	loc *time.Location
}

// Fixed returns a reference to a constant UTC offset.
func Fixed(name string, offset time.Duration) ZoneRef {
	return ZoneRef{loc: time.FixedZone(name, int(offset/time.Second))}
}

// Civil returns a reference that follows the standard/daylight rules of loc.
func Civil(loc *time.Location) ZoneRef {
	return ZoneRef{loc: loc}
}

func (z ZoneRef) location() *time.Location {
	if z.loc == nil {
		return time.UTC
	}
	return z.loc
}

// Locale describes how a source writes its timestamps: the civil zone assumed
// when a fragment carries no zone, and the abbreviations it is expected to use.
type Locale struct {
	Name   string
	Zone   *time.Location
	Family map[string]ZoneRef
}

func (l Locale) zone() *time.Location {
	if l.Zone == nil {
		return time.UTC
	}
	return l.Zone
}

func (l Locale) resolve(abbrev string) (ZoneRef, bool) {
	ref, ok := l.Family[strings.ToUpper(abbrev)]
	return ref, ok
}

// London covers Bank of England pages.
func London() Locale {
	loc := mustLoad("Europe/London")
	return Locale{
		Name: "london",
		Zone: loc,
		Family: map[string]ZoneRef{
			"GMT": Fixed("GMT", 0),
			"BST": Fixed("BST", time.Hour),
			"UTC": Fixed("UTC", 0),
		},
	}
}

// Brussels covers ECB pages, which use Central European time.
func Brussels() Locale {
	loc := mustLoad("Europe/Brussels")
	return Locale{
		Name: "brussels",
		Zone: loc,
		Family: map[string]ZoneRef{
			"CET":  Fixed("CET", time.Hour),
			"CEST": Fixed("CEST", 2*time.Hour),
			"UTC":  Fixed("UTC", 0),
			"GMT":  Fixed("GMT", 0),
		},
	}
}

// NewYork covers Federal Reserve and BLS pages. "ET" follows the civil zone.
func NewYork() Locale {
	loc := mustLoad("America/New_York")
	return Locale{
		Name: "newyork",
		Zone: loc,
		Family: map[string]ZoneRef{
			"ET":  Civil(loc),
			"EST": Fixed("EST", -5*time.Hour),
			"EDT": Fixed("EDT", -4*time.Hour),
			"UTC": Fixed("UTC", 0),
			"GMT": Fixed("GMT", 0),
		},
	}
}

// UTC is used for feeds that only publish machine-readable timestamps.
func UTC() Locale {
	return Locale{
		Name:   "utc",
		Zone:   time.UTC,
		Family: map[string]ZoneRef{"UTC": Fixed("UTC", 0), "GMT": Fixed("GMT", 0), "Z": Fixed("UTC", 0)},
	}
}

// LocaleByName returns one of the preset locales.
func LocaleByName(name string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "london", "uk", "boe":
		return London(), nil
	case "brussels", "eu", "ecb", "frankfurt":
		return Brussels(), nil
	case "newyork", "new_york", "us", "fed", "bls":
		return NewYork(), nil
	case "utc", "":
		return UTC(), nil
	default:
		return Locale{}, fmt.Errorf("unknown locale %q", name)
	}
}

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// tzdata is embedded, so this only fires on a misspelled zone name.
		panic(fmt.Sprintf("timeparse: load %s: %v", name, err))
	}
	return loc
}

// knownAbbrevs lists zone abbreviations recognised anywhere. A token from this
// list that is outside the locale's family makes the fragment unparseable.
var knownAbbrevs = map[string]struct{}{
	"GMT": {}, "UTC": {}, "BST": {}, "IST": {}, "WET": {}, "WEST": {},
	"CET": {}, "CEST": {}, "EET": {}, "EEST": {}, "MSK": {},
	"ET": {}, "EST": {}, "EDT": {}, "CT": {}, "CST": {}, "CDT": {},
	"MT": {}, "MST": {}, "MDT": {}, "PT": {}, "PST": {}, "PDT": {},
	"JST": {}, "KST": {}, "HKT": {}, "SGT": {}, "AEST": {}, "AEDT": {},
}
