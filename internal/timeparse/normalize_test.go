package timeparse

import (
	"testing"
	"time"
)

func mustUTC(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts.UTC()
}

func TestNormalizeChain(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		text   string
		locale Locale
		want   string
		step   Step
	}{
		{"rfc3339 offset", "2025-09-15T10:00:00+02:00", London(), "2025-09-15T08:00:00Z", StepExplicitOffset},
		{"rfc3339 minutes", "2025-09-01T10:00-04:00", NewYork(), "2025-09-01T14:00:00Z", StepExplicitOffset},
		{"rfc3339 zulu", "2025-09-15T10:00:00Z", Brussels(), "2025-09-15T10:00:00Z", StepExplicitOffset},
		{"rfc1123z", "Mon, 15 Sep 2025 14:30:00 -0400", London(), "2025-09-15T18:30:00Z", StepExplicitOffset},
		{"rfc1123 gmt", "Mon, 15 Sep 2025 14:30:00 GMT", NewYork(), "2025-09-15T14:30:00Z", StepExplicitOffset},
		{"bst abbreviation", "15 September 2025 10:00 BST", London(), "2025-09-15T09:00:00Z", StepZoneAbbrev},
		{"gmt abbreviation", "15 December 2025 10:00 GMT", London(), "2025-12-15T10:00:00Z", StepZoneAbbrev},
		{"cest with weekday", "Monday, 15 September 2025 10:00 CEST", Brussels(), "2025-09-15T08:00:00Z", StepZoneAbbrev},
		{"cet abbreviation", "15 January 2026 14:30 CET", Brussels(), "2026-01-15T13:30:00Z", StepZoneAbbrev},
		{"et civil summer", "September 12, 2025 8:30 a.m. ET", NewYork(), "2025-09-12T12:30:00Z", StepZoneAbbrev},
		{"et civil winter", "December 10, 2025 8:30 a.m. ET", NewYork(), "2025-12-10T13:30:00Z", StepZoneAbbrev},
		{"et pm", "September 17, 2025 2:00 p.m. ET", NewYork(), "2025-09-17T18:00:00Z", StepZoneAbbrev},
		{"weekday civil london", "Monday, 15 September 2025 10:00", London(), "2025-09-15T09:00:00Z", StepCivilDateTime},
		{"civil london winter", "Tuesday, 2 December 2025 18:15", London(), "2025-12-02T18:15:00Z", StepCivilDateTime},
		{"civil with at", "15 September 2025 at 10:00", London(), "2025-09-15T09:00:00Z", StepCivilDateTime},
		{"civil new york 12am", "March 3, 2026 12:05 AM", NewYork(), "2026-03-03T05:05:00Z", StepCivilDateTime},
		{"iso local", "2025-09-15T10:00", Brussels(), "2025-09-15T08:00:00Z", StepCivilDateTime},
		{"non-zone caps ignored", "15 September 2025 10:00 ECB", Brussels(), "2025-09-15T08:00:00Z", StepCivilDateTime},
		{"date only london", "15 September 2025", London(), "2025-09-14T23:00:00Z", StepCivilDate},
		{"date only london winter", "15 January 2026", London(), "2026-01-15T00:00:00Z", StepCivilDate},
		{"date only month first", "Release Date: September 12, 2025", NewYork(), "2025-09-12T04:00:00Z", StepCivilDate},
		{"iso date", "2025-09-15", London(), "2025-09-14T23:00:00Z", StepCivilDate},
		{"nbsp and spacing", "15 September   2025\t10:00  BST", London(), "2025-09-15T09:00:00Z", StepZoneAbbrev},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res, ok := Normalize(tc.text, tc.locale)
			if !ok {
				t.Fatalf("Normalize(%q) reported unparseable", tc.text)
			}
			if want := mustUTC(t, tc.want); !res.Instant.Equal(want) {
				t.Fatalf("Normalize(%q) = %s, want %s", tc.text, res.Instant.Format(time.RFC3339), tc.want)
			}
			if res.Instant.Location() != time.UTC {
				t.Fatalf("expected UTC location, got %s", res.Instant.Location())
			}
			if res.Step != tc.step {
				t.Fatalf("Normalize(%q) step = %s, want %s", tc.text, res.Step, tc.step)
			}
		})
	}
}

func TestNormalizeUnparseable(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"",
		"   ",
		"Speech by Andrew Bailey at the Mansion House",
		"TBC",
		"09/15/2025",
		"15/09/2025 10:00",
		"Sep 15 2025",
		"31 September 2025",
		"15 September 2025 10:00 PST",
		"September 12, 2025 8:30 a.m. CET",
		"15 September 2025 25:00",
		"September 17, 2025 2 p.m. ET",
		"15 September 2025 2 p.m. BST",
		"15 September 2025 2 p.m. PST",
		"Wednesday 17 September 2025 - 14:30",
		"17 September 2025 10.30 CET",
		"14:30, 15 September 2025",
	} {
		if res, ok := Normalize(text, London()); ok {
			t.Fatalf("Normalize(%q) = %s, want unparseable", text, res.Instant)
		}
	}
}

func TestExplicitOffsetIgnoresLocale(t *testing.T) {
	t.Parallel()

	texts := []string{
		"2025-03-30T01:30:00+01:00",
		"2025-11-02T06:15:00-05:00",
		"2026-07-01T23:59:59.5+09:00",
	}
	for _, text := range texts {
		direct, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			t.Fatalf("parse %q: %v", text, err)
		}
		for _, loc := range []Locale{London(), Brussels(), NewYork(), UTC()} {
			res, ok := Normalize(text, loc)
			if !ok {
				t.Fatalf("Normalize(%q, %s) unparseable", text, loc.Name)
			}
			if !res.Instant.Equal(direct.UTC()) || res.Step != StepExplicitOffset {
				t.Fatalf("Normalize(%q, %s) = %s/%s, want %s", text, loc.Name, res.Instant, res.Step, direct.UTC())
			}
		}
	}
}

func TestFirstPicksEarliestSuccess(t *testing.T) {
	t.Parallel()

	res, ok := First([]string{"", "no date here", "15 September 2025 10:00 BST", "2025-01-01T00:00:00Z"}, London())
	if !ok {
		t.Fatal("First reported unparseable")
	}
	if want := mustUTC(t, "2025-09-15T09:00:00Z"); !res.Instant.Equal(want) {
		t.Fatalf("First = %s, want %s", res.Instant, want)
	}

	if _, ok := First(nil, London()); ok {
		t.Fatal("First(nil) should be unparseable")
	}
}

func TestLocaleByName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]string{"boe": "london", "ECB": "brussels", "fed": "newyork", "": "utc"} {
		loc, err := LocaleByName(name)
		if err != nil {
			t.Fatalf("LocaleByName(%q): %v", name, err)
		}
		if loc.Name != want {
			t.Fatalf("LocaleByName(%q) = %s, want %s", name, loc.Name, want)
		}
	}
	if _, err := LocaleByName("mars"); err == nil {
		t.Fatal("expected error for unknown locale")
	}
}
