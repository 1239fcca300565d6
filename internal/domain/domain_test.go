package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurrenceID(t *testing.T) {
	t.Parallel()
	start := time.Date(2025, 9, 15, 10, 0, 0, 0, time.FixedZone("BST", 3600))

	cases := []struct {
		name     string
		category Category
		url      string
		want     string
	}{
		{"canonical url", CategoryBoE, "https://www.bankofengland.co.uk/speech/2025/bailey", "boe:https://www.bankofengland.co.uk/speech/2025/bailey"},
		{"url trimmed", CategoryFed, "  https://fed.test/a  ", "fed:https://fed.test/a"},
		{"urlless uses utc start", CategoryCPI, "", "cpi:2025-09-15T09:00:00Z"},
		{"news family shares prefix", CategoryNewsCrypto, "https://news.test/etf", "news:https://news.test/etf"},
		{"news tag urlless", CategoryNewsFed, "", "news:2025-09-15T09:00:00Z"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, OccurrenceID(tc.category, tc.url, start))
		})
	}

	assert.Equal(t, OccurrenceID(CategoryNewsCPI, "https://news.test/x", start), OccurrenceID(CategoryNews, "https://news.test/x", start))
}

func TestContentFingerprint(t *testing.T) {
	t.Parallel()
	start := time.Date(2025, 9, 15, 9, 0, 0, 0, time.UTC)

	fp := ContentFingerprint("Speech", start, "https://a")
	assert.Len(t, fp, 24)
	assert.Equal(t, fp, ContentFingerprint("Speech", start.In(time.FixedZone("X", 7200)), "https://a"))
	assert.NotEqual(t, fp, ContentFingerprint("Speech", start.Add(time.Minute), "https://a"))
	assert.NotEqual(t, fp, ContentFingerprint("Speech (moved)", start, "https://a"))
}

func TestParseAndFormatLead(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   time.Duration
		format string
	}{
		{"30m", 30 * time.Minute, "30m"},
		{"1h", time.Hour, "1h"},
		{" 24H ", 24 * time.Hour, "24h"},
		{"90m", 90 * time.Minute, "90m"},
		{"120m", 2 * time.Hour, "2h"},
		{"2 h", 2 * time.Hour, "2h"},
	}
	for _, tc := range cases {
		got, err := ParseLead(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.format, FormatLead(got), tc.in)

		back, err := ParseLead(FormatLead(got))
		require.NoError(t, err)
		assert.Equal(t, got, back)
	}

	for _, bad := range []string{"", "0m", "-5m", "1d", "soon", "1.5h", "m"} {
		_, err := ParseLead(bad)
		assert.True(t, errors.Is(err, ErrInvalidLead), bad)
	}
}

func TestNormalizeLeads(t *testing.T) {
	t.Parallel()

	got := NormalizeLeads([]time.Duration{
		24 * time.Hour,
		90 * time.Second,
		time.Hour,
		0,
		-time.Hour,
		time.Hour + 30*time.Second,
		30 * time.Second,
	})
	assert.Equal(t, []time.Duration{time.Minute, time.Hour, 24 * time.Hour}, got)
	assert.Empty(t, NormalizeLeads(nil))
}

func TestLeadMarkerRoundTrip(t *testing.T) {
	t.Parallel()

	for _, lead := range []time.Duration{time.Minute, 30 * time.Minute, time.Hour, 24 * time.Hour, 90 * time.Minute} {
		m := LeadMarker(lead)
		got, ok := m.Lead()
		require.True(t, ok, m)
		assert.Equal(t, lead, got, m)
	}
	assert.Equal(t, Marker("lead:60m"), LeadMarker(time.Hour))

	_, ok := MarkerStart.Lead()
	assert.False(t, ok)
	_, ok = Marker("lead:soon").Lead()
	assert.False(t, ok)
}

func TestExpandCategoriesAndParse(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ExpandCategories(nil))
	assert.Equal(t,
		[]Category{CategoryFed, CategoryNews, CategoryNewsFed, CategoryNewsCPI, CategoryNewsCrypto},
		ExpandCategories([]Category{CategoryFed, CategoryNews, CategoryNewsFed, CategoryFed}))

	c, err := ParseCategory(" FOMC ")
	require.NoError(t, err)
	assert.Equal(t, CategoryFOMC, c)
	_, err = ParseCategory("gold")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	ok := Occurrence{ID: "fed:a", Category: CategoryFed, Start: time.Now()}
	require.NoError(t, ok.Validate())

	for _, bad := range []Occurrence{
		{Category: CategoryFed, Start: time.Now()},
		{ID: "fed:a", Start: time.Now()},
		{ID: "fed:a", Category: CategoryFed},
	} {
		assert.ErrorIs(t, bad.Validate(), ErrInvalidOccurrence)
	}
}
