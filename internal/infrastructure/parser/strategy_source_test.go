package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"EventRadar/internal/config"
	"EventRadar/internal/domain"
	"EventRadar/internal/scanner"
)

type stubScanner struct {
	name  string
	scan  func() ([]domain.Candidate, error)
	calls int
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	s.calls++
	return s.scan()
}

func TestStrategySourceIsolatesFailures(t *testing.T) {
	t.Parallel()

	ok := &stubScanner{name: "ok", scan: func() ([]domain.Candidate, error) {
		return []domain.Candidate{{Title: "fine"}}, nil
	}}
	failing := &stubScanner{name: "failing", scan: func() ([]domain.Candidate, error) {
		return nil, errors.New("upstream down")
	}}
	panicking := &stubScanner{name: "panicking", scan: func() ([]domain.Candidate, error) {
		panic("bad markup")
	}}

	reg := scanner.NewRegistry()
	reg.Register(ok)
	reg.Register(failing)
	reg.Register(panicking)

	src := NewStrategySource(reg, []config.SourceConfig{
		{Name: "a", Scanner: "panicking", Group: "banks"},
		{Name: "b", Scanner: "failing", Group: "banks"},
		{Name: "c", Scanner: "ok", Group: "banks"},
		{Name: "d", Scanner: "missing", Group: "banks"},
		{Name: "e", Scanner: "ok", Group: "news"},
	}, zerolog.Nop())

	results, err := src.Collect(context.Background(), "banks")
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 site results, got %d", len(results))
	}
	if results[0].Err == nil || !strings.Contains(results[0].Err.Error(), "panicked") {
		t.Fatalf("panic not captured: %v", results[0].Err)
	}
	if results[1].Err == nil || results[3].Err == nil {
		t.Fatalf("errors not captured: %+v", results)
	}
	if results[2].Err != nil || len(results[2].Candidates) != 1 {
		t.Fatalf("healthy site affected: %+v", results[2])
	}
	if ok.calls != 1 {
		t.Fatalf("group filter ignored, ok scanner called %d times", ok.calls)
	}

	all, err := src.Collect(context.Background(), "")
	if err != nil || len(all) != 5 {
		t.Fatalf("expected all 5 sites, got %d (%v)", len(all), err)
	}
}

func TestSpeakerFromTitle(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Speech by Andrew Bailey at the Mansion House": "Andrew Bailey",
		"Remarks by Huw Pill on inflation":             "Huw Pill",
		"Opening Remarks by Governor Lisa D. Cook":     "Governor Lisa D. Cook",
		"Monetary Policy Report":                       "",
	}
	for title, want := range cases {
		if got := speakerFromTitle(title); got != want {
			t.Fatalf("speakerFromTitle(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestExpandMonth(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Sep. 11, 2025":     "September 11, 2025",
		"Sept. 11, 2025":    "September 11, 2025",
		"Jan 9, 2026":       "January 9, 2026",
		"December 10, 2025": "December 10, 2025",
		"Ju 1, 2025":        "",
		"Foo 1, 2025":       "",
		"September 2025":    "",
	}
	for in, want := range cases {
		if got := expandMonth(in); got != want {
			t.Fatalf("expandMonth(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractRealURL(t *testing.T) {
	t.Parallel()

	if got := extractRealURL("https://news.google.com/articles/x?url=https%3A%2F%2Fft.com%2Fa%3Fb%3D1"); got != "https://ft.com/a?b=1" {
		t.Fatalf("unexpected url %s", got)
	}
	if got := extractRealURL("https://news.google.com/rss/articles/CBMi"); got != "https://news.google.com/rss/articles/CBMi" {
		t.Fatalf("plain link changed: %s", got)
	}
}

func TestArticleText(t *testing.T) {
	t.Parallel()

	para := strings.Repeat("The Federal Reserve left rates unchanged. ", 8)
	html := `<html><body><nav><p>Home | Markets</p></nav><script>var x = 1;</script>
<article><p>` + para + `</p><p>Officials signalled patience.</p></article>
<footer><p>Copyright</p></footer></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	body := ArticleText(doc)
	if strings.Contains(body, "Home") || strings.Contains(body, "Copyright") || strings.Contains(body, "var x") {
		t.Fatalf("chrome not removed: %q", body)
	}
	if !strings.Contains(body, "Officials signalled patience.") {
		t.Fatalf("paragraph missing: %q", body)
	}

	short, _ := goquery.NewDocumentFromReader(strings.NewReader(`<p>Too short.</p>`))
	if got := ArticleText(short); got != "" {
		t.Fatalf("expected empty body for short page, got %q", got)
	}
}
