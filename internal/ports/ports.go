package ports

import (
	"context"
	"errors"
	"time"

	"EventRadar/internal/domain"
	"EventRadar/internal/scanner"
)

// CandidateSource runs source adapters. Sites are isolated: a failing site
// is reported in its result, not as the returned error.
type CandidateSource interface {
	Collect(ctx context.Context, group string) ([]scanner.SiteResult, error)
}

// ArticleReader returns the readable text of a news article.
type ArticleReader interface {
	Read(ctx context.Context, url string) (string, error)
}

// OccurrenceStore persists occurrences and their delivery flags.
type OccurrenceStore interface {
	// Upsert inserts or refreshes descriptive fields. Delivery flags and
	// summaries are never cleared.
	Upsert(ctx context.Context, occ domain.Occurrence) error
	// Query returns occurrences with start in [from, to], ascending by start.
	// An empty category list means every category.
	Query(ctx context.Context, from, to time.Time, categories []domain.Category) ([]domain.Occurrence, error)
	Get(ctx context.Context, id string) (domain.Occurrence, error)
	// MarkDelivered records a flag; repeating it is a no-op.
	MarkDelivered(ctx context.Context, id string, key domain.DeliveryKey, at time.Time) error
	SetSummaries(ctx context.Context, id string, summaries map[string]string) error
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// Registry holds per-scope subscriptions, reminder leads and language.
type Registry interface {
	LeadsFor(ctx context.Context, scope string) ([]time.Duration, error)
	SetLeads(ctx context.Context, scope string, leads []time.Duration) error
	// CategoriesFor returns the scope's subscriptions; empty means all.
	CategoriesFor(ctx context.Context, scope string) ([]domain.Category, error)
	Subscribe(ctx context.Context, scope, category string) error
	Unsubscribe(ctx context.Context, scope, category string) error
	LangFor(ctx context.Context, scope string) (domain.Lang, error)
	SetLang(ctx context.Context, scope string, lang domain.Lang) error
	Scopes(ctx context.Context) ([]string, error)
}

// ErrScopeNotServed is returned by a Sink for scopes it can never reach,
// such as a non-numeric scope on a chat transport.
var ErrScopeNotServed = errors.New("scope not served by sink")

// Sink delivers a notification intent to a consumer.
type Sink interface {
	Deliver(ctx context.Context, intent domain.Intent) error
}

// Summarizer generates short summaries of news articles.
type Summarizer interface {
	Summarize(ctx context.Context, text string, lang domain.Lang) (string, error)
}

// Scheduler controls when jobs execute.
type Scheduler interface {
	Add(name, spec string, job func(context.Context)) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
