package usecase

import (
	"context"
	"fmt"
	"time"

	"EventRadar/internal/domain"
	"EventRadar/internal/ports"
)

// DefaultListHours is the horizon used when a caller asks for none.
const DefaultListHours = 48

// Listing answers read-only "what is coming up" queries.
type Listing struct {
	store    ports.OccurrenceStore
	registry ports.Registry
	now      func() time.Time
}

// NewListing builds the query surface. registry may be nil.
func NewListing(store ports.OccurrenceStore, registry ports.Registry, now func() time.Time) *Listing {
	if now == nil {
		now = time.Now
	}
	return &Listing{store: store, registry: registry, now: now}
}

// List returns occurrences starting within the next hours, ascending by
// start. An empty category list means every category; "news" includes the
// whole news family.
func (l *Listing) List(ctx context.Context, hours int, categories []domain.Category) ([]domain.Occurrence, error) {
	if hours <= 0 {
		hours = DefaultListHours
	}
	now := l.now().UTC()
	occs, err := l.store.Query(ctx, now, now.Add(time.Duration(hours)*time.Hour), domain.ExpandCategories(categories))
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return occs, nil
}

// ForScope lists using the scope's subscriptions as the category filter.
func (l *Listing) ForScope(ctx context.Context, scope string, hours int) ([]domain.Occurrence, error) {
	var cats []domain.Category
	if l.registry != nil {
		var err error
		if cats, err = l.registry.CategoriesFor(ctx, scope); err != nil {
			return nil, fmt.Errorf("categories for %s: %w", scope, err)
		}
	}
	return l.List(ctx, hours, cats)
}
