package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventRadar/internal/domain"
	"EventRadar/internal/ports"
)

const scope = "chat-1"

func newTestNotifier(store ports.OccurrenceStore, registry ports.Registry, sink ports.Sink, c *clock) *Notifier {
	cfg := DefaultNotifierConfig()
	cfg.Scopes = []string{scope}
	return NewNotifier(NotifierDeps{
		Store:    store,
		Registry: registry,
		Sink:     sink,
		Logger:   zerolog.Nop(),
		Config:   cfg,
		Now:      c.Now,
	})
}

func markers(intents []domain.Intent) []domain.Marker {
	out := make([]domain.Marker, 0, len(intents))
	for _, in := range intents {
		out = append(out, in.Marker)
	}
	return out
}

func TestTickLeadThenStart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, registry := openStores(t)
	sink := &recordingSink{}
	start := mustTime(t, "2025-09-15T14:00:00Z")
	c := &clock{}
	n := newTestNotifier(store, registry, sink, c)

	require.NoError(t, store.Upsert(ctx, speech(t, "fed:a", domain.CategoryFed, "2025-09-15T14:00:00Z")))

	// Before the 24h window opens nothing fires.
	c.Set(start.Add(-24*time.Hour - 18*time.Minute))
	_, err := n.Tick(ctx)
	require.NoError(t, err)
	assert.Empty(t, sink.Drain())

	c.Set(start.Add(-24 * time.Hour))
	report, err := n.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	got := sink.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, domain.LeadMarker(24*time.Hour), got[0].Marker)
	assert.Equal(t, scope, got[0].Scope)
	assert.Equal(t, domain.LangMixed, got[0].LocaleHint)

	// Still inside the grace window but already flagged.
	c.Set(start.Add(-24*time.Hour + 10*time.Minute))
	_, err = n.Tick(ctx)
	require.NoError(t, err)
	assert.Empty(t, sink.Drain())

	c.Set(start.Add(-time.Hour))
	_, err = n.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Marker{domain.LeadMarker(time.Hour)}, markers(sink.Drain()))

	c.Set(start)
	_, err = n.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Marker{domain.MarkerStart}, markers(sink.Drain()))

	for i := 0; i < 5; i++ {
		c.Set(start.Add(time.Duration(i) * 3 * time.Minute))
		_, err = n.Tick(ctx)
		require.NoError(t, err)
	}
	assert.Empty(t, sink.Drain())

	stored, err := store.Get(ctx, "fed:a")
	require.NoError(t, err)
	assert.Len(t, stored.Deliveries, 3)
}

func TestTickOutsideWindowsEmitsNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, registry := openStores(t)
	sink := &recordingSink{}
	start := mustTime(t, "2025-09-15T14:00:00Z")
	c := &clock{}
	n := newTestNotifier(store, registry, sink, c)
	require.NoError(t, store.Upsert(ctx, speech(t, "boe:a", domain.CategoryBoE, "2025-09-15T14:00:00Z")))

	for _, at := range []time.Time{
		start.Add(-30 * time.Hour),
		start.Add(-24*time.Hour - 18*time.Minute),
		start.Add(-12 * time.Hour),
		start.Add(-42 * time.Minute),
		start.Add(15*time.Minute + time.Second),
		start.Add(3 * time.Hour),
	} {
		c.Set(at)
		_, err := n.Tick(ctx)
		require.NoError(t, err)
	}
	assert.Empty(t, sink.Drain())
}

func TestTickStartGraceBoundary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, registry := openStores(t)
	sink := &recordingSink{}
	start := mustTime(t, "2025-09-15T14:00:00Z")
	c := &clock{now: start.Add(15 * time.Minute)}
	n := newTestNotifier(store, registry, sink, c)
	require.NoError(t, store.Upsert(ctx, speech(t, "ecb:a", domain.CategoryECB, "2025-09-15T14:00:00Z")))

	_, err := n.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Marker{domain.MarkerStart}, markers(sink.Drain()))
}

func TestTickNewsGetsStartOnlyWithWiderGrace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, registry := openStores(t)
	sink := &recordingSink{}
	start := mustTime(t, "2025-09-15T14:00:00Z")
	c := &clock{}
	n := newTestNotifier(store, registry, sink, c)

	occ := speech(t, "news:x", domain.CategoryNewsCPI, "2025-09-15T14:00:00Z")
	require.NoError(t, store.Upsert(ctx, occ))

	c.Set(start.Add(-time.Hour))
	_, err := n.Tick(ctx)
	require.NoError(t, err)
	assert.Empty(t, sink.Drain(), "news never gets leads")

	c.Set(start.Add(45 * time.Minute))
	_, err = n.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Marker{domain.MarkerStart}, markers(sink.Drain()))
}

func TestTickSinkFailureRetriesNextTick(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, registry := openStores(t)
	sink := &recordingSink{}
	start := mustTime(t, "2025-09-15T14:00:00Z")
	c := &clock{now: start}
	n := newTestNotifier(store, registry, sink, c)
	require.NoError(t, store.Upsert(ctx, speech(t, "fomc:a", domain.CategoryFOMC, "2025-09-15T14:00:00Z")))

	sink.SetFail(true)
	report, err := n.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	stored, err := store.Get(ctx, "fomc:a")
	require.NoError(t, err)
	assert.False(t, stored.Delivered(scope, domain.MarkerStart))

	sink.SetFail(false)
	c.Set(start.Add(5 * time.Minute))
	report, err = n.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Len(t, sink.Drain(), 1)
}

func TestTickPerScopeLeadsAndSubscriptions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, registry := openStores(t)
	sink := &recordingSink{}
	start := mustTime(t, "2025-09-15T14:00:00Z")
	c := &clock{now: start.Add(-30 * time.Minute)}
	n := newTestNotifier(store, registry, sink, c)

	require.NoError(t, registry.SetLeads(ctx, "chat-2", []time.Duration{30 * time.Minute}))
	require.NoError(t, registry.SetLang(ctx, "chat-2", domain.LangKO))
	require.NoError(t, registry.Subscribe(ctx, "chat-3", "cpi"))
	require.NoError(t, registry.SetLeads(ctx, "chat-3", []time.Duration{30 * time.Minute}))

	require.NoError(t, store.Upsert(ctx, speech(t, "fed:a", domain.CategoryFed, "2025-09-15T14:00:00Z")))

	report, err := n.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scopes)

	got := sink.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "chat-2", got[0].Scope)
	assert.Equal(t, domain.LeadMarker(30*time.Minute), got[0].Marker)
	assert.Equal(t, domain.LangKO, got[0].LocaleHint)
}

func TestTickOrdersByStart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, registry := openStores(t)
	sink := &recordingSink{}
	now := mustTime(t, "2025-09-15T14:10:00Z")
	c := &clock{now: now}
	n := newTestNotifier(store, registry, sink, c)

	require.NoError(t, store.Upsert(ctx, speech(t, "boe:late", domain.CategoryBoE, "2025-09-15T14:05:00Z")))
	require.NoError(t, store.Upsert(ctx, speech(t, "boe:early", domain.CategoryBoE, "2025-09-15T14:00:00Z")))

	_, err := n.Tick(ctx)
	require.NoError(t, err)
	got := sink.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "boe:early", got[0].OccurrenceID)
	assert.Equal(t, "boe:late", got[1].OccurrenceID)
}

type brokenStore struct {
	ports.OccurrenceStore
}

func (brokenStore) Query(context.Context, time.Time, time.Time, []domain.Category) ([]domain.Occurrence, error) {
	return nil, errors.New("database is locked")
}

func TestTickReturnsStoreErrors(t *testing.T) {
	t.Parallel()
	c := &clock{now: time.Now()}
	n := newTestNotifier(brokenStore{}, nil, &recordingSink{}, c)

	_, err := n.Tick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query window")
}
