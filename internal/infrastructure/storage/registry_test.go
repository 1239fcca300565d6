package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventRadar/internal/domain"
)

func TestLeadsDefaultAndReplace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := NewRegistry(openTestDB(t))

	leads, err := reg.LeadsFor(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Hour, 24 * time.Hour}, leads)

	require.NoError(t, reg.SetLeads(ctx, "chat-1", []time.Duration{24 * time.Hour, 30 * time.Minute, 24 * time.Hour}))
	leads, err = reg.LeadsFor(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{30 * time.Minute, 24 * time.Hour}, leads)

	require.NoError(t, reg.SetLeads(ctx, "chat-1", nil))
	leads, err = reg.LeadsFor(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLeads(), leads)
}

func TestSubscribeAllIsSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := NewRegistry(openTestDB(t))

	cats, err := reg.CategoriesFor(ctx, "chat-1")
	require.NoError(t, err)
	assert.Empty(t, cats)

	require.NoError(t, reg.Subscribe(ctx, "chat-1", "ALL"))
	cats, err = reg.CategoriesFor(ctx, "chat-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, domain.SubscribableCategories(), cats)

	require.NoError(t, reg.Unsubscribe(ctx, "chat-1", "news"))
	cats, err = reg.CategoriesFor(ctx, "chat-1")
	require.NoError(t, err)
	assert.NotContains(t, cats, domain.CategoryNews)
	assert.Len(t, cats, len(domain.SubscribableCategories())-1)

	require.NoError(t, reg.Unsubscribe(ctx, "chat-1", "all"))
	cats, err = reg.CategoriesFor(ctx, "chat-1")
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestSubscribeIsIdempotentAndValidated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := NewRegistry(openTestDB(t))

	require.NoError(t, reg.Subscribe(ctx, "chat-1", "fed"))
	require.NoError(t, reg.Subscribe(ctx, "chat-1", "fed"))
	cats, err := reg.CategoriesFor(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{domain.CategoryFed}, cats)

	require.ErrorIs(t, reg.Subscribe(ctx, "chat-1", "weather"), domain.ErrUnknownCategory)
	require.ErrorIs(t, reg.Unsubscribe(ctx, "chat-1", "weather"), domain.ErrUnknownCategory)
}

func TestLangAndScopes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := NewRegistry(openTestDB(t))

	lang, err := reg.LangFor(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LangMixed, lang)

	require.NoError(t, reg.SetLang(ctx, "chat-1", domain.LangKO))
	require.NoError(t, reg.SetLeads(ctx, "chat-1", []time.Duration{2 * time.Hour}))
	lang, err = reg.LangFor(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LangKO, lang)

	require.NoError(t, reg.Subscribe(ctx, "chat-2", "cpi"))
	scopes, err := reg.Scopes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chat-1", "chat-2"}, scopes)
}
