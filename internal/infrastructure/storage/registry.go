package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"EventRadar/internal/domain"
	"EventRadar/internal/ports"
)

// Registry implements ports.Registry with the subscriptions and settings tables.
type Registry struct {
	db *DB
}

var _ ports.Registry = (*Registry)(nil)

// NewRegistry builds a registry sharing db.
func NewRegistry(db *DB) *Registry {
	return &Registry{db: db}
}

type scopeSettings struct {
	leads []time.Duration
	lang  domain.Lang
}

func (r *Registry) settings(ctx context.Context, scope string) (scopeSettings, bool, error) {
	query, args, err := r.db.builder.Select("leads", "lang").From("settings").Where(sq.Eq{"scope_id": scope}).ToSql()
	if err != nil {
		return scopeSettings{}, false, fmt.Errorf("build settings query: %w", err)
	}
	var rawLeads, lang string
	if err := r.db.conn.QueryRowContext(ctx, query, args...).Scan(&rawLeads, &lang); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return scopeSettings{lang: domain.LangMixed}, false, nil
		}
		return scopeSettings{}, false, fmt.Errorf("settings for %s: %w", scope, err)
	}
	return scopeSettings{leads: decodeLeads(rawLeads), lang: domain.ParseLang(lang)}, true, nil
}

// LeadsFor returns the scope's leads ascending, or the defaults.
func (r *Registry) LeadsFor(ctx context.Context, scope string) ([]time.Duration, error) {
	st, _, err := r.settings(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(st.leads) == 0 {
		return domain.DefaultLeads(), nil
	}
	return st.leads, nil
}

// SetLeads replaces the scope's leads. An empty list restores the defaults.
func (r *Registry) SetLeads(ctx context.Context, scope string, leads []time.Duration) error {
	leads = domain.NormalizeLeads(leads)
	if len(leads) == 0 {
		leads = domain.DefaultLeads()
	}
	raw, err := encodeLeads(leads)
	if err != nil {
		return err
	}
	return r.upsertSetting(ctx, scope, "leads", raw)
}

// LangFor returns the scope's language, LangMixed when unset.
func (r *Registry) LangFor(ctx context.Context, scope string) (domain.Lang, error) {
	st, _, err := r.settings(ctx, scope)
	if err != nil {
		return domain.LangMixed, err
	}
	return st.lang, nil
}

// SetLang stores the scope's language.
func (r *Registry) SetLang(ctx context.Context, scope string, lang domain.Lang) error {
	return r.upsertSetting(ctx, scope, "lang", string(domain.ParseLang(string(lang))))
}

func (r *Registry) upsertSetting(ctx context.Context, scope, column, value string) error {
	leads, lang := "[]", string(domain.LangMixed)
	if column == "leads" {
		leads = value
	} else {
		lang = value
	}
	query, args, err := r.db.builder.
		Insert("settings").
		Columns("scope_id", "leads", "lang").
		Values(scope, leads, lang).
		Suffix(fmt.Sprintf("ON CONFLICT (scope_id) DO UPDATE SET %s = excluded.%s", column, column)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build settings upsert: %w", err)
	}
	if _, err := r.db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store %s for %s: %w", column, scope, err)
	}
	return nil
}

// CategoriesFor returns the scope's subscriptions sorted by name. An empty
// result means the scope receives every category.
func (r *Registry) CategoriesFor(ctx context.Context, scope string) ([]domain.Category, error) {
	query, args, err := r.db.builder.
		Select("category").
		From("subscriptions").
		Where(sq.Eq{"scope_id": scope}).
		OrderBy("category ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subscriptions query: %w", err)
	}

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("subscriptions for %s: %w", scope, err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, domain.Category(c))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("subscriptions iteration: %w", err)
	}
	return out, nil
}

// Subscribe adds a category, or every subscribable category for "all".
// "all" is expanded once; categories added later are not picked up.
func (r *Registry) Subscribe(ctx context.Context, scope, category string) error {
	cats, err := resolveSubscription(category)
	if err != nil {
		return err
	}
	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		for _, c := range cats {
			query, args, err := r.db.builder.
				Insert("subscriptions").
				Columns("scope_id", "category").
				Values(scope, string(c)).
				Suffix("ON CONFLICT (scope_id, category) DO NOTHING").
				ToSql()
			if err != nil {
				return fmt.Errorf("build subscribe: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("subscribe %s to %s: %w", scope, c, err)
			}
		}
		return nil
	})
}

// Unsubscribe removes a category; "all" clears every subscription.
func (r *Registry) Unsubscribe(ctx context.Context, scope, category string) error {
	del := r.db.builder.Delete("subscriptions").Where(sq.Eq{"scope_id": scope})
	if !strings.EqualFold(strings.TrimSpace(category), domain.CategoryAll) {
		c, err := domain.ParseCategory(category)
		if err != nil {
			return err
		}
		del = del.Where(sq.Eq{"category": string(c)})
	}
	query, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build unsubscribe: %w", err)
	}
	if _, err := r.db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("unsubscribe %s from %s: %w", scope, category, err)
	}
	return nil
}

// Scopes lists every scope with settings or subscriptions, sorted.
func (r *Registry) Scopes(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	for _, table := range []string{"settings", "subscriptions"} {
		query, args, err := r.db.builder.Select("DISTINCT scope_id").From(table).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build scopes query: %w", err)
		}
		if err := r.collect(ctx, query, args, seen); err != nil {
			return nil, err
		}
	}
	out := make([]string, 0, len(seen))
	for scope := range seen {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Registry) collect(ctx context.Context, query string, args []interface{}, into map[string]struct{}) error {
	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query scopes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return fmt.Errorf("scan scope: %w", err)
		}
		into[scope] = struct{}{}
	}
	return rows.Err()
}

func resolveSubscription(category string) ([]domain.Category, error) {
	if strings.EqualFold(strings.TrimSpace(category), domain.CategoryAll) {
		return domain.SubscribableCategories(), nil
	}
	c, err := domain.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	return []domain.Category{c}, nil
}

func encodeLeads(leads []time.Duration) (string, error) {
	values := make([]string, 0, len(leads))
	for _, l := range leads {
		values = append(values, domain.FormatLead(l))
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode leads: %w", err)
	}
	return string(raw), nil
}

// decodeLeads skips malformed entries rather than failing the scope.
func decodeLeads(raw string) []time.Duration {
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	leads := make([]time.Duration, 0, len(values))
	for _, v := range values {
		if d, err := domain.ParseLead(v); err == nil {
			leads = append(leads, d)
		}
	}
	return domain.NormalizeLeads(leads)
}
