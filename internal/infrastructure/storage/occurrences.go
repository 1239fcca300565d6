package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"

	"EventRadar/internal/domain"
	"EventRadar/internal/ports"
)

const deliveryBatch = 400

var occurrenceColumns = []string{"id", "category", "title", "actor", "place", "url", "start_unix", "fingerprint", "summaries"}

// OccurrenceStore implements ports.OccurrenceStore on top of DB.
type OccurrenceStore struct {
	db    *DB
	now   func() time.Time
	locks [32]sync.Mutex
}

var _ ports.OccurrenceStore = (*OccurrenceStore)(nil)

// NewOccurrenceStore builds a store sharing db.
func NewOccurrenceStore(db *DB) *OccurrenceStore {
	return &OccurrenceStore{db: db, now: time.Now}
}

func (s *OccurrenceStore) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &s.locks[h.Sum32()%uint32(len(s.locks))]
	mu.Lock()
	return mu.Unlock
}

// Upsert inserts occ or refreshes its descriptive fields and fingerprint.
// Summaries and delivery flags of an existing row are left untouched, and
// updated_unix only moves when the fingerprint changes.
func (s *OccurrenceStore) Upsert(ctx context.Context, occ domain.Occurrence) error {
	if err := occ.Validate(); err != nil {
		return err
	}
	defer s.lock(occ.ID)()

	summaries, err := encodeSummaries(occ.Summaries)
	if err != nil {
		return err
	}
	now := s.now().Unix()

	query, args, err := s.db.builder.
		Insert("occurrences").
		Columns("id", "category", "title", "actor", "place", "url", "start_unix", "fingerprint", "summaries", "first_seen_unix", "updated_unix").
		Values(occ.ID, string(occ.Category), occ.Title, occ.Actor, occ.Place, occ.URL, occ.Start.Unix(), occ.Fingerprint, summaries, now, now).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			category = excluded.category,
			title = excluded.title,
			actor = excluded.actor,
			place = excluded.place,
			url = excluded.url,
			start_unix = excluded.start_unix,
			fingerprint = excluded.fingerprint,
			updated_unix = CASE WHEN occurrences.fingerprint = excluded.fingerprint
				THEN occurrences.updated_unix ELSE excluded.updated_unix END`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert occurrence %s: %w", occ.ID, err)
	}
	return nil
}

// Query returns occurrences with start in the closed interval [from, to],
// ascending by start then id, together with their delivery flags.
func (s *OccurrenceStore) Query(ctx context.Context, from, to time.Time, categories []domain.Category) ([]domain.Occurrence, error) {
	if to.Before(from) {
		return nil, nil
	}

	builder := s.db.builder.
		Select(occurrenceColumns...).
		From("occurrences").
		Where(sq.GtOrEq{"start_unix": from.Unix()}).
		Where(sq.LtOrEq{"start_unix": to.Unix()}).
		OrderBy("start_unix ASC", "id ASC")
	if len(categories) > 0 {
		names := make([]string, 0, len(categories))
		for _, c := range categories {
			names = append(names, string(c))
		}
		builder = builder.Where(sq.Eq{"category": names})
	}

	occs, err := s.selectOccurrences(ctx, builder)
	if err != nil {
		return nil, err
	}
	if err := s.attachDeliveries(ctx, occs); err != nil {
		return nil, err
	}
	return occs, nil
}

// Get loads a single occurrence with its delivery flags.
func (s *OccurrenceStore) Get(ctx context.Context, id string) (domain.Occurrence, error) {
	occs, err := s.selectOccurrences(ctx, s.db.builder.
		Select(occurrenceColumns...).
		From("occurrences").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.Occurrence{}, err
	}
	if len(occs) == 0 {
		return domain.Occurrence{}, fmt.Errorf("occurrence %s: %w", id, ErrNotFound)
	}
	if err := s.attachDeliveries(ctx, occs); err != nil {
		return domain.Occurrence{}, err
	}
	return occs[0], nil
}

// MarkDelivered records that key's marker was sent. Repeating it keeps the
// first timestamp.
func (s *OccurrenceStore) MarkDelivered(ctx context.Context, id string, key domain.DeliveryKey, at time.Time) error {
	defer s.lock(id)()

	exists, err := s.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("occurrence %s: %w", id, ErrNotFound)
	}

	query, args, err := s.db.builder.
		Insert("deliveries").
		Columns("occurrence_id", "scope_id", "marker", "delivered_unix").
		Values(id, key.Scope, string(key.Marker), at.Unix()).
		Suffix("ON CONFLICT (occurrence_id, scope_id, marker) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark: %w", err)
	}
	if _, err := s.db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark %s %s/%s: %w", id, key.Scope, key.Marker, err)
	}
	return nil
}

// SetSummaries merges summaries into the stored ones; existing languages
// are overwritten, others kept.
func (s *OccurrenceStore) SetSummaries(ctx context.Context, id string, summaries map[string]string) error {
	if len(summaries) == 0 {
		return nil
	}
	defer s.lock(id)()

	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		query, args, err := s.db.builder.Select("summaries").From("occurrences").Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("build select summaries: %w", err)
		}
		var raw string
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("occurrence %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("select summaries %s: %w", id, err)
		}

		merged, err := decodeSummaries(raw)
		if err != nil {
			return err
		}
		if merged == nil {
			merged = map[string]string{}
		}
		for lang, text := range summaries {
			if text != "" {
				merged[lang] = text
			}
		}
		encoded, err := encodeSummaries(merged)
		if err != nil {
			return err
		}

		query, args, err = s.db.builder.Update("occurrences").Set("summaries", encoded).Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("build update summaries: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update summaries %s: %w", id, err)
		}
		return nil
	})
}

// Prune deletes occurrences starting before olderThan along with their flags.
func (s *OccurrenceStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	var removed int64
	err := s.db.inTx(ctx, func(tx *sql.Tx) error {
		// Built with "?" so the outer builder renumbers placeholders.
		stale := sq.Select("id").From("occurrences").Where(sq.Lt{"start_unix": olderThan.Unix()})
		staleSQL, staleArgs, err := stale.ToSql()
		if err != nil {
			return fmt.Errorf("build stale select: %w", err)
		}

		query, args, err := s.db.builder.Delete("deliveries").
			Where("occurrence_id IN ("+staleSQL+")", staleArgs...).
			ToSql()
		if err != nil {
			return fmt.Errorf("build prune deliveries: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("prune deliveries: %w", err)
		}

		query, args, err = s.db.builder.Delete("occurrences").Where(sq.Lt{"start_unix": olderThan.Unix()}).ToSql()
		if err != nil {
			return fmt.Errorf("build prune occurrences: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("prune occurrences: %w", err)
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	return removed, err
}

func (s *OccurrenceStore) exists(ctx context.Context, id string) (bool, error) {
	query, args, err := s.db.builder.Select("1").From("occurrences").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}
	var one int
	if err := s.db.conn.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup occurrence %s: %w", id, err)
	}
	return true, nil
}

func (s *OccurrenceStore) selectOccurrences(ctx context.Context, builder sq.SelectBuilder) ([]domain.Occurrence, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query occurrences: %w", err)
	}
	defer rows.Close()

	var result []domain.Occurrence
	for rows.Next() {
		var (
			occ       domain.Occurrence
			category  string
			startUnix int64
			summaries string
		)
		if err := rows.Scan(&occ.ID, &category, &occ.Title, &occ.Actor, &occ.Place, &occ.URL, &startUnix, &occ.Fingerprint, &summaries); err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		occ.Category = domain.Category(category)
		occ.Start = time.Unix(startUnix, 0).UTC()
		if occ.Summaries, err = decodeSummaries(summaries); err != nil {
			return nil, fmt.Errorf("occurrence %s: %w", occ.ID, err)
		}
		result = append(result, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// attachDeliveries runs after the occurrence rows are closed; SQLite holds a
// single connection.
func (s *OccurrenceStore) attachDeliveries(ctx context.Context, occs []domain.Occurrence) error {
	if len(occs) == 0 {
		return nil
	}
	index := make(map[string]int, len(occs))
	ids := make([]string, 0, len(occs))
	for i, occ := range occs {
		index[occ.ID] = i
		ids = append(ids, occ.ID)
	}

	for start := 0; start < len(ids); start += deliveryBatch {
		end := min(start+deliveryBatch, len(ids))
		if err := s.loadDeliveries(ctx, ids[start:end], func(id string, key domain.DeliveryKey, at time.Time) {
			occ := &occs[index[id]]
			if occ.Deliveries == nil {
				occ.Deliveries = map[domain.DeliveryKey]time.Time{}
			}
			occ.Deliveries[key] = at
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *OccurrenceStore) loadDeliveries(ctx context.Context, ids []string, visit func(string, domain.DeliveryKey, time.Time)) error {
	query, args, err := s.db.builder.
		Select("occurrence_id", "scope_id", "marker", "delivered_unix").
		From("deliveries").
		Where(sq.Eq{"occurrence_id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build deliveries query: %w", err)
	}

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, scope, marker string
			at                int64
		)
		if err := rows.Scan(&id, &scope, &marker, &at); err != nil {
			return fmt.Errorf("scan delivery: %w", err)
		}
		visit(id, domain.DeliveryKey{Scope: scope, Marker: domain.Marker(marker)}, time.Unix(at, 0).UTC())
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("deliveries iteration: %w", err)
	}
	return nil
}

func encodeSummaries(summaries map[string]string) (string, error) {
	if len(summaries) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(summaries)
	if err != nil {
		return "", fmt.Errorf("encode summaries: %w", err)
	}
	return string(raw), nil
}

func decodeSummaries(raw string) (map[string]string, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode summaries: %w", err)
	}
	return out, nil
}
