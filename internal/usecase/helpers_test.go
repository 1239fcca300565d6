package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"EventRadar/internal/domain"
	"EventRadar/internal/infrastructure/storage"
)

func openStores(t *testing.T) (*storage.OccurrenceStore, *storage.Registry) {
	t.Helper()
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "radar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewOccurrenceStore(db), storage.NewRegistry(db)
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts.UTC()
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var errSinkDown = errors.New("sink down")

type recordingSink struct {
	mu      sync.Mutex
	intents []domain.Intent
	fail    bool
}

func (s *recordingSink) Deliver(_ context.Context, intent domain.Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errSinkDown
	}
	s.intents = append(s.intents, intent)
	return nil
}

func (s *recordingSink) SetFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// Drain returns and forgets everything delivered so far.
func (s *recordingSink) Drain() []domain.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.intents
	s.intents = nil
	return out
}

func speech(t *testing.T, id string, category domain.Category, start string) domain.Occurrence {
	t.Helper()
	ts := mustTime(t, start)
	return domain.Occurrence{
		ID:          id,
		Category:    category,
		Title:       "Speech " + id,
		URL:         "https://example.test/" + id,
		Start:       ts,
		Fingerprint: domain.ContentFingerprint("Speech "+id, ts, ""),
	}
}
