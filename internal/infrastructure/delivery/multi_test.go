package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventRadar/internal/domain"
	"EventRadar/internal/ports"
)

type countingSink struct {
	calls int
	err   error
}

func (c *countingSink) Deliver(context.Context, domain.Intent) error {
	c.calls++
	return c.err
}

func TestMultiSinkSucceedsWhenAnySinkDelivers(t *testing.T) {
	t.Parallel()
	ok := &countingSink{}
	bad := &countingSink{err: errors.New("telegram: 429")}
	m := NewMultiSink(zerolog.Nop(), ok, nil, bad)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.Deliver(context.Background(), domain.Intent{}))
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, bad.calls)
}

func TestMultiSinkFailsWhenNothingDelivered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	err := NewMultiSink(zerolog.Nop(), &countingSink{err: errors.New("nats: timeout")}, &countingSink{err: errors.New("telegram: 502")}).
		Deliver(ctx, domain.Intent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nats: timeout")
	assert.Contains(t, err.Error(), "telegram: 502")
	assert.False(t, errors.Is(err, ports.ErrScopeNotServed))

	unserved := &countingSink{err: fmt.Errorf("%w: ops-desk", ports.ErrScopeNotServed)}
	err = NewMultiSink(zerolog.Nop(), unserved).Deliver(ctx, domain.Intent{Scope: "ops-desk"})
	assert.ErrorIs(t, err, ports.ErrScopeNotServed)

	assert.ErrorIs(t, NewMultiSink(zerolog.Nop()).Deliver(ctx, domain.Intent{}), ports.ErrScopeNotServed)
}

func TestLogSinkWritesJSONLines(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.Nop(), &buf)

	require.NoError(t, sink.Deliver(context.Background(), domain.Intent{OccurrenceID: "cpi:a", Marker: domain.MarkerStart}))
	require.NoError(t, sink.Deliver(context.Background(), domain.Intent{OccurrenceID: "cpi:b", Marker: domain.MarkerStart}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"occurrence_id":"cpi:a"`)
}
