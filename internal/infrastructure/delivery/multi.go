// Package delivery combines notification sinks.
package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"EventRadar/internal/domain"
	"EventRadar/internal/ports"
)

// MultiSink delivers to every sink that serves the intent's scope. It
// succeeds once any sink accepted the intent, so the marker is recorded and
// the sinks that did receive it never see it again; failures of the other
// sinks are logged. It fails only when no sink accepted the intent.
type MultiSink struct {
	sinks  []ports.Sink
	logger zerolog.Logger
}

var _ ports.Sink = MultiSink{}

// NewMultiSink drops nil sinks.
func NewMultiSink(logger zerolog.Logger, sinks ...ports.Sink) MultiSink {
	out := make([]ports.Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return MultiSink{sinks: out, logger: logger}
}

// Len reports how many sinks are attached.
func (m MultiSink) Len() int { return len(m.sinks) }

// Deliver returns ports.ErrScopeNotServed when no sink serves the scope.
func (m MultiSink) Deliver(ctx context.Context, intent domain.Intent) error {
	var (
		errs      []error
		delivered int
	)
	for i, s := range m.sinks {
		err := s.Deliver(ctx, intent)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ports.ErrScopeNotServed):
		default:
			errs = append(errs, err)
			m.logger.Warn().Err(err).Int("sink", i).Str("id", intent.OccurrenceID).Str("scope", intent.Scope).Msg("sink failed")
		}
	}
	if delivered > 0 {
		return nil
	}
	if len(errs) == 0 {
		return fmt.Errorf("%w: %s", ports.ErrScopeNotServed, intent.Scope)
	}
	return errors.Join(errs...)
}

// LogSink writes intents to the log and, when out is set, as JSON lines.
// It is the fallback when no real transport is configured.
type LogSink struct {
	logger zerolog.Logger

	mu  sync.Mutex
	out io.Writer
}

var _ ports.Sink = (*LogSink)(nil)

func NewLogSink(logger zerolog.Logger, out io.Writer) *LogSink {
	return &LogSink{logger: logger, out: out}
}

func (l *LogSink) Deliver(_ context.Context, intent domain.Intent) error {
	l.logger.Info().
		Str("id", intent.OccurrenceID).
		Str("marker", string(intent.Marker)).
		Str("scope", intent.Scope).
		Time("start", intent.Start).
		Msg(intent.Title)
	if l.out == nil {
		return nil
	}
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write intent: %w", err)
	}
	return nil
}
