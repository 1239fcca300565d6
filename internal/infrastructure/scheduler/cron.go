package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"EventRadar/internal/ports"
)

type entry struct {
	name string
	spec string
	job  func(context.Context)
}

// CronScheduler runs named jobs on robfig/cron specs. A job still running
// when its next slot arrives is skipped, never overlapped.
type CronScheduler struct {
	parser  cron.Parser
	loc     *time.Location
	logger  zerolog.Logger
	timeout time.Duration

	mu      sync.Mutex
	entries []entry
	c       *cron.Cron
	cancel  context.CancelFunc
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler evaluating specs in loc (UTC when nil).
// timeout bounds a single job run; zero means no bound.
func NewCronScheduler(loc *time.Location, timeout time.Duration, log zerolog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		loc:     loc,
		logger:  log,
		timeout: timeout,
	}
}

// Add registers a job. Jobs added after Start take effect on the next Start.
func (s *CronScheduler) Add(name, spec string, job func(context.Context)) error {
	if job == nil {
		return fmt.Errorf("job %s is nil", name)
	}
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("job %s: invalid spec %q: %w", name, spec, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{name: name, spec: spec, job: job})
	return nil
}

// Start begins scheduling. Calling it twice is a no-op.
func (s *CronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	logger := cronLogger{log: s.logger}
	c := cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	for _, e := range s.entries {
		e := e
		if _, err := c.AddFunc(e.spec, func() { s.run(runCtx, e) }); err != nil {
			cancel()
			return fmt.Errorf("schedule %s: %w", e.name, err)
		}
	}

	c.Start()
	s.c = c
	s.cancel = cancel
	s.logger.Info().Int("jobs", len(s.entries)).Str("location", s.loc.String()).Msg("scheduler started")
	return nil
}

// RunNow executes the named job synchronously, outside the cron timetable.
func (s *CronScheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	var found *entry
	for i := range s.entries {
		if s.entries[i].name == name {
			found = &s.entries[i]
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		return fmt.Errorf("job %s is not registered", name)
	}
	s.run(ctx, *found)
	return nil
}

func (s *CronScheduler) run(ctx context.Context, e entry) {
	runID, err := gonanoid.New(10)
	if err != nil {
		runID = "-"
	}
	log := s.logger.With().Str("job", e.name).Str("run", runID).Logger()
	ctx = log.WithContext(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("job panicked")
			return
		}
		log.Debug().Dur("took", time.Since(started)).Msg("job finished")
	}()
	e.job(ctx)
}

// Stop halts scheduling and waits for running jobs or ctx, whichever ends first.
func (s *CronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.c, s.cancel
	s.c, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	done := c.Stop()
	defer cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
