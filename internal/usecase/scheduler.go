package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"EventRadar/internal/ports"
)

// Job names registered with the driver.
const (
	JobIngestAll  = "ingest-all"
	JobIngestNews = "ingest-news"
	JobNotify     = "notify"
	JobPrune      = "prune"
)

// NewsGroup is the source group polled by the fast news job.
const NewsGroup = "news"

// Schedules holds the cron specs of the recurring jobs. Empty disables a job.
type Schedules struct {
	Ingest    string
	News      string
	Tick      string
	Prune     string
	RetainFor time.Duration
	RunOnBoot bool
}

// Scheduler wires the cron-like driver with the ingest and notify use cases.
type Scheduler struct {
	driver   ports.Scheduler
	ingest   *Ingest
	notifier *Notifier
	sched    Schedules
	logger   zerolog.Logger
	now      func() time.Time
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, ingest *Ingest, notifier *Notifier, sched Schedules, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		driver:   driver,
		ingest:   ingest,
		notifier: notifier,
		sched:    sched,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the driver. With RunOnBoot a full
// ingest followed by one tick runs before Start returns.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	jobs := []struct {
		name, spec string
		fn         func(context.Context)
	}{
		{JobIngestAll, s.sched.Ingest, func(ctx context.Context) { s.runIngest(ctx, "") }},
		{JobIngestNews, s.sched.News, func(ctx context.Context) { s.runIngest(ctx, NewsGroup) }},
		{JobNotify, s.sched.Tick, s.runTick},
		{JobPrune, s.sched.Prune, s.runPrune},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if err := s.driver.Add(j.name, j.spec, j.fn); err != nil {
			return err
		}
	}

	if s.sched.RunOnBoot {
		s.runIngest(ctx, "")
		s.runTick(ctx)
	}

	return s.driver.Start(ctx)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) runIngest(ctx context.Context, group string) {
	if s.ingest == nil {
		return
	}
	if _, err := s.ingest.Run(ctx, group); err != nil {
		s.log(ctx).Error().Err(err).Str("group", group).Msg("ingest failed")
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Tick(ctx); err != nil {
		s.log(ctx).Error().Err(err).Msg("tick failed")
	}
}

func (s *Scheduler) runPrune(ctx context.Context) {
	if s.ingest == nil {
		return
	}
	removed, err := s.ingest.Prune(ctx, s.now(), s.sched.RetainFor)
	if err != nil {
		s.log(ctx).Error().Err(err).Msg("prune failed")
		return
	}
	if removed > 0 {
		s.log(ctx).Info().Int64("removed", removed).Msg("pruned old occurrences")
	}
}

// log prefers the per-run logger the driver put in ctx.
func (s *Scheduler) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}
