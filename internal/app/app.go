package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"EventRadar/internal/config"
	"EventRadar/internal/infrastructure/delivery"
	"EventRadar/internal/infrastructure/fetch"
	"EventRadar/internal/infrastructure/llm"
	"EventRadar/internal/infrastructure/natsbus"
	"EventRadar/internal/infrastructure/parser"
	"EventRadar/internal/infrastructure/scheduler"
	"EventRadar/internal/infrastructure/storage"
	"EventRadar/internal/infrastructure/telegram"
	"EventRadar/internal/logging"
	"EventRadar/internal/ports"
	"EventRadar/internal/scanner"
	"EventRadar/internal/usecase"
)

const (
	pruneSchedule = "@daily"
	jobTimeout    = 10 * time.Minute
	maxSummaries  = 10
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger zerolog.Logger

	db       *storage.DB
	Store    *storage.OccurrenceStore
	Registry *storage.Registry
	Ingest   *usecase.Ingest
	Notifier *usecase.Notifier
	Listing  *usecase.Listing

	scheduler *usecase.Scheduler
	bot       *telegram.Bot
	nats      *natsbus.Sink
}

// New opens the store and builds every component. Transports are only
// connected when configured.
func New(ctx context.Context, cfg config.Config, baseLogger zerolog.Logger) (*Application, error) {
	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		db:       db,
		Store:    storage.NewOccurrenceStore(db),
		Registry: storage.NewRegistry(db),
	}
	a.Listing = usecase.NewListing(a.Store, a.Registry, nil)

	client := fetch.New(nil, fetch.Options{
		Timeout:   cfg.Ingest.HTTPTimeout,
		PerSecond: cfg.Ingest.RatePerSecond,
		Burst:     cfg.Ingest.Burst,
	})
	reg := scanner.NewRegistry()
	parser.RegisterDefaults(reg, client)
	source := parser.NewStrategySource(reg, cfg.Sources, logging.Component(baseLogger, "source"))

	var summarizer ports.Summarizer
	summaries := 0
	if cfg.Ingest.Summaries && cfg.ChatGPT.APIKey != "" {
		summarizer = llm.NewChatGPTClient(cfg.ChatGPT, nil)
		summaries = maxSummaries
	}
	a.Ingest = usecase.NewIngest(usecase.IngestDeps{
		Source:       source,
		Store:        a.Store,
		Summarizer:   summarizer,
		Articles:     parser.NewArticleReader(client),
		Logger:       logging.Component(baseLogger, "ingest"),
		MaxSummaries: summaries,
	})

	sink, err := a.buildSink()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	sc := cfg.Scheduler
	a.Notifier = usecase.NewNotifier(usecase.NotifierDeps{
		Store:    a.Store,
		Registry: a.Registry,
		Sink:     sink,
		Logger:   logging.Component(baseLogger, "notifier"),
		Config: usecase.NotifierConfig{
			Lookback:       sc.Lookback,
			Lookahead:      sc.Lookahead,
			LeadGrace:      sc.LeadGrace,
			StartGrace:     sc.StartGrace,
			NewsStartGrace: sc.NewsStartGrace,
			Scopes:         cfg.Scopes(),
		},
	})

	driver := scheduler.NewCronScheduler(sc.Location(), jobTimeout, logging.Component(baseLogger, "scheduler"))
	a.scheduler = usecase.NewScheduler(driver, a.Ingest, a.Notifier, usecase.Schedules{
		Ingest:    cfg.Ingest.Schedule,
		News:      cfg.Ingest.NewsSchedule,
		Tick:      sc.TickSpec(),
		Prune:     pruneSchedule,
		RetainFor: cfg.Database.RetainFor,
		RunOnBoot: cfg.Ingest.RunOnBoot,
	}, logging.Component(baseLogger, "jobs"))

	return a, nil
}

func (a *Application) buildSink() (ports.Sink, error) {
	var sinks []ports.Sink
	renderer := telegram.NewRenderer(a.cfg.Scheduler.Location())

	if tg := a.cfg.Notifications.Telegram; tg.BotToken != "" {
		var commands *telegram.Commands
		if tg.Commands {
			commands = telegram.NewCommands(a.Listing, a.Registry, renderer)
		}
		bot, err := telegram.NewBot(tg.BotToken, tg.PollTimeout, commands, logging.Component(a.logger, "telegram"))
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		a.bot = bot
		sinks = append(sinks, telegram.NewSink(bot, renderer, tg.RatePerSecond))
	}

	if nc := a.cfg.Notifications.NATS; nc.URL != "" {
		pub, err := natsbus.Connect(nc.URL, nc.SubjectPrefix)
		if err != nil {
			return nil, err
		}
		a.nats = pub
		sinks = append(sinks, pub)
	}

	if len(sinks) == 0 {
		a.logger.Warn().Msg("no notification transport configured, intents are only logged")
		return delivery.NewLogSink(logging.Component(a.logger, "delivery"), nil), nil
	}
	return delivery.NewMultiSink(logging.Component(a.logger, "delivery"), sinks...), nil
}

// Start launches command polling and the recurring jobs.
func (a *Application) Start(ctx context.Context) error {
	if a.bot != nil {
		a.bot.Start(ctx)
	}
	return a.scheduler.Start(ctx)
}

// Shutdown stops the jobs and polling, then releases connections.
func (a *Application) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.scheduler.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	if a.bot != nil {
		a.bot.Stop()
	}
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases the NATS connection and the database.
func (a *Application) Close() error {
	var errs []error
	if a.nats != nil {
		if err := a.nats.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close nats: %w", err))
		}
		a.nats = nil
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
