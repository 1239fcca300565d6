package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"EventRadar/internal/domain"
	"EventRadar/internal/ports"
)

// NotifierConfig holds the tick windows.
type NotifierConfig struct {
	// Lookback and Lookahead bound the scan around now.
	Lookback  time.Duration
	Lookahead time.Duration
	// LeadGrace is how long after crossing T-L a lead may still fire.
	LeadGrace time.Duration
	// StartGrace is how long after T a start may still fire.
	StartGrace     time.Duration
	NewsStartGrace time.Duration
	// Scopes are served on every tick, registered or not.
	Scopes []string
}

// DefaultNotifierConfig mirrors the defaults of the configuration file.
func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		Lookback:       24 * time.Hour,
		Lookahead:      72 * time.Hour,
		LeadGrace:      18 * time.Minute,
		StartGrace:     15 * time.Minute,
		NewsStartGrace: 60 * time.Minute,
	}
}

// NotifierDeps wires the notification tick.
type NotifierDeps struct {
	Store    ports.OccurrenceStore
	Registry ports.Registry
	Sink     ports.Sink
	Logger   zerolog.Logger
	Config   NotifierConfig
	Now      func() time.Time
}

// TickReport counts what one tick did.
type TickReport struct {
	Scopes     int
	Scanned    int
	Sent       int
	Failed     int
	// Unserved counts markers no sink can deliver for their scope.
	Unserved   int
	MarkFailed int
}

// Notifier evaluates every (occurrence, marker, scope) once per tick and
// emits each pending marker whose window contains now. A marker is flagged
// only after the sink accepted it (or reported that no transport serves the
// scope), so a failed delivery is retried on the next tick while its window
// is still open.
type Notifier struct {
	store    ports.OccurrenceStore
	registry ports.Registry
	sink     ports.Sink
	logger   zerolog.Logger
	cfg      NotifierConfig
	now      func() time.Time

	mu sync.Mutex
}

// NewNotifier constructs the scheduler use case.
func NewNotifier(deps NotifierDeps) *Notifier {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Notifier{
		store:    deps.Store,
		registry: deps.Registry,
		sink:     deps.Sink,
		logger:   deps.Logger,
		cfg:      deps.Config,
		now:      now,
	}
}

type scopePlan struct {
	id         string
	leads      []time.Duration
	categories map[domain.Category]struct{}
	lang       domain.Lang
}

func (s scopePlan) accepts(c domain.Category) bool {
	if len(s.categories) == 0 {
		return true
	}
	_, ok := s.categories[c]
	return ok
}

// Tick runs one evaluation pass. Store and registry failures abort the tick
// and are returned; sink and mark failures are logged and counted.
func (n *Notifier) Tick(ctx context.Context) (TickReport, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var report TickReport
	now := n.now().UTC()

	plans, err := n.plans(ctx)
	if err != nil {
		return report, err
	}
	report.Scopes = len(plans)
	if len(plans) == 0 {
		return report, nil
	}

	var maxLead time.Duration
	for _, p := range plans {
		for _, l := range p.leads {
			maxLead = max(maxLead, l)
		}
	}
	from := now.Add(-n.cfg.Lookback)
	to := now.Add(max(n.cfg.Lookahead, maxLead+n.cfg.LeadGrace))

	occs, err := n.store.Query(ctx, from, to, nil)
	if err != nil {
		return report, fmt.Errorf("query window: %w", err)
	}
	report.Scanned = len(occs)

	for _, occ := range occs {
		for _, plan := range plans {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if !plan.accepts(occ.Category) {
				continue
			}
			n.evaluate(ctx, occ, plan, now, &report)
		}
	}

	n.logger.Debug().
		Int("scopes", report.Scopes).
		Int("scanned", report.Scanned).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Msg("tick finished")
	return report, nil
}

func (n *Notifier) evaluate(ctx context.Context, occ domain.Occurrence, plan scopePlan, now time.Time, report *TickReport) {
	grace := n.cfg.StartGrace
	if occ.Category.IsNews() {
		grace = n.cfg.NewsStartGrace
	}

	// Once the start instant is reached only the start marker is considered.
	if !now.Before(occ.Start) {
		if !now.After(occ.Start.Add(grace)) && !occ.Delivered(plan.id, domain.MarkerStart) {
			n.deliver(ctx, occ, domain.MarkerStart, plan, now, report)
		}
		return
	}

	if occ.Category.IsNews() {
		return
	}

	remaining := occ.Start.Sub(now)
	for _, lead := range plan.leads {
		if remaining > lead || remaining <= lead-n.cfg.LeadGrace {
			continue
		}
		marker := domain.LeadMarker(lead)
		if occ.Delivered(plan.id, marker) {
			continue
		}
		n.deliver(ctx, occ, marker, plan, now, report)
	}
}

func (n *Notifier) deliver(ctx context.Context, occ domain.Occurrence, marker domain.Marker, plan scopePlan, now time.Time, report *TickReport) {
	log := n.logger.With().Str("id", occ.ID).Str("marker", string(marker)).Str("scope", plan.id).Logger()

	intent := domain.NewIntent(occ, marker, plan.id, plan.lang)
	err := n.sink.Deliver(ctx, intent)
	switch {
	case errors.Is(err, ports.ErrScopeNotServed):
		// Never deliverable; flag it so later ticks skip it.
		report.Unserved++
		log.Warn().Err(err).Msg("no sink serves this scope")
	case err != nil:
		report.Failed++
		log.Warn().Err(err).Msg("delivery failed, will retry")
		return
	default:
		report.Sent++
	}

	key := domain.DeliveryKey{Scope: plan.id, Marker: marker}
	if err := n.store.MarkDelivered(ctx, occ.ID, key, now); err != nil {
		report.MarkFailed++
		log.Error().Err(err).Msg("delivered but not marked; may repeat")
		return
	}
	if err == nil {
		log.Info().Time("start", occ.Start).Msg("notification sent")
	}
}

// plans resolves leads, categories and language for every served scope:
// the configured ones plus those known to the registry.
func (n *Notifier) plans(ctx context.Context) ([]scopePlan, error) {
	ids := map[string]struct{}{}
	for _, s := range n.cfg.Scopes {
		if s != "" {
			ids[s] = struct{}{}
		}
	}
	if n.registry != nil {
		known, err := n.registry.Scopes(ctx)
		if err != nil {
			return nil, fmt.Errorf("list scopes: %w", err)
		}
		for _, s := range known {
			ids[s] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	plans := make([]scopePlan, 0, len(sorted))
	for _, id := range sorted {
		plan := scopePlan{id: id, leads: domain.DefaultLeads(), lang: domain.LangMixed}
		if n.registry != nil {
			leads, err := n.registry.LeadsFor(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("leads for %s: %w", id, err)
			}
			plan.leads = leads
			cats, err := n.registry.CategoriesFor(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("categories for %s: %w", id, err)
			}
			if expanded := domain.ExpandCategories(cats); len(expanded) > 0 {
				plan.categories = make(map[domain.Category]struct{}, len(expanded))
				for _, c := range expanded {
					plan.categories[c] = struct{}{}
				}
			}
			if plan.lang, err = n.registry.LangFor(ctx, id); err != nil {
				return nil, fmt.Errorf("lang for %s: %w", id, err)
			}
		}
		plans = append(plans, plan)
	}
	return plans, nil
}
