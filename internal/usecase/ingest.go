package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"EventRadar/internal/domain"
	"EventRadar/internal/ports"
)

// Summaries shorter than this are not worth an LLM call.
const minSummaryInput = 40

// IngestDeps wires all driven adapters into the ingest workflow.
type IngestDeps struct {
	Source     ports.CandidateSource
	Store      ports.OccurrenceStore
	Summarizer ports.Summarizer
	Articles   ports.ArticleReader
	Logger     zerolog.Logger
	// MaxSummaries caps LLM calls per run; zero disables summaries.
	MaxSummaries int
}

// IngestReport counts what one run did.
type IngestReport struct {
	Sites       int
	FailedSites int
	Candidates  int
	Unparseable int
	Duplicates  int
	Stored      int
	Summarized  int
}

// Ingest turns source candidates into stored occurrences.
type Ingest struct {
	source       ports.CandidateSource
	store        ports.OccurrenceStore
	summarizer   ports.Summarizer
	articles     ports.ArticleReader
	logger       zerolog.Logger
	maxSummaries int
}

// NewIngest constructs the ingest use case.
func NewIngest(deps IngestDeps) *Ingest {
	return &Ingest{
		source:       deps.Source,
		store:        deps.Store,
		summarizer:   deps.Summarizer,
		articles:     deps.Articles,
		logger:       deps.Logger,
		maxSummaries: deps.MaxSummaries,
	}
}

// Run collects the sites of group ("" for all), normalizes candidate times
// and upserts the results. Candidates without a resolvable time are dropped;
// within one run the first candidate of an id wins.
func (p *Ingest) Run(ctx context.Context, group string) (IngestReport, error) {
	var report IngestReport
	if p.source == nil || p.store == nil {
		return report, nil
	}

	results, err := p.source.Collect(ctx, group)
	if err != nil {
		return report, fmt.Errorf("collect: %w", err)
	}

	seen := map[string]struct{}{}
	var news []domain.Candidate
	var newsIDs []string
	for _, site := range results {
		report.Sites++
		if site.Err != nil {
			report.FailedSites++
		}
		for _, cand := range site.Candidates {
			report.Candidates++
			res, ok := cand.Resolve()
			if !ok {
				report.Unparseable++
				p.logger.Debug().Str("site", site.Site).Str("title", cand.Title).Strs("texts", cand.TimeTexts).Msg("no usable time")
				continue
			}
			occ := cand.Occurrence(res)
			if _, dup := seen[occ.ID]; dup {
				report.Duplicates++
				continue
			}
			seen[occ.ID] = struct{}{}

			if err := p.store.Upsert(ctx, occ); err != nil {
				if errors.Is(err, domain.ErrInvalidOccurrence) {
					p.logger.Warn().Err(err).Str("site", site.Site).Msg("invalid occurrence")
					continue
				}
				return report, fmt.Errorf("store %s: %w", occ.ID, err)
			}
			report.Stored++
			if occ.Category.IsNews() {
				news = append(news, cand)
				newsIDs = append(newsIDs, occ.ID)
			}
		}
	}

	report.Summarized = p.summarize(ctx, news, newsIDs)

	p.logger.Info().
		Str("group", group).
		Int("sites", report.Sites).
		Int("failed_sites", report.FailedSites).
		Int("candidates", report.Candidates).
		Int("unparseable", report.Unparseable).
		Int("stored", report.Stored).
		Int("summarized", report.Summarized).
		Msg("ingest finished")
	return report, nil
}

// summarize is best effort: failures are logged and leave the occurrence
// without summaries, to be retried on a later run.
func (p *Ingest) summarize(ctx context.Context, cands []domain.Candidate, ids []string) int {
	if p.summarizer == nil || p.maxSummaries <= 0 {
		return 0
	}
	done := 0
	for i, cand := range cands {
		if done >= p.maxSummaries || ctx.Err() != nil {
			break
		}
		stored, err := p.store.Get(ctx, ids[i])
		if err != nil {
			p.logger.Warn().Err(err).Str("id", ids[i]).Msg("load for summary")
			continue
		}
		if len(stored.Summaries) > 0 {
			continue
		}

		body := ""
		if p.articles != nil {
			body, err = p.articles.Read(ctx, cand.URL)
			if err != nil {
				p.logger.Debug().Err(err).Str("url", cand.URL).Msg("article fetch failed")
			}
		}
		if body == "" {
			body = cand.Summary
		}
		if len(body) < minSummaryInput {
			continue
		}

		summaries := map[string]string{}
		for _, lang := range []domain.Lang{domain.LangKO, domain.LangEN} {
			text, err := p.summarizer.Summarize(ctx, body, lang)
			if err != nil {
				p.logger.Warn().Err(err).Str("id", ids[i]).Str("lang", string(lang)).Msg("summarize failed")
				continue
			}
			if text != "" {
				summaries[string(lang)] = text
			}
		}
		if len(summaries) == 0 {
			continue
		}
		if err := p.store.SetSummaries(ctx, ids[i], summaries); err != nil {
			p.logger.Warn().Err(err).Str("id", ids[i]).Msg("store summaries")
			continue
		}
		done++
	}
	return done
}

// Prune removes occurrences that started before now - retain.
func (p *Ingest) Prune(ctx context.Context, now time.Time, retain time.Duration) (int64, error) {
	if p.store == nil || retain <= 0 {
		return 0, nil
	}
	removed, err := p.store.Prune(ctx, now.Add(-retain))
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	return removed, nil
}
