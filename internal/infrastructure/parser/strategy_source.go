package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"EventRadar/internal/config"
	"EventRadar/internal/infrastructure/fetch"
	"EventRadar/internal/ports"
	"EventRadar/internal/scanner"
)

// StrategySource runs configured sites through their registered scanners.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SourceConfig
	logger   zerolog.Logger
}

var _ ports.CandidateSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SourceConfig, log zerolog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log,
	}
}

// Collect scans every site in group ("" selects all). A site that errors or
// panics is reported in its scanner.SiteResult and does not affect the others.
func (s *StrategySource) Collect(ctx context.Context, group string) ([]scanner.SiteResult, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.logger.Debug().Int("sites", len(s.sites)).Str("group", group).Msg("collect")

	var results []scanner.SiteResult
	for _, site := range s.sites {
		if group != "" && site.Group != group {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := s.runSite(ctx, site)
		if res.Err != nil {
			s.logger.Warn().Err(res.Err).Str("site", site.Name).Int("partial", len(res.Candidates)).Msg("site scan failed")
		} else {
			s.logger.Debug().Str("site", site.Name).Int("count", len(res.Candidates)).Dur("took", res.Took).Msg("site produced candidates")
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *StrategySource) runSite(ctx context.Context, site config.SourceConfig) (res scanner.SiteResult) {
	res = scanner.SiteResult{Site: site.Name, Scanner: site.Scanner}
	started := time.Now()
	defer func() {
		res.Took = time.Since(started)
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("scanner %s panicked: %v", site.Scanner, r)
		}
	}()

	strategy, err := s.registry.Resolve(site.Scanner)
	if err != nil {
		res.Err = fmt.Errorf("site %s: %w", site.Name, err)
		return res
	}

	res.Candidates, err = strategy.Scan(ctx, scanner.Request{
		SiteName: site.Name,
		URL:      site.URL,
		Options:  site.Options,
	})
	if err != nil {
		res.Err = fmt.Errorf("scan site %s: %w", site.Name, err)
	}
	return res
}

// RegisterDefaults registers every built-in source adapter.
func RegisterDefaults(reg *scanner.Registry, client *fetch.Client) {
	reg.Register(NewFedScanner(client))
	reg.Register(NewECBScanner(client))
	reg.Register(NewBoEScanner(client))
	reg.Register(NewCPIScanner(client))
	reg.Register(NewNFPScanner(client))
	reg.Register(NewFOMCScanner(client))
	reg.Register(NewNewsScanner(client))
}
