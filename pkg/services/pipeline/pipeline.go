package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/aggregator"
	"github.com/de-tools/governance-atlas/pkg/services/correlator"
	"github.com/de-tools/governance-atlas/pkg/services/owner"
	"github.com/de-tools/governance-atlas/pkg/services/pager"
	"github.com/de-tools/governance-atlas/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultInventoryLimit = 1000

// Upstream is the paginated governance API.
type Upstream interface {
	correlator.InventorySource
	FetchGovernanceInsights(ctx context.Context, query domain.InsightsQuery, cursor string) (domain.Page[domain.Violation], error)
}

type Request struct {
	Mode          domain.OwnerMode
	MinViolations int
}

// PolicyListing is the outcome of walking the governance insights.
type PolicyListing struct {
	Policies []domain.Violation
	Pages    int
	Failures []domain.FetchFailure
}

func (l PolicyListing) Incomplete() bool {
	return len(l.Failures) > 0
}

type Pipeline struct {
	upstream Upstream
	settings domain.PipelineSettings
	metrics  *telemetry.Metrics
	now      func() time.Time
	newID    func() string
}

// NewPipeline builds a pipeline. metrics may be nil.
func NewPipeline(upstream Upstream, settings domain.PipelineSettings, metrics *telemetry.Metrics) *Pipeline {
	if settings.Framework == "" {
		settings.Framework = domain.FrameworkEOL
	}
	if settings.MaxPages <= 0 {
		settings.MaxPages = pager.DefaultMaxPages
	}
	return &Pipeline{
		upstream: upstream,
		settings: settings,
		metrics:  metrics,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// DefaultRequest returns the request implied by the pipeline settings.
func (p *Pipeline) DefaultRequest() Request {
	return Request{
		Mode:          p.settings.OwnerMode,
		MinViolations: p.settings.MinViolations,
	}
}

// Run pulls policies, correlates their violating assets and aggregates them
// per owner. Only authentication failures and cancellation fail the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (domain.RunResult, error) {
	resolver, err := owner.NewResolver(req.Mode)
	if err != nil {
		return domain.RunResult{}, err
	}

	started := p.now()
	runID := p.newID()
	logger := zerolog.Ctx(ctx).With().Str("run_id", runID).Str("mode", req.Mode.String()).Logger()
	ctx = logger.WithContext(ctx)

	result, err := p.run(ctx, resolver, req)
	if err != nil {
		p.metrics.RecordRunError(req.Mode)
		logger.Error().Err(err).Msg("run failed")
		return domain.RunResult{}, err
	}

	result.RunID = runID
	result.StartedAt = started.UTC()
	result.Duration = p.now().Sub(started)
	p.metrics.RecordRun(result)

	logger.Info().
		Int("policies", len(result.Policies)).
		Int("owners", len(result.Owners)).
		Int("violating_assets", result.Diagnostics.TotalViolatingAssets).
		Int("dropped_assets", result.Diagnostics.DroppedAssets).
		Bool("incomplete", result.Diagnostics.Incomplete).
		Dur("duration", result.Duration).
		Msg("run complete")
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, resolver *owner.Resolver, req Request) (domain.RunResult, error) {
	listing, err := p.ListPolicies(ctx)
	if err != nil {
		return domain.RunResult{}, err
	}

	corr := correlator.NewCorrelator(p.upstream, correlator.Settings{
		MaxPages:    p.settings.MaxPages,
		Concurrency: p.settings.Concurrency,
	})
	correlated, err := corr.Correlate(ctx, listing.Policies)
	if err != nil {
		return domain.RunResult{}, err
	}

	aggregated, err := aggregator.NewAggregator(resolver).Aggregate(ctx, correlated.Assets, req.MinViolations)
	if err != nil {
		return domain.RunResult{}, err
	}

	failures := make([]domain.FetchFailure, 0, len(listing.Failures)+len(correlated.Failures)+len(aggregated.Failures))
	failures = append(failures, listing.Failures...)
	failures = append(failures, correlated.Failures...)
	failures = append(failures, aggregated.Failures...)

	return domain.RunResult{
		Mode:          resolver.Mode(),
		MinViolations: req.MinViolations,
		Policies:      listing.Policies,
		Owners:        aggregated.Owners,
		Diagnostics: domain.Diagnostics{
			GovernancePages:      listing.Pages,
			PoliciesProcessed:    correlated.Processed,
			Incomplete:           listing.Incomplete() || correlated.Incomplete || len(aggregated.Failures) > 0,
			Failures:             failures,
			DroppedAssets:        aggregated.DroppedAssets,
			FilteredOwners:       aggregated.FilteredOwners,
			TotalViolatingAssets: aggregated.TotalViolatingAssets,
		},
	}, nil
}

// ListPolicies walks the governance insights of the configured framework.
func (p *Pipeline) ListPolicies(ctx context.Context) (PolicyListing, error) {
	query := domain.InsightsQuery{
		Frameworks:         []string{p.settings.Framework},
		OnlyMatchingAssets: p.settings.OnlyMatchingAssets,
	}
	pg := pager.New("governance", func(ctx context.Context, cursor string) (domain.Page[domain.Violation], error) {
		return p.upstream.FetchGovernanceInsights(ctx, query, cursor)
	}, p.settings.MaxPages)

	res, err := pg.Collect(ctx)
	if err != nil {
		return PolicyListing{}, fmt.Errorf("governance insights: %w", err)
	}

	listing := PolicyListing{
		Policies: res.Items,
		Pages:    res.Pages,
	}
	switch {
	case res.Err != nil:
		listing.Failures = append(listing.Failures, domain.FetchFailure{
			Scope:  domain.FailureScopeGovernance,
			Target: p.settings.Framework,
			Reason: res.Err.Error(),
		})
	case res.LimitReached:
		listing.Failures = append(listing.Failures, domain.FetchFailure{
			Scope:  domain.FailureScopeGovernance,
			Target: p.settings.Framework,
			Reason: pager.ErrLimitReached.Error(),
		})
	}
	return listing, nil
}

// ListInventory returns up to limit managed assets.
func (p *Pipeline) ListInventory(ctx context.Context, limit int) (domain.InventoryListing, error) {
	if limit <= 0 {
		limit = DefaultInventoryLimit
	}
	filters := domain.ManagedInventory()
	pg := pager.New("inventory", func(ctx context.Context, cursor string) (domain.Page[domain.Asset], error) {
		return p.upstream.FetchInventoryPage(ctx, filters, cursor)
	}, p.settings.MaxPages)

	res, err := pg.CollectN(ctx, limit)
	if err != nil {
		return domain.InventoryListing{}, fmt.Errorf("inventory: %w", err)
	}

	assets := res.Items
	hasMore := res.HasMore
	if len(assets) > limit {
		assets = assets[:limit]
		hasMore = true
	}
	return domain.InventoryListing{
		Assets:   assets,
		Pages:    res.Pages,
		Limit:    limit,
		HasMore:  hasMore,
		Complete: !hasMore && res.Err == nil,
	}, nil
}
