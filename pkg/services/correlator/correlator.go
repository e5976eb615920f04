package correlator

import (
	"context"
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/pager"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// InventorySource fetches one page of inventory assets.
type InventorySource interface {
	FetchInventoryPage(ctx context.Context, filters domain.InventoryFilters, cursor string) (domain.Page[domain.Asset], error)
}

type Settings struct {
	// MaxPages bounds the inventory pagination of a single policy.
	MaxPages int
	// Concurrency is the number of policies fetched at once. 1 keeps the
	// fetches strictly sequential.
	Concurrency int
}

func DefaultSettings() Settings {
	return Settings{
		MaxPages:    pager.DefaultMaxPages,
		Concurrency: 1,
	}
}

type Correlator struct {
	source   InventorySource
	settings Settings
}

func NewCorrelator(source InventorySource, settings Settings) *Correlator {
	if settings.Concurrency < 1 {
		settings.Concurrency = 1
	}
	return &Correlator{
		source:   source,
		settings: settings,
	}
}

// Result is the flat list of annotated assets in policy order. The same
// asset may appear once per policy that matched it.
type Result struct {
	Assets     []domain.AnnotatedAsset
	Processed  int
	Failures   []domain.FetchFailure
	Incomplete bool
}

type policyOutcome struct {
	processed bool
	assets    []domain.AnnotatedAsset
	failure   *domain.FetchFailure
	partial   bool
}

// Correlate fetches the violating assets of every policy that reports at
// least one matching asset. A failed policy is skipped and recorded; only
// authentication failures and cancellation abort the whole correlation.
func (c *Correlator) Correlate(ctx context.Context, policies []domain.Violation) (Result, error) {
	outcomes := make([]policyOutcome, len(policies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.settings.Concurrency)
	for i, policy := range policies {
		if policy.TotalAssets <= 0 {
			continue
		}
		g.Go(func() error {
			out, err := c.correlatePolicy(gctx, policy)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for _, out := range outcomes {
		if !out.processed {
			continue
		}
		res.Processed++
		res.Assets = append(res.Assets, out.assets...)
		if out.failure != nil {
			res.Failures = append(res.Failures, *out.failure)
		}
		if out.partial {
			res.Incomplete = true
		}
	}
	return res, nil
}

func (c *Correlator) correlatePolicy(ctx context.Context, policy domain.Violation) (policyOutcome, error) {
	logger := zerolog.Ctx(ctx).With().Str("policy", policy.Name).Logger()
	filters := PolicyFilters(policy)

	p := pager.New("inventory", func(ctx context.Context, cursor string) (domain.Page[domain.Asset], error) {
		return c.source.FetchInventoryPage(ctx, filters, cursor)
	}, c.settings.MaxPages)

	res, err := p.Collect(logger.WithContext(ctx))
	if err != nil {
		return policyOutcome{}, fmt.Errorf("policy %q: %w", policy.Name, err)
	}

	out := policyOutcome{processed: true}
	if res.Err != nil {
		logger.Warn().Err(res.Err).Msg("failed to fetch violating assets, skipping policy")
		out.failure = &domain.FetchFailure{
			Scope:  domain.FailureScopePolicy,
			Target: policy.Name,
			Reason: res.Err.Error(),
		}
		out.partial = true
		return out, nil
	}
	if res.LimitReached {
		out.partial = true
		out.failure = &domain.FetchFailure{
			Scope:  domain.FailureScopePolicy,
			Target: policy.Name,
			Reason: pager.ErrLimitReached.Error(),
		}
	}

	out.assets = make([]domain.AnnotatedAsset, 0, len(res.Items))
	for _, asset := range res.Items {
		out.assets = append(out.assets, domain.AnnotatedAsset{
			Asset:      asset,
			Violations: []domain.Violation{policy},
		})
	}

	logger.Debug().
		Int("expected", policy.TotalAssets).
		Int("found", len(out.assets)).
		Msg("violating assets fetched")
	return out, nil
}

// PolicyFilters scopes an inventory query to the assets violating policy.
func PolicyFilters(policy domain.Violation) domain.InventoryFilters {
	return domain.InventoryFilters{
		AssetState: domain.AssetStateManaged,
		AssetTypes: policy.AssetTypes,
		Size:       policy.TotalAssets,
		Governance: policy.Name,
	}
}
