package aggregator

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/owner"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultMinViolations = 1
	DefaultMaxGoroutines = 8

	unassignedMarker = "Unassigned"
)

var errMissingViolationType = errors.New("policy has no violation type")

type Result struct {
	Owners               []domain.OwnerSummary
	DroppedAssets        int
	FilteredOwners       int
	TotalViolatingAssets int
	Failures             []domain.FetchFailure
}

type Aggregator struct {
	resolver      *owner.Resolver
	maxGoroutines int
}

func NewAggregator(resolver *owner.Resolver) *Aggregator {
	return &Aggregator{
		resolver:      resolver,
		maxGoroutines: DefaultMaxGoroutines,
	}
}

func (a *Aggregator) WithMaxGoroutines(n int) *Aggregator {
	if n > 0 {
		a.maxGoroutines = n
	}
	return a
}

// member is an asset that passed owner resolution.
type member struct {
	index int
	owner string
	asset domain.Asset
}

// contribution is one (owner, asset, violation type) triple produced by the
// grouping stage.
type contribution struct {
	index     int
	position  int
	owner     string
	key       string
	assetType string
	label     string
	arn       string
	violation string
}

type group struct {
	violationType string
	source        string
	members       []groupMember
}

type groupMember struct {
	member
	position int
}

type groupError struct {
	group string
	err   error
}

func (e *groupError) Error() string {
	return fmt.Sprintf("violation group %q: %v", e.group, e.err)
}

func (e *groupError) Unwrap() error {
	return e.err
}

// Aggregate rolls annotated assets up into one summary per owner key. Assets
// whose owner cannot be resolved are dropped. Owners with fewer than
// minViolations violation contributions are filtered out.
func (a *Aggregator) Aggregate(ctx context.Context, assets []domain.AnnotatedAsset, minViolations int) (Result, error) {
	logger := zerolog.Ctx(ctx)
	if minViolations < 0 {
		minViolations = 0
	}

	var res Result
	groups := make(map[string]*group)
	var order []string
	for i, annotated := range assets {
		key, ok := a.resolver.Resolve(annotated.Asset)
		if !ok {
			res.DroppedAssets++
			continue
		}
		m := member{index: i, owner: key, asset: annotated.Asset}
		for pos, v := range annotated.Violations {
			vt := v.TypeName()
			g, found := groups[vt]
			if !found {
				g = &group{violationType: vt, source: v.Name}
				groups[vt] = g
				order = append(order, vt)
			}
			g.members = append(g.members, groupMember{member: m, position: pos})
		}
	}

	p := pool.NewWithResults[[]contribution]().
		WithErrors().
		WithContext(ctx).
		WithMaxGoroutines(a.maxGoroutines)
	for _, vt := range order {
		g := groups[vt]
		p.Go(func(ctx context.Context) ([]contribution, error) {
			return expandGroup(ctx, g)
		})
	}
	results, err := p.Wait()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		for _, ge := range groupErrors(err) {
			logger.Warn().Err(ge.err).Str("group", ge.group).Msg("violation group failed, skipping")
			res.Failures = append(res.Failures, domain.FetchFailure{
				Scope:  domain.FailureScopeGroup,
				Target: ge.group,
				Reason: ge.err.Error(),
			})
		}
	}

	var contributions []contribution
	for _, r := range results {
		contributions = append(contributions, r...)
	}
	// Group tasks complete in any order; input order decides insertion order.
	slices.SortFunc(contributions, func(x, y contribution) int {
		if c := cmp.Compare(x.index, y.index); c != 0 {
			return c
		}
		return cmp.Compare(x.position, y.position)
	})

	summaries := accumulate(contributions)

	filterUnassigned := a.resolver.Mode().Kind == domain.OwnerModeField
	for _, s := range summaries {
		if s.Violations < minViolations || (filterUnassigned && strings.Contains(s.Owner, unassignedMarker)) {
			res.FilteredOwners++
			continue
		}
		res.Owners = append(res.Owners, s)
		res.TotalViolatingAssets += s.Count
	}
	slices.SortFunc(res.Owners, func(x, y domain.OwnerSummary) int {
		return cmp.Compare(x.Owner, y.Owner)
	})

	logger.Debug().
		Int("assets", len(assets)).
		Int("dropped", res.DroppedAssets).
		Int("owners", len(res.Owners)).
		Int("filtered", res.FilteredOwners).
		Msg("aggregation complete")
	return res, nil
}

func expandGroup(ctx context.Context, g *group) ([]contribution, error) {
	if g.violationType == "" {
		return nil, &groupError{group: g.source, err: errMissingViolationType}
	}
	out := make([]contribution, 0, len(g.members))
	for _, m := range g.members {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, contribution{
			index:     m.index,
			position:  m.position,
			owner:     m.owner,
			key:       AssetKey(m.asset),
			assetType: m.asset.Type,
			label:     AssetLabel(m.asset),
			arn:       AssetARN(m.asset),
			violation: g.violationType,
		})
	}
	return out, nil
}

func groupErrors(err error) []*groupError {
	var out []*groupError
	var walk func(error)
	walk = func(err error) {
		switch joined := err.(type) {
		case interface{ Unwrap() []error }:
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		case interface{ Errors() []error }:
			for _, e := range joined.Errors() {
				walk(e)
			}
			return
		}
		var ge *groupError
		if errors.As(err, &ge) {
			out = append(out, ge)
		}
	}
	walk(err)
	return out
}

type ownerAccumulator struct {
	summary   domain.OwnerSummary
	types     map[string]struct{}
	vtypes    map[string]struct{}
	assetSeen map[string]map[string]struct{}
}

func accumulate(contributions []contribution) []domain.OwnerSummary {
	owners := make(map[string]*ownerAccumulator)
	var order []string

	for _, c := range contributions {
		acc, ok := owners[c.owner]
		if !ok {
			acc = &ownerAccumulator{
				summary: domain.OwnerSummary{
					Owner:               c.owner,
					ViolationTypeCounts: make(map[string]int),
				},
				types:     make(map[string]struct{}),
				vtypes:    make(map[string]struct{}),
				assetSeen: make(map[string]map[string]struct{}),
			}
			owners[c.owner] = acc
			order = append(order, c.owner)
		}

		seen, known := acc.assetSeen[c.key]
		if !known {
			seen = make(map[string]struct{})
			acc.assetSeen[c.key] = seen
			acc.summary.Count++
			acc.summary.Assets = append(acc.summary.Assets, domain.AssetRef{
				Key:   c.key,
				Label: c.label,
				ARN:   c.arn,
			})
			if _, dup := acc.types[c.assetType]; !dup && c.assetType != "" {
				acc.types[c.assetType] = struct{}{}
				acc.summary.Types = append(acc.summary.Types, c.assetType)
			}
		}

		if _, dup := seen[c.violation]; dup {
			continue
		}
		seen[c.violation] = struct{}{}
		acc.summary.Violations++
		acc.summary.ViolationTypeCounts[c.violation]++
		if _, dup := acc.vtypes[c.violation]; !dup {
			acc.vtypes[c.violation] = struct{}{}
			acc.summary.ViolationTypes = append(acc.summary.ViolationTypes, c.violation)
		}
	}

	summaries := make([]domain.OwnerSummary, 0, len(order))
	for _, key := range order {
		summaries = append(summaries, owners[key].summary)
	}
	return summaries
}
