package pager

import (
	"context"
	"errors"
	"iter"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// DefaultMaxPages bounds pagination when the upstream keeps returning cursors.
const DefaultMaxPages = 100

// ErrLimitReached is yielded when the page ceiling is hit while a cursor is
// still pending.
var ErrLimitReached = errors.New("pagination safety limit reached")

// FetchFunc requests the page that follows cursor. The first call receives "".
type FetchFunc[T any] func(ctx context.Context, cursor string) (domain.Page[T], error)

// Pager drives cursor-based pagination against a single endpoint.
type Pager[T any] struct {
	name     string
	fetch    FetchFunc[T]
	maxPages int
}

func New[T any](name string, fetch FetchFunc[T], maxPages int) *Pager[T] {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Pager[T]{
		name:     name,
		fetch:    fetch,
		maxPages: maxPages,
	}
}

// Result is the concatenation of every fetched page in arrival order.
type Result[T any] struct {
	Items        []T
	Pages        int
	HasMore      bool
	LimitReached bool
	// Err is the page failure that stopped pagination early, if any.
	Err error
}

// Incomplete reports whether pagination stopped before the upstream ran out
// of cursors.
func (r Result[T]) Incomplete() bool {
	return r.LimitReached || r.Err != nil
}

// Pages returns a lazy sequence of pages. Page N+1 is only requested after
// page N has been consumed. The sequence ends after the first error.
func (p *Pager[T]) Pages(ctx context.Context) iter.Seq2[domain.Page[T], error] {
	return func(yield func(domain.Page[T], error) bool) {
		cursor := ""
		for n := 0; n < p.maxPages; n++ {
			if err := ctx.Err(); err != nil {
				yield(domain.Page[T]{}, err)
				return
			}
			page, err := p.fetch(ctx, cursor)
			if err != nil {
				yield(domain.Page[T]{}, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if page.NextCursor == "" {
				return
			}
			cursor = page.NextCursor
		}
		yield(domain.Page[T]{}, ErrLimitReached)
	}
}

// Collect walks every page. Only authentication failures and context
// cancellation are returned as errors; other page failures and the safety
// limit end the walk and are reported on the result.
func (p *Pager[T]) Collect(ctx context.Context) (Result[T], error) {
	return p.collect(ctx, 0)
}

// CollectN stops once at least limit items have been gathered.
func (p *Pager[T]) CollectN(ctx context.Context, limit int) (Result[T], error) {
	return p.collect(ctx, limit)
}

func (p *Pager[T]) collect(ctx context.Context, limit int) (Result[T], error) {
	logger := zerolog.Ctx(ctx).With().Str("pager", p.name).Logger()
	var res Result[T]

	for page, err := range p.Pages(ctx) {
		if err != nil {
			return p.stop(ctx, &logger, res, err)
		}
		res.Pages++
		res.Items = append(res.Items, page.Items...)
		res.HasMore = page.NextCursor != ""

		logger.Debug().
			Int("page", res.Pages).
			Int("items", len(page.Items)).
			Bool("has_more", res.HasMore).
			Msg("page fetched")

		if limit > 0 && len(res.Items) >= limit {
			break
		}
	}

	return res, nil
}

func (p *Pager[T]) stop(ctx context.Context, logger *zerolog.Logger, res Result[T], err error) (Result[T], error) {
	switch {
	case errors.Is(err, ErrLimitReached):
		res.LimitReached = true
		res.HasMore = true
		logger.Warn().Int("pages", res.Pages).Int("max_pages", p.maxPages).Msg("pagination safety limit reached, results are partial")
		return res, nil
	case errors.Is(err, domain.ErrAuthRequired), ctx.Err() != nil:
		return res, err
	default:
		res.Err = err
		logger.Warn().Err(err).Int("pages", res.Pages).Msg("page fetch failed, results are partial")
		return res, nil
	}
}
