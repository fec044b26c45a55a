package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Reference collections searched by the lookup
const (
	CollectionMohallas = "mohallas"
	CollectionWards    = "wards"
)

// Lookup runs one fuzzy query per token against a reference collection and
// keeps the best scoring row. It never caches: every call reissues every query.
type Lookup struct {
	store       ReferenceStore
	concurrency int
	observer    Observer
}

// NewLookup creates a lookup over store. A concurrency of 1 or less issues the
// per-token queries sequentially.
func NewLookup(store ReferenceStore, concurrency int, observer Observer) *Lookup {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Lookup{
		store:       store,
		concurrency: concurrency,
		observer:    observer,
	}
}

// BestMohallaMatch returns the highest scoring mohalla at or above minScore
// across all tokens, or nil when none qualifies
func (l *Lookup) BestMohallaMatch(ctx context.Context, tokens []string, city string, minScore float64) (*MohallaCandidate, error) {
	query := func(ctx context.Context, token string) ([]MohallaCandidate, error) {
		return l.store.SearchMohallasFuzzy(ctx, token, city)
	}
	score := func(c MohallaCandidate) float64 { return c.Score }
	return bestMatch(ctx, l, CollectionMohallas, tokens, minScore, query, score)
}

// BestWardNameMatch returns the highest scoring ward name at or above minScore
// across all tokens, or nil when none qualifies
func (l *Lookup) BestWardNameMatch(ctx context.Context, tokens []string, city string, minScore float64) (*WardCandidate, error) {
	query := func(ctx context.Context, token string) ([]WardCandidate, error) {
		return l.store.SearchWardsPhonetic(ctx, token, city)
	}
	score := func(c WardCandidate) float64 { return c.Score }
	return bestMatch(ctx, l, CollectionWards, tokens, minScore, query, score)
}

// bestMatch scans every row of every token's response. Rows are visited in
// token order and then row order, and the running best is only replaced by a
// strictly higher score, so the first-seen candidate wins ties regardless of
// how the queries were scheduled.
func bestMatch[T any](
	ctx context.Context,
	l *Lookup,
	collection string,
	tokens []string,
	minScore float64,
	query func(context.Context, string) ([]T, error),
	score func(T) float64,
) (*T, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	l.observer.ObserveQueries(collection, len(tokens))
	responses, err := collect(ctx, tokens, l.concurrency, query)
	if err != nil {
		return nil, WrapError(ErrUpstream, "search "+collection, err)
	}

	var best *T
	for _, rows := range responses {
		for i := range rows {
			s := score(rows[i])
			if s < minScore {
				continue
			}
			if best == nil || s > score(*best) {
				row := rows[i]
				best = &row
			}
		}
	}
	return best, nil
}

// collect returns the response of each token at the token's index. The first
// failing query aborts the whole collection.
func collect[T any](ctx context.Context, tokens []string, concurrency int, query func(context.Context, string) ([]T, error)) ([][]T, error) {
	responses := make([][]T, len(tokens))

	if concurrency <= 1 {
		for i, token := range tokens {
			rows, err := query(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("query %q: %w", token, err)
			}
			responses[i] = rows
		}
		return responses, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, token := range tokens {
		i, token := i, token
		g.Go(func() error {
			rows, err := query(gctx, token)
			if err != nil {
				return fmt.Errorf("query %q: %w", token, err)
			}
			responses[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}
