package resilience

import (
	"context"

	"github.com/ward-resolver/internal/engine"
)

// Operation names, one breaker each
const (
	OpSearchWards    = "search_ward_phonetic"
	OpSearchMohallas = "fuzzy_search_mohallas"
	OpGetWard        = "get_ward_by_id"
)

// GuardedStore wraps a reference store so every call passes through a breaker
type GuardedStore struct {
	next     engine.ReferenceStore
	breakers *Breakers
}

var _ engine.ReferenceStore = (*GuardedStore)(nil)

// NewGuardedStore wraps next with breakers
func NewGuardedStore(next engine.ReferenceStore, breakers *Breakers) *GuardedStore {
	return &GuardedStore{next: next, breakers: breakers}
}

func (g *GuardedStore) SearchWardsPhonetic(ctx context.Context, query, city string) ([]engine.WardCandidate, error) {
	var out []engine.WardCandidate
	err := g.breakers.Execute(ctx, OpSearchWards, func(ctx context.Context) error {
		var err error
		out, err = g.next.SearchWardsPhonetic(ctx, query, city)
		return err
	})
	return out, err
}

func (g *GuardedStore) SearchMohallasFuzzy(ctx context.Context, query, city string) ([]engine.MohallaCandidate, error) {
	var out []engine.MohallaCandidate
	err := g.breakers.Execute(ctx, OpSearchMohallas, func(ctx context.Context) error {
		var err error
		out, err = g.next.SearchMohallasFuzzy(ctx, query, city)
		return err
	})
	return out, err
}

// GetWardByID passes through the breaker. A missing row is a successful call.
func (g *GuardedStore) GetWardByID(ctx context.Context, id int64) (engine.Ward, bool, error) {
	var (
		ward  engine.Ward
		found bool
	)
	err := g.breakers.Execute(ctx, OpGetWard, func(ctx context.Context) error {
		var err error
		ward, found, err = g.next.GetWardByID(ctx, id)
		return err
	})
	return ward, found, err
}
