package web

import (
	"context"
	"fmt"

	"github.com/ward-resolver/internal/metrics"
	"github.com/ward-resolver/internal/web/handlers"
)

// ReferenceInfo is the store surface used by the probe and stats endpoints
type ReferenceInfo interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context, city string) (wards, mohallas int, err error)
}

// Deps are the collaborators the server routes to. The composition root
// owns them; the server never closes anything it did not create.
type Deps struct {
	Resolver handlers.Resolver
	// Searcher serves the diagnostic search endpoints, normally the guarded store.
	Searcher  handlers.CandidateSearcher
	Reference ReferenceInfo
	// Metrics is optional; nil disables the metrics endpoint and middleware.
	Metrics *metrics.Metrics
}

func (d Deps) validate() error {
	if d.Resolver == nil {
		return fmt.Errorf("web: resolver is required")
	}
	if d.Searcher == nil {
		return fmt.Errorf("web: searcher is required")
	}
	if d.Reference == nil {
		return fmt.Errorf("web: reference store is required")
	}
	return nil
}
