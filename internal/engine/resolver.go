package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ward-resolver/internal/normalize"
)

// Policy holds the score thresholds of the resolution policy.
//
// Floors filter rows inside the lookup; accept thresholds decide whether the
// best surviving candidate is authoritative. A mohalla accepted at
// MohallaAccept always wins over a ward-name candidate, whatever its score.
type Policy struct {
	MohallaFloor   float64 `yaml:"mohalla_floor"`
	MohallaAccept  float64 `yaml:"mohalla_accept"`
	WardNameFloor  float64 `yaml:"ward_name_floor"`
	WardNameAccept float64 `yaml:"ward_name_accept"`
}

// StoreSimilarityThreshold is the pg_trgm.similarity_threshold the search
// functions filter at. Rows below it never reach the lookup.
const StoreSimilarityThreshold = 0.3

// DefaultPolicy returns the production thresholds
func DefaultPolicy() Policy {
	return Policy{
		MohallaFloor:   0.3,
		MohallaAccept:  0.5,
		WardNameFloor:  0.5,
		WardNameAccept: 0.75,
	}
}

// Options configures a Resolver
type Options struct {
	Policy      Policy
	Concurrency int
	Logger      *zerolog.Logger
	Observer    Observer
}

// Resolver maps free-text addresses to wards. It holds no per-request state
// and may be shared across goroutines; the store is borrowed, not owned.
type Resolver struct {
	store    ReferenceStore
	lookup   *Lookup
	policy   Policy
	logger   zerolog.Logger
	observer Observer
}

// NewResolver creates a resolver over store. A zero Policy selects DefaultPolicy.
func NewResolver(store ReferenceStore, opts Options) *Resolver {
	policy := opts.Policy
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "resolver").Logger()
	}
	observer := opts.Observer
	if observer == nil {
		observer = noopObserver{}
	}

	return &Resolver{
		store:    store,
		lookup:   NewLookup(store, opts.Concurrency, observer),
		policy:   policy,
		logger:   logger,
		observer: observer,
	}
}

// Policy returns the thresholds in effect
func (r *Resolver) Policy() Policy {
	return r.policy
}

// Resolve resolves addr to a ward. An address without a qualifying candidate
// is not an error: the result is unresolved and carries a reason. Errors are
// either ErrUpstream or ErrDataIntegrity and never come with a partial result.
func (r *Resolver) Resolve(ctx context.Context, addr Address) (Result, error) {
	start := time.Now()
	tokens := normalize.ExtractTokens(addr.Text)

	// Both lookups run unconditionally, even though at most one is used.
	mohalla, err := r.lookup.BestMohallaMatch(ctx, tokens, addr.City, r.policy.MohallaFloor)
	if err != nil {
		r.observer.ObserveFailure(FailureUpstream)
		return Result{}, err
	}
	ward, err := r.lookup.BestWardNameMatch(ctx, tokens, addr.City, r.policy.WardNameFloor)
	if err != nil {
		r.observer.ObserveFailure(FailureUpstream)
		return Result{}, err
	}

	result, err := r.decide(ctx, mohalla, ward)
	if err != nil {
		if IsKind(err, ErrDataIntegrity) {
			r.observer.ObserveFailure(FailureDataIntegrity)
		} else {
			r.observer.ObserveFailure(FailureUpstream)
		}
		r.logger.Error().Err(err).Str("city", addr.City).Msg("resolution failed")
		return Result{}, err
	}

	elapsed := time.Since(start)
	r.observer.ObserveResolution(result.Basis, result.Resolved(), elapsed)

	evt := r.logger.Debug().
		Str("city", addr.City).
		Int("tokens", len(tokens)).
		Str("basis", string(result.Basis)).
		Bool("resolved", result.Resolved()).
		Dur("elapsed", elapsed)
	if mohalla != nil {
		evt = evt.Str("best_mohalla", mohalla.Name).Float64("mohalla_score", mohalla.Score)
	}
	if ward != nil {
		evt = evt.Str("best_ward", ward.Name).Float64("ward_score", ward.Score)
	}
	evt.Msg("address resolved")

	return result, nil
}

func (r *Resolver) decide(ctx context.Context, mohalla *MohallaCandidate, ward *WardCandidate) (Result, error) {
	if mohalla != nil && mohalla.Score >= r.policy.MohallaAccept {
		owner, found, err := r.store.GetWardByID(ctx, mohalla.WardID)
		if err != nil {
			return Result{}, WrapError(ErrUpstream, "get ward", err)
		}
		if !found {
			return Result{}, WrapError(ErrDataIntegrity, "get ward",
				fmt.Errorf("mohalla %q references missing ward id %d", mohalla.Name, mohalla.WardID))
		}
		return resolvedByMohalla(owner, mohalla), nil
	}

	if ward != nil && ward.Score >= r.policy.WardNameAccept {
		return resolvedByWardName(ward), nil
	}

	return unresolved(ReasonInsufficientConfidence), nil
}
