// Package resilience guards reference store calls with circuit breakers.
// Calls are never retried: a failed lookup fails the resolution.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/ward-resolver/internal/config"
)

// StateListener is notified whenever a breaker changes state
type StateListener func(operation string, from, to gobreaker.State)

// Breakers holds one circuit breaker per operation name
type Breakers struct {
	cfg      config.BreakerConfig
	logger   zerolog.Logger
	listener StateListener

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewBreakers creates an empty breaker set. listener may be nil.
func NewBreakers(cfg config.BreakerConfig, logger zerolog.Logger, listener StateListener) *Breakers {
	if cfg.HalfOpenMaxCall == 0 {
		cfg.HalfOpenMaxCall = 1
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.5
	}
	return &Breakers{
		cfg:      cfg,
		logger:   logger.With().Str("component", "breaker").Logger(),
		listener: listener,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Execute runs fn under the breaker for operation. When breakers are
// disabled fn runs directly.
func (b *Breakers) Execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if !b.cfg.Enabled {
		return fn(ctx)
	}

	_, err := b.breaker(op).Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// State reports the current state of the breaker for operation
func (b *Breakers) State(operation string) gobreaker.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[operation]; ok {
		return cb.State()
	}
	return gobreaker.StateClosed
}

func (b *Breakers) breaker(operation string) *gobreaker.CircuitBreaker[any] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[operation]; ok {
		return cb
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: b.cfg.HalfOpenMaxCall,
		Timeout:     b.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= b.cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Cancelled callers do not count against the store.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			b.logger.Warn().
				Str("operation", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			if b.listener != nil {
				b.listener(name, from, to)
			}
		},
	}

	cb := gobreaker.NewCircuitBreaker[any](settings)
	b.breakers[operation] = cb
	return cb
}

// IsCircuitOpen reports whether err was produced by an open or saturated breaker
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
