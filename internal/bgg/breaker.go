package bgg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/playlog/internal/config"
	"github.com/playlog/internal/domain"
	"github.com/playlog/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Provider is the metadata provider contract
type Provider interface {
	Search(ctx context.Context, query string) ([]domain.GameSearchResult, error)
	Lookup(ctx context.Context, id int) (*domain.GameMetadata, error)
}

var (
	_ Provider = (*Client)(nil)
	_ Provider = (*BreakerProvider)(nil)
)

// BreakerProvider guards a Provider with a circuit breaker. Unknown games
// and cancelled requests do not count as failures.
type BreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerProvider wraps next
func NewBreakerProvider(next Provider, cfg config.BreakerConfig, logger *slog.Logger) *BreakerProvider {
	const name = "bgg-api"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrGameNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})

	return &BreakerProvider{next: next, cb: cb}
}

// Search runs the wrapped search through the breaker
func (p *BreakerProvider) Search(ctx context.Context, query string) ([]domain.GameSearchResult, error) {
	v, err := p.cb.Execute(func() (any, error) {
		return p.next.Search(ctx, query)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return v.([]domain.GameSearchResult), nil
}

// Lookup runs the wrapped lookup through the breaker
func (p *BreakerProvider) Lookup(ctx context.Context, id int) (*domain.GameMetadata, error) {
	v, err := p.cb.Execute(func() (any, error) {
		return p.next.Lookup(ctx, id)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return v.(*domain.GameMetadata), nil
}

// State returns the breaker state
func (p *BreakerProvider) State() gobreaker.State {
	return p.cb.State()
}

func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("bgg unavailable: %w", err)
	}
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
