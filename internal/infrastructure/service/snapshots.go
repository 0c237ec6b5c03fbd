package service

import (
	"context"
	"errors"

	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/pkg/circuitbreaker"
)

// GuardedSnapshotRepository puts a circuit breaker in front of a remote
// snapshot store. A missing snapshot is an answer, not a failure.
type GuardedSnapshotRepository struct {
	inner   guild.SnapshotRepository
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedSnapshotRepository creates a GuardedSnapshotRepository.
func NewGuardedSnapshotRepository(inner guild.SnapshotRepository, breaker *circuitbreaker.CircuitBreaker) *GuardedSnapshotRepository {
	if breaker == nil {
		breaker = circuitbreaker.StorageBreaker(nil)
	}
	return &GuardedSnapshotRepository{inner: inner, breaker: breaker}
}

// Load implements guild.SnapshotRepository.
func (g *GuardedSnapshotRepository) Load(ctx context.Context, userID string) (guild.State, error) {
	var (
		s        guild.State
		notFound error
	)
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		s, err = g.inner.Load(ctx, userID)
		if shared.IsNotFound(err) {
			notFound = err
			return nil
		}
		return err
	})
	if err != nil {
		return guild.State{}, unavailable("Load", err)
	}
	if notFound != nil {
		return guild.State{}, notFound
	}
	return s, nil
}

// Save implements guild.SnapshotRepository.
func (g *GuardedSnapshotRepository) Save(ctx context.Context, userID string, s guild.State) error {
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Save(ctx, userID, s)
	})
	if err != nil {
		return unavailable("Save", err)
	}
	return nil
}

// Breaker returns the breaker guarding the store.
func (g *GuardedSnapshotRepository) Breaker() *circuitbreaker.CircuitBreaker { return g.breaker }

func unavailable(op string, err error) error {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyProbes) {
		return shared.WrapError("snapshot", op, shared.ErrServiceUnavailable, "snapshot store is cooling down", err)
	}
	return err
}
