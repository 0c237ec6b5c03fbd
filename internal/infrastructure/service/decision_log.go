package service

import (
	"context"
	"fmt"

	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/infrastructure/persistence/projections"
)

// MirroredDecisionLog writes decisions to a durable log and serves reads
// from an in-memory view of it.
type MirroredDecisionLog struct {
	durable council.DecisionLog
	view    *projections.DecisionView
}

// NewMirroredDecisionLog creates a MirroredDecisionLog. Call Hydrate to fill
// the view from the durable log.
func NewMirroredDecisionLog(durable council.DecisionLog, view *projections.DecisionView) *MirroredDecisionLog {
	return &MirroredDecisionLog{durable: durable, view: view}
}

// Hydrate rebuilds the view from the newest limit durable decisions.
func (m *MirroredDecisionLog) Hydrate(ctx context.Context, limit int) error {
	ds, err := m.durable.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("hydrate decisions: %w", err)
	}
	m.view.Rebuild(ds)
	return nil
}

// Append implements council.DecisionLog. The view is only updated once the
// durable write succeeds.
func (m *MirroredDecisionLog) Append(ctx context.Context, d council.Decision) error {
	if err := m.durable.Append(ctx, d); err != nil {
		return err
	}
	return m.view.Append(ctx, d)
}

// List implements council.DecisionLog.
func (m *MirroredDecisionLog) List(ctx context.Context, limit int) ([]council.Decision, error) {
	return m.view.List(ctx, limit)
}

// View exposes the in-memory projection.
func (m *MirroredDecisionLog) View() *projections.DecisionView { return m.view }
