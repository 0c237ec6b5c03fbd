// Package projections holds in-memory read models kept up to date from
// domain events.
package projections

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/heron-guild/guildhall/internal/domain/council"
)

// ══════════════════════════════════════════════════════════════════════════════
// DECISION VIEW
// ══════════════════════════════════════════════════════════════════════════════

// DecisionView is an in-memory council.DecisionLog with per-member and
// per-outcome indexes. It is the decision log when no database is configured.
type DecisionView struct {
	mu sync.RWMutex

	byRequest map[string]council.Decision

	// newestFirst is kept sorted by DecidedAt descending, then request id.
	newestFirst []council.Decision

	bySubmitter map[string][]string

	stats DecisionStats

	lastUpdated time.Time
	version     int64
}

// DecisionStats holds aggregate counts over all recorded decisions.
type DecisionStats struct {
	Total    int                    `json:"total"`
	ByKind   map[council.Kind]int   `json:"by_kind"`
	ByStatus map[council.Status]int `json:"by_status"`
}

// NewDecisionView creates an empty view.
func NewDecisionView() *DecisionView {
	return &DecisionView{
		byRequest:   make(map[string]council.Decision),
		bySubmitter: make(map[string][]string),
		stats:       newDecisionStats(),
		lastUpdated: time.Now().UTC(),
	}
}

func newDecisionStats() DecisionStats {
	return DecisionStats{
		ByKind:   make(map[council.Kind]int),
		ByStatus: make(map[council.Status]int),
	}
}

// Append implements council.DecisionLog. A request already recorded is left
// unchanged.
func (v *DecisionView) Append(_ context.Context, d council.Decision) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.add(d)
	v.sortNewestFirst()
	v.touch()
	return nil
}

// List implements council.DecisionLog. A non-positive limit returns everything.
func (v *DecisionView) List(_ context.Context, limit int) ([]council.Decision, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	n := len(v.newestFirst)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]council.Decision, n)
	copy(out, v.newestFirst[:n])
	return out, nil
}

// Rebuild replaces the view's contents, typically from a durable log.
func (v *DecisionView) Rebuild(decisions []council.Decision) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.byRequest = make(map[string]council.Decision, len(decisions))
	v.newestFirst = make([]council.Decision, 0, len(decisions))
	v.bySubmitter = make(map[string][]string)
	v.stats = newDecisionStats()
	for _, d := range decisions {
		v.add(d)
	}
	v.sortNewestFirst()
	v.touch()
}

// ForSubmitter returns the decisions on one member's requests, newest first.
func (v *DecisionView) ForSubmitter(userID string) []council.Decision {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ids := v.bySubmitter[userID]
	out := make([]council.Decision, 0, len(ids))
	for _, id := range ids {
		out = append(out, v.byRequest[id])
	}
	sortDecisions(out)
	return out
}

// Stats returns a copy of the aggregate counts.
func (v *DecisionView) Stats() DecisionStats {
	v.mu.RLock()
	defer v.mu.RUnlock()

	s := newDecisionStats()
	s.Total = v.stats.Total
	for k, n := range v.stats.ByKind {
		s.ByKind[k] = n
	}
	for k, n := range v.stats.ByStatus {
		s.ByStatus[k] = n
	}
	return s
}

// Version increases on every change.
func (v *DecisionView) Version() int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

// LastUpdated returns when the view last changed.
func (v *DecisionView) LastUpdated() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastUpdated
}

func (v *DecisionView) add(d council.Decision) {
	if _, ok := v.byRequest[d.RequestID]; ok {
		return
	}
	v.byRequest[d.RequestID] = d
	v.newestFirst = append(v.newestFirst, d)
	v.bySubmitter[d.SubmitterID] = append(v.bySubmitter[d.SubmitterID], d.RequestID)
	v.stats.Total++
	v.stats.ByKind[d.Kind]++
	v.stats.ByStatus[d.Status]++
}

func (v *DecisionView) sortNewestFirst() {
	sortDecisions(v.newestFirst)
}

func (v *DecisionView) touch() {
	v.lastUpdated = time.Now().UTC()
	v.version++
}

func sortDecisions(ds []council.Decision) {
	sort.SliceStable(ds, func(i, j int) bool {
		if !ds[i].DecidedAt.Equal(ds[j].DecidedAt) {
			return ds[i].DecidedAt.After(ds[j].DecidedAt)
		}
		return ds[i].RequestID > ds[j].RequestID
	})
}
