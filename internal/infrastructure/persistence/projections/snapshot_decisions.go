package projections

import (
	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/guild"
)

// DecisionsFromState recovers the latest decision on every resolved request
// in a snapshot. Earlier needs_info rounds of a request that was later
// decided again are not kept by the snapshot and are not recovered.
func DecisionsFromState(s guild.State) []council.Decision {
	var out []council.Decision
	for _, r := range s.Requests("") {
		h := r.Head()
		if h.ResolvedAt == nil || h.IsPending() {
			continue
		}
		out = append(out, council.Decision{
			RequestID:   h.ID,
			Kind:        r.Kind(),
			SubmitterID: h.SubmitterID,
			Status:      h.Status,
			Feedback:    h.Feedback,
			DecidedAt:   *h.ResolvedAt,
		})
	}
	sortDecisions(out)
	return out
}
