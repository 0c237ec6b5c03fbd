package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COUNCIL QUEUE QUERY
// Requests awaiting review across all six kinds, oldest first.
// ══════════════════════════════════════════════════════════════════════════════

// GetCouncilQueueQuery contains the queue query parameters.
type GetCouncilQueueQuery struct {
	// Kind restricts the queue to one request kind. Empty means all.
	Kind council.Kind

	// IncludeResolved also lists decided requests.
	IncludeResolved bool
}

// Validate checks the query parameters.
func (q GetCouncilQueueQuery) Validate() error {
	if q.Kind != "" && !q.Kind.IsValid() {
		return fmt.Errorf("unknown request kind %q", q.Kind)
	}
	return nil
}

// QueueItem is one request in the Council's queue.
type QueueItem struct {
	ID            string         `json:"id"`
	Kind          council.Kind   `json:"kind"`
	SubmitterName string         `json:"userName"`
	SubmittedAt   time.Time      `json:"submittedAt"`
	Status        council.Status `json:"status"`
	Feedback      string         `json:"feedback,omitempty"`
	Summary       string         `json:"summary"`
}

// CouncilQueueDTO is the Council dashboard read model.
type CouncilQueueDTO struct {
	Items             []QueueItem    `json:"items"`
	Pending           int            `json:"pending"`
	PendingColonies   []string       `json:"pendingColonies"`
	AccessFundBalance shared.Cents   `json:"accessFundBalance"`
	ViewerIsCouncil   bool           `json:"viewerIsCouncil"`
	ByKind            map[string]int `json:"byKind"`
}

// GetCouncilQueueHandler handles GetCouncilQueueQuery.
type GetCouncilQueueHandler struct {
	reader StateReader
}

// NewGetCouncilQueueHandler creates a new GetCouncilQueueHandler.
func NewGetCouncilQueueHandler(reader StateReader) *GetCouncilQueueHandler {
	return &GetCouncilQueueHandler{reader: reader}
}

// Handle builds the queue.
func (h *GetCouncilQueueHandler) Handle(_ context.Context, q GetCouncilQueueQuery) (*CouncilQueueDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_council_queue: %w", err)
	}
	s := h.reader.State()

	dto := &CouncilQueueDTO{
		Items:             []QueueItem{},
		PendingColonies:   []string{},
		AccessFundBalance: s.AccessFundBalance,
		ViewerIsCouncil:   s.User.IsCouncil(),
		ByKind:            make(map[string]int),
	}

	for _, r := range s.Requests(q.Kind) {
		head := r.Head()
		if head.IsPending() {
			dto.Pending++
			dto.ByKind[string(r.Kind())]++
		} else if !q.IncludeResolved {
			continue
		}
		dto.Items = append(dto.Items, QueueItem{
			ID:            head.ID,
			Kind:          r.Kind(),
			SubmitterName: head.SubmitterName,
			SubmittedAt:   head.SubmittedAt,
			Status:        head.Status,
			Feedback:      head.Feedback,
			Summary:       Summarize(r),
		})
	}
	sort.SliceStable(dto.Items, func(i, j int) bool {
		return dto.Items[i].SubmittedAt.Before(dto.Items[j].SubmittedAt)
	})

	for _, c := range s.Colonies {
		if !c.IsApproved {
			dto.PendingColonies = append(dto.PendingColonies, c.ID)
		}
	}
	return dto, nil
}

// Summarize renders a one-line description of a request.
func Summarize(r council.Request) string {
	switch v := r.(type) {
	case *council.Verification:
		return fmt.Sprintf("verify %q", v.BadgeTitle)
	case *council.Proposal:
		return fmt.Sprintf("add %q to the library (%d requirements)", v.Badge.Title, len(v.Badge.Requirements))
	case *council.Promotion:
		return fmt.Sprintf("promote %s to %s with %d statements", v.CurrentTier, v.TargetTier, len(v.Statements))
	case *council.LinkSuggestion:
		return fmt.Sprintf("link %q on %q: %s", v.Label, v.BadgeTitle, v.URL)
	case *council.Partnership:
		return fmt.Sprintf("partner with %s (%s)", v.PartnerName, v.PartnerType)
	case *council.Physical:
		if v.Cost.IsFree() {
			return fmt.Sprintf("forge %q (free claim)", v.BadgeTitle)
		}
		return fmt.Sprintf("forge %q for %s", v.BadgeTitle, v.Cost)
	default:
		return string(r.Kind())
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GET DECISIONS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetDecisionsQuery lists recent Council decisions from the decision log.
type GetDecisionsQuery struct {
	Limit int
}

// GetDecisionsHandler handles GetDecisionsQuery.
type GetDecisionsHandler struct {
	log council.DecisionLog
}

// NewGetDecisionsHandler creates a new GetDecisionsHandler.
func NewGetDecisionsHandler(log council.DecisionLog) *GetDecisionsHandler {
	return &GetDecisionsHandler{log: log}
}

// Handle returns the most recent decisions first.
func (h *GetDecisionsHandler) Handle(ctx context.Context, q GetDecisionsQuery) ([]council.Decision, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 500 {
		q.Limit = 500
	}
	out, err := h.log.List(ctx, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("get_decisions: %w", err)
	}
	return out, nil
}
