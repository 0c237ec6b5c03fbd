package query

import (
	"context"
	"fmt"

	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TIER ASSESSMENT QUERY
// Advisory only: lists the prerequisites for a target tier and how the
// member's journal measures up. Promotion petitions are never blocked by it.
// ══════════════════════════════════════════════════════════════════════════════

// GetTierAssessmentQuery contains the assessment parameters.
type GetTierAssessmentQuery struct {
	// TargetTier defaults to the tier directly above the current one.
	TargetTier string
}

// TierAssessmentDTO is the assessment read model.
type TierAssessmentDTO struct {
	tier.Assessment

	// Eligible lists the prerequisites a petition may cite as supporting requirements.
	Eligible []tier.Item `json:"eligible"`

	// StatementsNeeded lists milestone ids that call for an action statement.
	StatementsNeeded []string `json:"statementsNeeded"`

	// AlreadyPending is true when a promotion petition is awaiting review.
	AlreadyPending bool `json:"alreadyPending"`
}

// GetTierAssessmentHandler handles GetTierAssessmentQuery.
type GetTierAssessmentHandler struct {
	reader       StateReader
	requirements tier.RequirementMap
}

// NewGetTierAssessmentHandler creates a new GetTierAssessmentHandler.
func NewGetTierAssessmentHandler(reader StateReader, requirements tier.RequirementMap) *GetTierAssessmentHandler {
	return &GetTierAssessmentHandler{reader: reader, requirements: requirements}
}

// Handle assesses the member against the target tier.
func (h *GetTierAssessmentHandler) Handle(_ context.Context, q GetTierAssessmentQuery) (*TierAssessmentDTO, error) {
	s := h.reader.State()

	target, err := resolveTarget(s.User.Tier, q.TargetTier)
	if err != nil {
		return nil, fmt.Errorf("get_tier_assessment: %w", err)
	}

	a, err := tier.Assess(h.requirements, s.User.Tier, target, s.User.Badges)
	if err != nil {
		return nil, fmt.Errorf("get_tier_assessment: %w", err)
	}

	eligible, err := EligibleSupportingRequirements(h.requirements, target)
	if err != nil {
		return nil, fmt.Errorf("get_tier_assessment: %w", err)
	}

	dto := &TierAssessmentDTO{
		Assessment:       a,
		Eligible:         eligible,
		StatementsNeeded: []string{},
	}
	for _, it := range eligible {
		if it.NeedsStatement {
			dto.StatementsNeeded = append(dto.StatementsNeeded, it.ID)
		}
	}
	for _, p := range s.PromotionRequests {
		if p.IsPending() {
			dto.AlreadyPending = true
			break
		}
	}
	return dto, nil
}

// EligibleSupportingRequirements returns the static prerequisite list for target.
func EligibleSupportingRequirements(m tier.RequirementMap, target tier.Tier) ([]tier.Item, error) {
	items, err := m.For(target)
	if err != nil {
		return nil, err
	}
	return append([]tier.Item{}, items...), nil
}

func resolveTarget(current tier.Tier, requested string) (tier.Tier, error) {
	if requested != "" {
		return tier.Parse(requested)
	}
	next, ok := current.Next()
	if !ok {
		return "", shared.NewDomainError("tier", "Next", shared.ErrInvalidState,
			fmt.Sprintf("%s is the highest tier", current))
	}
	return next, nil
}
