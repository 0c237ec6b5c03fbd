package guild

import (
	"fmt"
	"strings"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/shared"
)

func (s *State) newHeader(env Env, prefix string) council.Header {
	return council.NewHeader(env.IDs.NewID(prefix), s.User.ID, s.User.Name, env.now())
}

func submitted(h council.Header, kind council.Kind) shared.Event {
	return shared.NewRequestSubmittedEvent(h.ID, string(kind), h.SubmitterID, h.SubmittedAt)
}

func masteredOwned(s *State, op, badgeID string) (*badge.Badge, error) {
	b, err := s.User.Badge(badgeID)
	if err != nil {
		return nil, err
	}
	if !b.IsMastered() {
		return nil, shared.WrapError("council", op, shared.ErrInvalidState,
			fmt.Sprintf("badge %q is not mastered", badgeID), nil)
	}
	return b, nil
}

func submitVerification(s *State, ev SubmitVerification, env Env) ([]shared.Event, error) {
	b, err := masteredOwned(s, "SubmitVerification", ev.BadgeID)
	if err != nil {
		return nil, err
	}
	for _, r := range s.VerificationRequests {
		if r.BadgeID == b.ID && r.IsPending() {
			return nil, shared.ErrDuplicatePending
		}
	}
	req := council.Verification{
		Header:     s.newHeader(env, "req"),
		BadgeID:    b.ID,
		BadgeTitle: b.Title,
	}
	s.VerificationRequests = append(s.VerificationRequests, req)
	return []shared.Event{submitted(req.Header, council.KindVerification)}, nil
}

func submitProposal(s *State, ev SubmitProposal, env Env) ([]shared.Event, error) {
	origin := ev.Origin
	if origin == "" {
		origin = badge.OriginManual
	}
	h := s.newHeader(env, "prop")
	b, err := badge.New(ev.Draft, badge.NewParams{
		ID:        h.ID,
		CreatorID: s.User.ID,
		Origin:    origin,
		CreatedAt: h.SubmittedAt,
	})
	if err != nil {
		return nil, err
	}
	req := council.Proposal{
		Header:  h,
		Badge:   b,
		Goal:    strings.TrimSpace(ev.Goal),
		Metrics: strings.TrimSpace(ev.Metrics),
	}
	s.BadgeProposals = append(s.BadgeProposals, req)
	return []shared.Event{submitted(req.Header, council.KindProposal)}, nil
}

// submitPromotion files a petition. Prerequisites are not checked here; the
// Council judges them.
func submitPromotion(s *State, ev SubmitPromotion, env Env) ([]shared.Event, error) {
	if !ev.TargetTier.IsPromotable() {
		return nil, shared.WrapError("council", "SubmitPromotion", shared.ErrInvalidTier,
			fmt.Sprintf("cannot petition for tier %q", ev.TargetTier), nil)
	}
	req := council.Promotion{
		Header:             s.newHeader(env, "promo"),
		CurrentTier:        s.User.Tier,
		TargetTier:         ev.TargetTier,
		SupportingBadgeIDs: append([]string{}, ev.SupportingBadgeIDs...),
		Statements:         append([]council.ActionStatement{}, ev.Statements...),
	}
	s.PromotionRequests = append(s.PromotionRequests, req)
	return []shared.Event{submitted(req.Header, council.KindPromotion)}, nil
}

func submitLinkSuggestion(s *State, ev SubmitLinkSuggestion, env Env) ([]shared.Event, error) {
	if shared.IsBlank(ev.Label) || shared.IsBlank(ev.URL) {
		return nil, shared.NewDomainError("council", "SubmitLinkSuggestion", shared.ErrEmptyValue, "label and url are required")
	}
	title := ""
	if lib, ok := s.LibraryBadge(ev.BadgeID); ok {
		title = lib.Title
	} else if owned, err := s.User.Badge(ev.BadgeID); err == nil {
		title = owned.Title
	} else {
		return nil, shared.ErrBadgeNotFound
	}
	req := council.LinkSuggestion{
		Header:     s.newHeader(env, "link"),
		BadgeID:    ev.BadgeID,
		BadgeTitle: title,
		Label:      strings.TrimSpace(ev.Label),
		URL:        strings.TrimSpace(ev.URL),
	}
	s.LinkSuggestions = append(s.LinkSuggestions, req)
	return []shared.Event{submitted(req.Header, council.KindLink)}, nil
}

func submitPartnership(s *State, ev SubmitPartnership, env Env) ([]shared.Event, error) {
	if shared.IsBlank(ev.PartnerName) {
		return nil, shared.NewDomainError("council", "SubmitPartnership", shared.ErrEmptyValue, "partner name is required")
	}
	if !ev.PartnerType.IsValid() {
		return nil, shared.WrapError("council", "SubmitPartnership", shared.ErrInvalidInput,
			fmt.Sprintf("unknown partner type %q", ev.PartnerType), nil)
	}
	req := council.Partnership{
		Header:      s.newHeader(env, "partner"),
		PartnerName: strings.TrimSpace(ev.PartnerName),
		PartnerType: ev.PartnerType,
		Description: ev.Description,
		WebsiteURL:  strings.TrimSpace(ev.WebsiteURL),
	}
	s.PartnershipRequests = append(s.PartnershipRequests, req)
	return []shared.Event{submitted(req.Header, council.KindPartnership)}, nil
}

// submitPhysical prices the artifact and consumes the free claim right away;
// entitlement does not wait for the Council.
func submitPhysical(s *State, ev SubmitPhysical, env Env) ([]shared.Event, error) {
	b, err := masteredOwned(s, "SubmitPhysical", ev.BadgeID)
	if err != nil {
		return nil, err
	}
	quote := council.QuoteArtifact(b.ID, s.User.ClaimedFreePhysicalBadgeIDs, env.ArtifactFee)
	if quote.ConsumesFreeClaim {
		s.User.MarkFreeClaimed(b.ID)
	}
	req := council.Physical{
		Header:     s.newHeader(env, "phys"),
		BadgeID:    b.ID,
		BadgeTitle: b.Title,
		Cost:       quote.Cost,
	}
	s.PhysicalBadgeRequests = append(s.PhysicalBadgeRequests, req)
	return []shared.Event{
		submitted(req.Header, council.KindPhysical),
		shared.NewPhysicalClaimedEvent(s.User.ID, b.ID, req.ID, req.Cost, req.SubmittedAt),
	}, nil
}
