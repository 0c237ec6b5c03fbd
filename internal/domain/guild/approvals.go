package guild

import (
	"fmt"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// approvalFunc applies the side effect of approving one request kind.
type approvalFunc func(s *State, r council.Request, ev ResolveRequest, env Env) ([]shared.Event, error)

// approvals maps each kind to its side effect. Every kind in council.Kinds
// must be present; TestApprovalsCoverEveryKind enforces it.
var approvals = map[council.Kind]approvalFunc{
	council.KindVerification: approveVerification,
	council.KindProposal:     approveProposal,
	council.KindPromotion:    approvePromotion,
	council.KindLink:         approveLink,
	council.KindPartnership:  statusOnly,
	council.KindPhysical:     statusOnly,
}

// resolveRequest runs the side effect, if any, before flipping the status.
// Both happen on the working copy, so a failing side effect leaves the
// request pending and the state untouched.
func resolveRequest(s *State, ev ResolveRequest, env Env) ([]shared.Event, error) {
	if !ev.Status.IsResolution() {
		return nil, shared.ErrInvalidResolution
	}
	r, ok := s.FindRequest(ev.Kind, ev.RequestID)
	if !ok {
		return nil, shared.WrapError("council", "Resolve", shared.ErrNotFound,
			fmt.Sprintf("request %q not found", ev.RequestID), nil)
	}
	h := r.Head()
	if !h.IsPending() {
		return nil, shared.WrapError("council", "Resolve", shared.ErrAlreadyProcessed,
			fmt.Sprintf("request %s is already %s", h.ID, h.Status), nil)
	}

	var events []shared.Event
	if ev.Status == council.StatusApproved {
		apply, ok := approvals[r.Kind()]
		if !ok {
			return nil, shared.ErrUnknownRequestKind
		}
		effects, err := apply(s, r, ev, env)
		if err != nil {
			return nil, err
		}
		events = effects
	}

	at := env.now()
	if err := h.Resolve(ev.Status, ev.Feedback, at); err != nil {
		return nil, err
	}
	resolved := shared.NewRequestResolvedEvent(h.ID, string(r.Kind()), h.SubmitterID, string(h.Status), h.Feedback, at)
	return append([]shared.Event{resolved}, events...), nil
}

func approveVerification(s *State, r council.Request, _ ResolveRequest, _ Env) ([]shared.Event, error) {
	v := r.(*council.Verification)
	b, err := s.User.Badge(v.BadgeID)
	if err != nil {
		return nil, err
	}
	b.IsVerified = true
	return nil, nil
}

func approveProposal(s *State, r council.Request, ev ResolveRequest, env Env) ([]shared.Event, error) {
	p := r.(*council.Proposal)
	partner := ""
	if ev.AsPartnerBadge {
		if shared.IsBlank(ev.PartnerName) {
			return nil, shared.ErrMissingPartnerName
		}
		partner = ev.PartnerName
	}
	at := env.now()
	minted := badge.Mint(p.Badge, badge.MintParams{
		ID:          env.IDs.NewID("official"),
		PartnerName: partner,
		MintedAt:    at,
	})
	s.BadgesLibrary = append(s.BadgesLibrary, minted)
	return []shared.Event{shared.NewLibraryBadgeMintedEvent(minted.ID, p.ID, minted.Title, partner, at)}, nil
}

// approvePromotion assigns the target tier without re-checking prerequisites.
// The Council's approval is the authority.
func approvePromotion(s *State, r council.Request, _ ResolveRequest, env Env) ([]shared.Event, error) {
	p := r.(*council.Promotion)
	if !p.TargetTier.IsValid() {
		return nil, shared.ErrInvalidTier
	}
	from := s.User.Tier
	s.User.Tier = p.TargetTier
	return []shared.Event{shared.NewTierPromotedEvent(s.User.ID, string(from), string(p.TargetTier), env.now())}, nil
}

func approveLink(s *State, r council.Request, _ ResolveRequest, _ Env) ([]shared.Event, error) {
	l := r.(*council.LinkSuggestion)
	updated := false
	if lib, ok := s.LibraryBadge(l.BadgeID); ok {
		lib.AddLink(l.Link())
		updated = true
	}
	if owned, err := s.User.Badge(l.BadgeID); err == nil {
		owned.AddLink(l.Link())
		updated = true
	}
	if !updated {
		return nil, shared.ErrBadgeNotFound
	}
	return nil, nil
}

func statusOnly(*State, council.Request, ResolveRequest, Env) ([]shared.Event, error) {
	return nil, nil
}
