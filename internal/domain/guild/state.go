// Package guild is the workflow engine. State is the whole persisted tree
// for one member; Reduce maps a State and one Event to the next State and
// the domain events describing what changed.
package guild

import (
	"slices"
	"sort"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/colony"
	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/member"
	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// SchemaVersion is written into every snapshot.
const SchemaVersion = 1

// State is the snapshot tree. Field names follow the persisted layout.
type State struct {
	SchemaVersion     int             `json:"schemaVersion"`
	User              member.Profile  `json:"user"`
	BadgesLibrary     []badge.Badge   `json:"badgesLibrary"`
	Colonies          []colony.Colony `json:"colonies"`
	AccessFundBalance shared.Cents    `json:"accessFundBalance"`

	VerificationRequests  []council.Verification   `json:"verificationRequests"`
	BadgeProposals        []council.Proposal       `json:"badgeProposals"`
	PromotionRequests     []council.Promotion      `json:"promotionRequests"`
	LinkSuggestions       []council.LinkSuggestion `json:"linkSuggestions"`
	PartnershipRequests   []council.Partnership    `json:"partnershipRequests"`
	PhysicalBadgeRequests []council.Physical       `json:"physicalBadgeRequests"`
}

// NewState assembles an initial state from seed content.
func NewState(user member.Profile, library []badge.Badge, colonies []colony.Colony, fund shared.Cents) State {
	s := State{
		SchemaVersion:     SchemaVersion,
		User:              user,
		BadgesLibrary:     library,
		Colonies:          colonies,
		AccessFundBalance: fund,
	}
	s.normalize()
	return s.Clone()
}

// normalize replaces nil collections with empty ones so snapshots always
// carry every array.
func (s *State) normalize() {
	if s.BadgesLibrary == nil {
		s.BadgesLibrary = []badge.Badge{}
	}
	if s.Colonies == nil {
		s.Colonies = []colony.Colony{}
	}
	if s.User.Badges == nil {
		s.User.Badges = []badge.Badge{}
	}
	if s.User.ShowcasedBadgeIDs == nil {
		s.User.ShowcasedBadgeIDs = []string{}
	}
	if s.User.ClaimedFreePhysicalBadgeIDs == nil {
		s.User.ClaimedFreePhysicalBadgeIDs = []string{}
	}
	if s.VerificationRequests == nil {
		s.VerificationRequests = []council.Verification{}
	}
	if s.BadgeProposals == nil {
		s.BadgeProposals = []council.Proposal{}
	}
	if s.PromotionRequests == nil {
		s.PromotionRequests = []council.Promotion{}
	}
	if s.LinkSuggestions == nil {
		s.LinkSuggestions = []council.LinkSuggestion{}
	}
	if s.PartnershipRequests == nil {
		s.PartnershipRequests = []council.Partnership{}
	}
	if s.PhysicalBadgeRequests == nil {
		s.PhysicalBadgeRequests = []council.Physical{}
	}
}

// Clone returns a deep copy. Reduce works on clones only.
func (s State) Clone() State {
	s.User = s.User.Clone()

	lib := make([]badge.Badge, len(s.BadgesLibrary))
	for i, b := range s.BadgesLibrary {
		lib[i] = b.Clone()
	}
	s.BadgesLibrary = lib

	cols := make([]colony.Colony, len(s.Colonies))
	for i, c := range s.Colonies {
		cols[i] = c.Clone()
	}
	s.Colonies = cols

	props := make([]council.Proposal, len(s.BadgeProposals))
	for i, p := range s.BadgeProposals {
		props[i] = p.Clone()
	}
	s.BadgeProposals = props

	promos := make([]council.Promotion, len(s.PromotionRequests))
	for i, p := range s.PromotionRequests {
		promos[i] = p.Clone()
	}
	s.PromotionRequests = promos

	s.VerificationRequests = cloneHeaders(s.VerificationRequests)
	s.LinkSuggestions = cloneHeaders(s.LinkSuggestions)
	s.PartnershipRequests = cloneHeaders(s.PartnershipRequests)
	s.PhysicalBadgeRequests = cloneHeaders(s.PhysicalBadgeRequests)
	return s
}

// cloneHeaders copies a request slice and detaches each ResolvedAt pointer.
func cloneHeaders[T any, P interface {
	*T
	Head() *council.Header
}](in []T) []T {
	out := slices.Clone(in)
	if out == nil {
		out = []T{}
	}
	for i := range out {
		h := P(&out[i]).Head()
		if h.ResolvedAt != nil {
			at := *h.ResolvedAt
			h.ResolvedAt = &at
		}
	}
	return out
}

// LibraryBadge returns the library entry with the given id.
func (s *State) LibraryBadge(id string) (*badge.Badge, bool) {
	for i := range s.BadgesLibrary {
		if s.BadgesLibrary[i].ID == id {
			return &s.BadgesLibrary[i], true
		}
	}
	return nil, false
}

// Colony returns the colony with the given id.
func (s *State) Colony(id string) (*colony.Colony, bool) {
	for i := range s.Colonies {
		if s.Colonies[i].ID == id {
			return &s.Colonies[i], true
		}
	}
	return nil, false
}

// Requests returns every request, optionally filtered to one kind. The
// returned values point into s.
func (s *State) Requests(kind council.Kind) []council.Request {
	var out []council.Request
	if kind == "" || kind == council.KindVerification {
		for i := range s.VerificationRequests {
			out = append(out, &s.VerificationRequests[i])
		}
	}
	if kind == "" || kind == council.KindProposal {
		for i := range s.BadgeProposals {
			out = append(out, &s.BadgeProposals[i])
		}
	}
	if kind == "" || kind == council.KindPromotion {
		for i := range s.PromotionRequests {
			out = append(out, &s.PromotionRequests[i])
		}
	}
	if kind == "" || kind == council.KindLink {
		for i := range s.LinkSuggestions {
			out = append(out, &s.LinkSuggestions[i])
		}
	}
	if kind == "" || kind == council.KindPartnership {
		for i := range s.PartnershipRequests {
			out = append(out, &s.PartnershipRequests[i])
		}
	}
	if kind == "" || kind == council.KindPhysical {
		for i := range s.PhysicalBadgeRequests {
			out = append(out, &s.PhysicalBadgeRequests[i])
		}
	}
	return out
}

// FindRequest locates a request by id. An empty kind searches every queue.
func (s *State) FindRequest(kind council.Kind, id string) (council.Request, bool) {
	for _, r := range s.Requests(kind) {
		if r.Head().ID == id {
			return r, true
		}
	}
	return nil, false
}

// PendingRequests returns every pending request, oldest first.
func (s *State) PendingRequests() []council.Request {
	var out []council.Request
	for _, r := range s.Requests("") {
		if r.Head().IsPending() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Head().SubmittedAt.Before(out[j].Head().SubmittedAt)
	})
	return out
}
