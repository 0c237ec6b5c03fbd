package guild

import (
	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/member"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

// Event is a user or Council action. The set is closed: only the types in
// this file implement it, and Reduce handles each of them.
type Event interface {
	Name() string
	guildEvent()
}

// ─────────────────────────────────────────────────────────────────────────────
// Journal
// ─────────────────────────────────────────────────────────────────────────────

// RecordEvidence attaches evidence to a requirement of an owned badge.
type RecordEvidence struct {
	BadgeID       string
	RequirementID string
	URL           *string
	Note          *string
}

// RevokeRequirement clears the evidence of a requirement of an owned badge.
type RevokeRequirement struct {
	BadgeID       string
	RequirementID string
}

// UpdateReflection replaces the free-text reflection of an owned badge.
type UpdateReflection struct {
	BadgeID string
	Text    string
}

// DownloadBadge copies a library badge into the journal.
type DownloadBadge struct {
	BadgeID string
}

// CreateBadge writes a user-authored badge into the journal.
type CreateBadge struct {
	Draft  badge.Draft
	Origin badge.Origin
}

// ToggleShowcase adds or removes a mastered badge from the showcase.
type ToggleShowcase struct {
	BadgeID string
}

// ─────────────────────────────────────────────────────────────────────────────
// Council submissions
// ─────────────────────────────────────────────────────────────────────────────

// SubmitVerification asks the Council to verify a mastered badge.
type SubmitVerification struct {
	BadgeID string
}

// SubmitProposal offers a new badge for the official library.
type SubmitProposal struct {
	Draft   badge.Draft
	Origin  badge.Origin
	Goal    string
	Metrics string
}

// SubmitPromotion petitions for a tier.
type SubmitPromotion struct {
	TargetTier         tier.Tier
	SupportingBadgeIDs []string
	Statements         []council.ActionStatement
}

// SubmitLinkSuggestion proposes a resource link for a badge.
type SubmitLinkSuggestion struct {
	BadgeID string
	Label   string
	URL     string
}

// SubmitPartnership proposes a collaboration with an outside partner.
type SubmitPartnership struct {
	PartnerName string
	PartnerType council.PartnerType
	Description string
	WebsiteURL  string
}

// SubmitPhysical requests a physical artifact of a mastered badge.
type SubmitPhysical struct {
	BadgeID string
}

// ResolveRequest records a Council decision. Kind may be empty, in which
// case every queue is searched for RequestID.
type ResolveRequest struct {
	Kind      council.Kind
	RequestID string
	Status    council.Status
	Feedback  string

	// Proposal approvals only.
	AsPartnerBadge bool
	PartnerName    string
}

// ─────────────────────────────────────────────────────────────────────────────
// Profile and colonies
// ─────────────────────────────────────────────────────────────────────────────

// UpdatePrivacy replaces storage preferences.
type UpdatePrivacy struct {
	Privacy member.Privacy
}

// SetCredentials stores freshly generated key material.
type SetCredentials struct {
	Credentials member.Credentials
}

// JoinColony affiliates the member with an approved colony.
type JoinColony struct {
	ColonyID string
}

// ProposeColony founds a colony awaiting approval.
type ProposeColony struct {
	ColonyName string
	Siege      string
	Charter    string
}

// ApproveColony charters a proposed colony.
type ApproveColony struct {
	ColonyID string
}

func (RecordEvidence) Name() string       { return "RecordEvidence" }
func (RevokeRequirement) Name() string    { return "RevokeRequirement" }
func (UpdateReflection) Name() string     { return "UpdateReflection" }
func (DownloadBadge) Name() string        { return "DownloadBadge" }
func (CreateBadge) Name() string          { return "CreateBadge" }
func (ToggleShowcase) Name() string       { return "ToggleShowcase" }
func (SubmitVerification) Name() string   { return "SubmitVerification" }
func (SubmitProposal) Name() string       { return "SubmitProposal" }
func (SubmitPromotion) Name() string      { return "SubmitPromotion" }
func (SubmitLinkSuggestion) Name() string { return "SubmitLinkSuggestion" }
func (SubmitPartnership) Name() string    { return "SubmitPartnership" }
func (SubmitPhysical) Name() string       { return "SubmitPhysical" }
func (ResolveRequest) Name() string       { return "ResolveRequest" }
func (UpdatePrivacy) Name() string        { return "UpdatePrivacy" }
func (SetCredentials) Name() string       { return "SetCredentials" }
func (JoinColony) Name() string           { return "JoinColony" }
func (ProposeColony) Name() string        { return "ProposeColony" }
func (ApproveColony) Name() string        { return "ApproveColony" }

func (RecordEvidence) guildEvent()       {}
func (RevokeRequirement) guildEvent()    {}
func (UpdateReflection) guildEvent()     {}
func (DownloadBadge) guildEvent()        {}
func (CreateBadge) guildEvent()          {}
func (ToggleShowcase) guildEvent()       {}
func (SubmitVerification) guildEvent()   {}
func (SubmitProposal) guildEvent()       {}
func (SubmitPromotion) guildEvent()      {}
func (SubmitLinkSuggestion) guildEvent() {}
func (SubmitPartnership) guildEvent()    {}
func (SubmitPhysical) guildEvent()       {}
func (ResolveRequest) guildEvent()       {}
func (UpdatePrivacy) guildEvent()        {}
func (SetCredentials) guildEvent()       {}
func (JoinColony) guildEvent()           {}
func (ProposeColony) guildEvent()        {}
func (ApproveColony) guildEvent()        {}
