package council

import (
	"slices"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

// Verification asks the Council to confirm a mastered badge.
type Verification struct {
	Header
	BadgeID    string `json:"badgeId"`
	BadgeTitle string `json:"badgeTitle"`
}

// Proposal submits a user-authored badge for inclusion in the official library.
type Proposal struct {
	Header
	Badge   badge.Badge `json:"badge"`
	Goal    string      `json:"goal"`
	Metrics string      `json:"metrics"`
}

// Clone returns a deep copy.
func (p Proposal) Clone() Proposal {
	p.Badge = p.Badge.Clone()
	return p
}

// ActionStatement is a written account backing a milestone prerequisite.
type ActionStatement struct {
	RequirementID    string `json:"requirementId"`
	RequirementTitle string `json:"requirementTitle"`
	Intent           string `json:"intent"`
	Difficulties     string `json:"difficulties"`
	Lessons          string `json:"lessons"`
	ReferenceContact string `json:"referenceContact,omitempty"`
}

// Promotion petitions for a higher tier.
type Promotion struct {
	Header
	CurrentTier        tier.Tier         `json:"currentTier"`
	TargetTier         tier.Tier         `json:"targetTier"`
	SupportingBadgeIDs []string          `json:"supportingBadgeIds"`
	Statements         []ActionStatement `json:"statements"`
}

// Clone returns a deep copy.
func (p Promotion) Clone() Promotion {
	p.SupportingBadgeIDs = slices.Clone(p.SupportingBadgeIDs)
	p.Statements = slices.Clone(p.Statements)
	return p
}

// LinkSuggestion offers a resource link for a badge.
type LinkSuggestion struct {
	Header
	BadgeID    string `json:"badgeId"`
	BadgeTitle string `json:"badgeTitle"`
	Label      string `json:"label"`
	URL        string `json:"url"`
}

// Link returns the suggested link.
func (l LinkSuggestion) Link() badge.UsefulLink {
	return badge.UsefulLink{Label: l.Label, URL: l.URL}
}

// PartnerType classifies an outside partner.
type PartnerType string

const (
	PartnerOrganization PartnerType = "Organization"
	PartnerCreator      PartnerType = "Creator"
	PartnerInstitution  PartnerType = "Institution"
)

// IsValid checks the partner type is known.
func (p PartnerType) IsValid() bool {
	return p == PartnerOrganization || p == PartnerCreator || p == PartnerInstitution
}

// Partnership proposes a collaboration. Approval changes nothing but status.
type Partnership struct {
	Header
	PartnerName string      `json:"partnerName"`
	PartnerType PartnerType `json:"partnerType"`
	Description string      `json:"description"`
	WebsiteURL  string      `json:"websiteUrl,omitempty"`
}

// Physical requests a physical artifact of a badge. Cost is fixed at submission.
type Physical struct {
	Header
	BadgeID    string       `json:"badgeId"`
	BadgeTitle string       `json:"badgeTitle"`
	Cost       shared.Cents `json:"cost"`
}
