// Package badge contains the badge and requirement model: how evidence
// satisfies a checklist item, how items aggregate into mastery, and the
// three ways a badge comes into existence.
package badge

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Domain is a topical category tag.
type Domain string

const (
	DomainSkill       Domain = "Skill"
	DomainService     Domain = "Service"
	DomainKnowledge   Domain = "Knowledge"
	DomainEthics      Domain = "Ethics"
	DomainSociety     Domain = "Society"
	DomainEnvironment Domain = "Environment"
	DomainIdeology    Domain = "Ideology"
)

// Domains lists every domain in display order.
var Domains = []Domain{
	DomainSkill, DomainService, DomainKnowledge, DomainEthics,
	DomainSociety, DomainEnvironment, DomainIdeology,
}

// IsValid checks the domain is known.
func (d Domain) IsValid() bool {
	return slices.Contains(Domains, d)
}

// ParseDomain matches a domain name case-insensitively.
func ParseDomain(s string) (Domain, bool) {
	for _, d := range Domains {
		if strings.EqualFold(string(d), strings.TrimSpace(s)) {
			return d, true
		}
	}
	return "", false
}

// Difficulty is a 1–5 rating.
type Difficulty int

const (
	MinDifficulty     Difficulty = 1
	MaxDifficulty     Difficulty = 5
	DefaultDifficulty Difficulty = 3
)

// IsValid checks the rating is in range.
func (d Difficulty) IsValid() bool {
	return d >= MinDifficulty && d <= MaxDifficulty
}

// MaxSecondaryDomains bounds the secondary tag list.
const MaxSecondaryDomains = 2

// State is the derived progress of a badge.
type State string

const (
	StateInProgress State = "inProgress"
	StateMastered   State = "mastered"
)

// Origin records how a badge entered a journal.
type Origin string

const (
	OriginLibrary Origin = "library"
	OriginManual  Origin = "manual"
	OriginOracle  Origin = "oracle"
)

// IsValid checks the origin is known.
func (o Origin) IsValid() bool {
	return o == OriginLibrary || o == OriginManual || o == OriginOracle
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE
// ══════════════════════════════════════════════════════════════════════════════

// UsefulLink is a community-contributed resource attached to a badge.
type UsefulLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Badge is a unit of mastery.
type Badge struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Domain           Domain        `json:"domain"`
	SecondaryDomains []Domain      `json:"secondaryDomains,omitempty"`
	Difficulty       Difficulty    `json:"difficulty"`
	Requirements     []Requirement `json:"requirements"`
	Reflections      string        `json:"reflections"`
	IsVerified       bool          `json:"isVerified"`
	IsUserCreated    bool          `json:"isUserCreated"`
	CreatorID        string        `json:"creatorId,omitempty"`
	IsPartnership    bool          `json:"isPartnership,omitempty"`
	PartnerName      string        `json:"partnerName,omitempty"`
	UsefulLinks      []UsefulLink  `json:"usefulLinks,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// DeriveState returns inProgress if any requirement is incomplete, else mastered.
func DeriveState(b Badge) State {
	for _, r := range b.Requirements {
		if !r.IsCompleted() {
			return StateInProgress
		}
	}
	return StateMastered
}

// IsMastered reports whether every requirement is complete. An empty list is mastered.
func (b Badge) IsMastered() bool {
	return DeriveState(b) == StateMastered
}

// Progress returns completed and total requirement counts.
func (b Badge) Progress() (completed, total int) {
	for _, r := range b.Requirements {
		if r.IsCompleted() {
			completed++
		}
	}
	return completed, len(b.Requirements)
}

// Requirement returns a pointer to the requirement with the given id.
func (b *Badge) Requirement(id string) (*Requirement, error) {
	for i := range b.Requirements {
		if b.Requirements[i].ID == id {
			return &b.Requirements[i], nil
		}
	}
	return nil, shared.WrapError("badge", "FindRequirement", shared.ErrNotFound,
		fmt.Sprintf("requirement %q not found on badge %q", id, b.ID), nil)
}

// AddLink appends a resource link.
func (b *Badge) AddLink(link UsefulLink) {
	b.UsefulLinks = append(b.UsefulLinks, link)
}

// Clone returns a deep copy.
func (b Badge) Clone() Badge {
	b.SecondaryDomains = slices.Clone(b.SecondaryDomains)
	b.Requirements = slices.Clone(b.Requirements)
	b.UsefulLinks = slices.Clone(b.UsefulLinks)
	return b
}

// CopyForJournal returns the instance a user receives when downloading a
// library badge: same id, no evidence, no reflections, verification reset.
func (b Badge) CopyForJournal() Badge {
	c := b.Clone()
	for i := range c.Requirements {
		c.Requirements[i].Revoke()
	}
	c.Reflections = ""
	c.IsVerified = false
	return c
}

// MintParams configures an official library badge minted from an approved proposal.
type MintParams struct {
	ID          string
	PartnerName string // empty means no partnership stamp
	MintedAt    time.Time
}

// Mint clones a proposed draft into an official library entry.
func Mint(draft Badge, p MintParams) Badge {
	m := draft.Clone()
	m.ID = p.ID
	m.IsVerified = true
	m.IsUserCreated = false
	m.Reflections = ""
	m.CreatedAt = p.MintedAt
	for i := range m.Requirements {
		m.Requirements[i].Revoke()
	}
	if p.PartnerName != "" {
		m.IsPartnership = true
		m.PartnerName = p.PartnerName
	}
	return m
}
