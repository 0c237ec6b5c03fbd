// Package member holds the user profile: owned badge copies, showcase,
// tier, colony affiliation, and the free physical artifact ledger.
package member

import (
	"fmt"
	"slices"
	"time"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

// StorageLocation is where a member prefers their journal to live.
type StorageLocation string

const (
	StorageLocal         StorageLocation = "local"
	StoragePersonalCloud StorageLocation = "personal_cloud"
	StorageGuildSync     StorageLocation = "guild_sync"
)

// IsValid checks the location is known.
func (s StorageLocation) IsValid() bool {
	return s == StorageLocal || s == StoragePersonalCloud || s == StorageGuildSync
}

// Privacy holds storage preferences. The engine does not interpret them.
type Privacy struct {
	StorageLocation StorageLocation `json:"storageLocation"`
	IsEncrypted     bool            `json:"isEncrypted"`
	AutoSync        bool            `json:"autoSync"`
}

// DefaultPrivacy keeps everything on the device.
func DefaultPrivacy() Privacy {
	return Privacy{StorageLocation: StorageLocal, IsEncrypted: true}
}

// Credentials is the member's sovereign key material. Only a hash of the
// private key is kept.
type Credentials struct {
	PublicKey      string    `json:"publicKey"`
	PrivateKeyHash string    `json:"privateKeyHash"`
	LastBackup     time.Time `json:"lastBackup"`
}

// Profile is the single user a guild state belongs to.
type Profile struct {
	ID                          string        `json:"id"`
	Name                        string        `json:"name"`
	Email                       string        `json:"email,omitempty"`
	Tier                        tier.Tier     `json:"tier"`
	Badges                      []badge.Badge `json:"badges"`
	ShowcasedBadgeIDs           []string      `json:"showcasedBadgeIds"`
	ColonyID                    string        `json:"colonyId,omitempty"`
	IsScholarshipRecipient      bool          `json:"isScholarshipRecipient"`
	PrefPhysicalBadge           bool          `json:"prefPhysicalBadge"`
	MentorshipCount             int           `json:"mentorshipCount"`
	ServiceMilestones           int           `json:"serviceMilestones"`
	CouncilRole                 bool          `json:"councilRole,omitempty"`
	ClaimedFreePhysicalBadgeIDs []string      `json:"claimedFreePhysicalBadgeIds"`
	Privacy                     Privacy       `json:"privacy"`
	Security                    *Credentials  `json:"security,omitempty"`
}

// New creates a fresh profile at the given tier.
func New(id, name, email string, t tier.Tier) (Profile, error) {
	if id == "" {
		return Profile{}, shared.NewDomainError("member", "New", shared.ErrInvalidID, "user id is required")
	}
	if !t.IsValid() {
		return Profile{}, shared.ErrInvalidTier
	}
	return Profile{
		ID:                          id,
		Name:                        name,
		Email:                       email,
		Tier:                        t,
		Badges:                      []badge.Badge{},
		ShowcasedBadgeIDs:           []string{},
		ClaimedFreePhysicalBadgeIDs: []string{},
		Privacy:                     DefaultPrivacy(),
	}, nil
}

// IsCouncil reports whether the member may act for the Council. Keystones
// always can; anyone else needs the role flag.
func (p Profile) IsCouncil() bool {
	return p.CouncilRole || p.Tier == tier.Keystone
}

// Badge returns the owned copy with the given id.
func (p *Profile) Badge(id string) (*badge.Badge, error) {
	for i := range p.Badges {
		if p.Badges[i].ID == id {
			return &p.Badges[i], nil
		}
	}
	return nil, shared.WrapError("member", "FindBadge", shared.ErrNotFound,
		fmt.Sprintf("badge %q is not in the journal", id), nil)
}

// Owns reports whether a badge with the id is in the journal.
func (p Profile) Owns(id string) bool {
	return slices.ContainsFunc(p.Badges, func(b badge.Badge) bool { return b.ID == id })
}

// AddBadge puts a badge into the journal. Ids are unique per journal.
func (p *Profile) AddBadge(b badge.Badge) error {
	if p.Owns(b.ID) {
		return shared.WrapError("member", "AddBadge", shared.ErrAlreadyExists,
			fmt.Sprintf("badge %q already in journal", b.ID), nil)
	}
	p.Badges = append(p.Badges, b)
	return nil
}

// MasteredBadges returns the owned badges whose every requirement is complete.
func (p Profile) MasteredBadges() []badge.Badge {
	out := make([]badge.Badge, 0, len(p.Badges))
	for _, b := range p.Badges {
		if b.IsMastered() {
			out = append(out, b)
		}
	}
	return out
}

// ToggleShowcase adds or removes a badge from the showcase. Only mastered
// owned badges can be added. Returns whether the badge is now showcased.
func (p *Profile) ToggleShowcase(id string) (bool, error) {
	if i := slices.Index(p.ShowcasedBadgeIDs, id); i >= 0 {
		p.ShowcasedBadgeIDs = slices.Delete(p.ShowcasedBadgeIDs, i, i+1)
		return false, nil
	}
	b, err := p.Badge(id)
	if err != nil {
		return false, err
	}
	if !b.IsMastered() {
		return false, shared.ErrShowcaseNotMastered
	}
	p.ShowcasedBadgeIDs = append(p.ShowcasedBadgeIDs, id)
	return true, nil
}

// PruneShowcase drops showcased ids that are no longer owned and mastered.
// Returns the removed ids.
func (p *Profile) PruneShowcase() []string {
	var removed []string
	kept := p.ShowcasedBadgeIDs[:0:0]
	for _, id := range p.ShowcasedBadgeIDs {
		b, err := p.Badge(id)
		if err != nil || !b.IsMastered() {
			removed = append(removed, id)
			continue
		}
		kept = append(kept, id)
	}
	p.ShowcasedBadgeIDs = kept
	return removed
}

// HasClaimedFree reports whether the free artifact for a badge was used.
func (p Profile) HasClaimedFree(badgeID string) bool {
	return slices.Contains(p.ClaimedFreePhysicalBadgeIDs, badgeID)
}

// MarkFreeClaimed records the free artifact for a badge. Idempotent.
func (p *Profile) MarkFreeClaimed(badgeID string) {
	if !p.HasClaimedFree(badgeID) {
		p.ClaimedFreePhysicalBadgeIDs = append(p.ClaimedFreePhysicalBadgeIDs, badgeID)
	}
}

// UpdatePrivacy replaces the storage preferences.
func (p *Profile) UpdatePrivacy(pr Privacy) error {
	if !pr.StorageLocation.IsValid() {
		return shared.ErrInvalidStorage
	}
	p.Privacy = pr
	return nil
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	badges := make([]badge.Badge, len(p.Badges))
	for i, b := range p.Badges {
		badges[i] = b.Clone()
	}
	p.Badges = badges
	p.ShowcasedBadgeIDs = slices.Clone(p.ShowcasedBadgeIDs)
	p.ClaimedFreePhysicalBadgeIDs = slices.Clone(p.ClaimedFreePhysicalBadgeIDs)
	if p.Security != nil {
		sec := *p.Security
		p.Security = &sec
	}
	return p
}
