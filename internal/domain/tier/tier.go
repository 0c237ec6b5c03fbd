// Package tier defines the ordered membership ranks and the static map of
// prerequisites a member is expected to show before petitioning for each rank.
package tier

import (
	"slices"
	"strings"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// Tier is an ordered membership rank.
type Tier string

const (
	Member    Tier = "Member"
	Seeker    Tier = "Seeker"
	Wayfarer  Tier = "Wayfarer"
	Journeyer Tier = "Journeyer"
	Artisan   Tier = "Artisan"
	Warden    Tier = "Warden"
	Keystone  Tier = "Keystone"
)

// Ordered lists every tier from lowest to highest.
var Ordered = []Tier{Member, Seeker, Wayfarer, Journeyer, Artisan, Warden, Keystone}

// Initial is the tier every profile starts from before onboarding.
const Initial = Member

// Rank returns the position of the tier in Ordered, or -1 if unknown.
func (t Tier) Rank() int {
	return slices.Index(Ordered, t)
}

// IsValid checks the tier is known.
func (t Tier) IsValid() bool {
	return t.Rank() >= 0
}

// IsPromotable reports whether a petition can target this tier.
func (t Tier) IsPromotable() bool {
	return t.IsValid() && t != Initial
}

// Less reports whether t ranks below other.
func (t Tier) Less(other Tier) bool {
	return t.Rank() < other.Rank()
}

// Next returns the tier directly above t, if any.
func (t Tier) Next() (Tier, bool) {
	r := t.Rank()
	if r < 0 || r+1 >= len(Ordered) {
		return "", false
	}
	return Ordered[r+1], true
}

// String implements fmt.Stringer.
func (t Tier) String() string {
	return string(t)
}

// Parse matches a tier name case-insensitively.
func Parse(s string) (Tier, error) {
	for _, t := range Ordered {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", shared.ErrInvalidTier
}
