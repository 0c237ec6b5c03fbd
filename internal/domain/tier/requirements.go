package tier

import (
	"fmt"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// ItemKind distinguishes the two sorts of tier prerequisite.
type ItemKind string

const (
	// ItemKeystone names a badge that must be owned and mastered.
	ItemKeystone ItemKind = "keystone"
	// ItemMilestone is a free-form condition judged by the Council.
	ItemMilestone ItemKind = "milestone"
)

// Item is one prerequisite for a tier.
type Item struct {
	ID          string   `yaml:"id" json:"id"`
	Kind        ItemKind `yaml:"kind" json:"kind"`
	Description string   `yaml:"description" json:"description"`

	// BadgeID identifies the keystone badge. Keystone items only.
	BadgeID string `yaml:"badge_id,omitempty" json:"badgeId,omitempty"`

	// NeedsStatement asks the petitioner to write an action statement. Milestones only.
	NeedsStatement bool `yaml:"needs_statement,omitempty" json:"needsStatement,omitempty"`

	// Optional machine-checkable hints for milestones. Zero means not checked.
	MinMastered int `yaml:"min_mastered,omitempty" json:"minMastered,omitempty"`
	MinDomains  int `yaml:"min_domains,omitempty" json:"minDomains,omitempty"`
}

// Validate checks the item is well formed.
func (i Item) Validate() error {
	if i.ID == "" {
		return shared.NewDomainError("tier", "ValidateItem", shared.ErrInvalidID, "item id is required")
	}
	switch i.Kind {
	case ItemKeystone:
		if i.BadgeID == "" {
			return shared.NewDomainError("tier", "ValidateItem", shared.ErrEmptyValue,
				fmt.Sprintf("keystone item %q has no badge id", i.ID))
		}
	case ItemMilestone:
	default:
		return shared.NewDomainError("tier", "ValidateItem", shared.ErrInvalidInput,
			fmt.Sprintf("item %q has unknown kind %q", i.ID, i.Kind))
	}
	return nil
}

// RequirementMap is the static prerequisite table, keyed by target tier.
type RequirementMap map[Tier][]Item

// For returns the prerequisite list for a target tier. The initial tier has none.
func (m RequirementMap) For(target Tier) ([]Item, error) {
	if !target.IsValid() {
		return nil, shared.ErrInvalidTier
	}
	return m[target], nil
}

// Validate checks every key is a promotable tier and every item is well formed
// with ids unique per tier.
func (m RequirementMap) Validate() error {
	for t, items := range m {
		if !t.IsPromotable() {
			return shared.WrapError("tier", "ValidateMap", shared.ErrInvalidInput,
				fmt.Sprintf("tier %q cannot carry prerequisites", t), nil)
		}
		seen := make(map[string]bool, len(items))
		for _, it := range items {
			if err := it.Validate(); err != nil {
				return err
			}
			if seen[it.ID] {
				return shared.NewDomainError("tier", "ValidateMap", shared.ErrAlreadyExists,
					fmt.Sprintf("duplicate item %q for tier %q", it.ID, t))
			}
			seen[it.ID] = true
		}
	}
	return nil
}
