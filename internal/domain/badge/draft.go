package badge

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// Placeholder values used when a draft arrives without them.
const (
	UntitledBadge     = "Untitled Badge"
	PlaceholderPrompt = "Describe what mastering this badge means to you."
)

// RequirementDraft is an authored checklist item. Nil flags default to true.
type RequirementDraft struct {
	ID                string `json:"id,omitempty"`
	Description       string `json:"description"`
	RequireAttachment *bool  `json:"requireAttachment,omitempty"`
	RequireNote       *bool  `json:"requireNote,omitempty"`
}

// Draft holds badge fields before they become a Badge, whether typed in by
// hand or returned by the drafting collaborator.
type Draft struct {
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Domain           Domain             `json:"domain"`
	SecondaryDomains []Domain           `json:"secondaryDomains,omitempty"`
	Difficulty       Difficulty         `json:"difficulty"`
	Requirements     []RequirementDraft `json:"requirements"`
}

// PlaceholderDraft is substituted when the drafting collaborator fails.
func PlaceholderDraft(topic string) Draft {
	title := strings.TrimSpace(topic)
	if title == "" {
		title = UntitledBadge
	}
	return Draft{
		Title:       title,
		Description: PlaceholderPrompt,
		Domain:      DomainSkill,
		Difficulty:  DefaultDifficulty,
	}
}

// DraftFromTexts builds a draft from plain requirement strings.
func DraftFromTexts(title, description string, domain Domain, secondary []Domain, difficulty Difficulty, reqs []string) Draft {
	d := Draft{
		Title:            title,
		Description:      description,
		Domain:           domain,
		SecondaryDomains: secondary,
		Difficulty:       difficulty,
	}
	for _, text := range reqs {
		d.Requirements = append(d.Requirements, RequirementDraft{Description: text})
	}
	return d
}

// Normalize substitutes sane defaults for anything missing or out of range.
// It never fails.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		d.Title = UntitledBadge
	}
	if !d.Domain.IsValid() {
		if parsed, ok := ParseDomain(string(d.Domain)); ok {
			d.Domain = parsed
		} else {
			d.Domain = DomainSkill
		}
	}
	if !d.Difficulty.IsValid() {
		d.Difficulty = DefaultDifficulty
	}
	d.SecondaryDomains = normalizeSecondary(d.Domain, d.SecondaryDomains)

	reqs := make([]RequirementDraft, 0, len(d.Requirements))
	for _, r := range d.Requirements {
		r.Description = strings.TrimSpace(r.Description)
		if r.Description == "" {
			continue
		}
		reqs = append(reqs, r)
	}
	d.Requirements = reqs
	return d
}

// Validate checks a hand-authored draft strictly.
func (d Draft) Validate() error {
	if shared.IsBlank(d.Title) {
		return shared.ErrEmptyBadgeTitle
	}
	if !d.Domain.IsValid() {
		return shared.ErrInvalidDomain
	}
	if !d.Difficulty.IsValid() {
		return shared.ErrInvalidDifficulty
	}
	if len(d.SecondaryDomains) > MaxSecondaryDomains {
		return shared.NewDomainError("badge", "Validate", shared.ErrValueOutOfRange,
			fmt.Sprintf("at most %d secondary domains", MaxSecondaryDomains))
	}
	for _, s := range d.SecondaryDomains {
		if !s.IsValid() {
			return shared.ErrInvalidDomain
		}
	}
	seen := make(map[string]bool, len(d.Requirements))
	for _, r := range d.Requirements {
		if shared.IsBlank(r.Description) {
			return shared.NewDomainError("badge", "Validate", shared.ErrEmptyValue, "requirement description cannot be empty")
		}
		if r.ID == "" {
			continue
		}
		if seen[r.ID] {
			return shared.ErrDuplicateRequirements
		}
		seen[r.ID] = true
	}
	return nil
}

// NewParams identifies a badge being written into a journal.
type NewParams struct {
	ID        string
	CreatorID string
	Origin    Origin
	CreatedAt time.Time
}

// New builds a user-created badge from a draft. Manual drafts are validated
// strictly; oracle drafts are normalized first and so never fail.
func New(d Draft, p NewParams) (Badge, error) {
	if p.Origin == OriginOracle {
		d = d.Normalize()
	}
	if err := d.Validate(); err != nil {
		return Badge{}, err
	}
	if p.ID == "" {
		return Badge{}, shared.NewDomainError("badge", "New", shared.ErrInvalidID, "badge id is required")
	}

	b := Badge{
		ID:               p.ID,
		Title:            strings.TrimSpace(d.Title),
		Description:      d.Description,
		Domain:           d.Domain,
		SecondaryDomains: normalizeSecondary(d.Domain, d.SecondaryDomains),
		Difficulty:       d.Difficulty,
		Requirements:     make([]Requirement, 0, len(d.Requirements)),
		IsVerified:       false,
		IsUserCreated:    true,
		CreatorID:        p.CreatorID,
		CreatedAt:        p.CreatedAt,
	}
	// Generated ids skip any the author already chose.
	taken := make(map[string]bool, len(d.Requirements))
	for _, r := range d.Requirements {
		if r.ID != "" {
			taken[r.ID] = true
		}
	}
	next := 0
	for _, r := range d.Requirements {
		id := r.ID
		if id == "" {
			for {
				next++
				id = fmt.Sprintf("req-%d", next)
				if !taken[id] {
					break
				}
			}
			taken[id] = true
		}
		b.Requirements = append(b.Requirements, NewRequirement(id, strings.TrimSpace(r.Description),
			flagOrTrue(r.RequireAttachment), flagOrTrue(r.RequireNote)))
	}
	if err := uniqueRequirementIDs(b.Requirements); err != nil {
		return Badge{}, err
	}
	return b, nil
}

func flagOrTrue(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

func normalizeSecondary(primary Domain, in []Domain) []Domain {
	out := make([]Domain, 0, MaxSecondaryDomains)
	for _, d := range in {
		if !d.IsValid() {
			parsed, ok := ParseDomain(string(d))
			if !ok {
				continue
			}
			d = parsed
		}
		if d == primary || slices.Contains(out, d) {
			continue
		}
		out = append(out, d)
		if len(out) == MaxSecondaryDomains {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func uniqueRequirementIDs(reqs []Requirement) error {
	seen := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		if seen[r.ID] {
			return shared.ErrDuplicateRequirements
		}
		seen[r.ID] = true
	}
	return nil
}
