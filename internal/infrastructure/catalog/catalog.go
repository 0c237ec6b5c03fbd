// Package catalog loads the guild's seed content: the tier prerequisite map,
// the official badge library and the founding colonies. Built-in content is
// embedded; a directory with the same file names overrides it.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/colony"
	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/member"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

const (
	tiersFile   = "tiers.yaml"
	libraryFile = "library.yaml"
)

//go:embed content/*.yaml
var builtin embed.FS

// Catalog is the parsed seed content.
type Catalog struct {
	Tiers       tier.RequirementMap
	Library     []badge.Badge
	Colonies    []colony.Colony
	AccessFund  shared.Cents
	InitialTier tier.Tier
}

// Load returns the embedded catalog.
func Load() (*Catalog, error) {
	sub, err := fs.Sub(builtin, "content")
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return LoadFS(sub)
}

// LoadDir reads tiers.yaml and library.yaml from dir. A file missing from
// dir falls back to the embedded one.
func LoadDir(dir string) (*Catalog, error) {
	sub, err := fs.Sub(builtin, "content")
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	read := func(name string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return fs.ReadFile(sub, name)
		}
		return data, err
	}

	tiers, err := read(tiersFile)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", tiersFile, err)
	}
	library, err := read(libraryFile)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", libraryFile, err)
	}
	return Parse(tiers, library)
}

// LoadFS reads the two catalog files from fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	tiers, err := fs.ReadFile(fsys, tiersFile)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", tiersFile, err)
	}
	library, err := fs.ReadFile(fsys, libraryFile)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", libraryFile, err)
	}
	return Parse(tiers, library)
}

// ─────────────────────────────────────────────────────────────────────────────
// YAML shapes
// ─────────────────────────────────────────────────────────────────────────────

type libraryDoc struct {
	InitialTier     string      `yaml:"initial_tier"`
	AccessFundCents int64       `yaml:"access_fund_cents"`
	CreatedAt       time.Time   `yaml:"created_at"`
	Badges          []badgeDoc  `yaml:"badges"`
	Colonies        []colonyDoc `yaml:"colonies"`
}

type badgeDoc struct {
	ID               string           `yaml:"id"`
	Title            string           `yaml:"title"`
	Description      string           `yaml:"description"`
	Domain           string           `yaml:"domain"`
	SecondaryDomains []string         `yaml:"secondary_domains"`
	Difficulty       int              `yaml:"difficulty"`
	PartnerName      string           `yaml:"partner_name"`
	Requirements     []requirementDoc `yaml:"requirements"`
	Links            []linkDoc        `yaml:"links"`
}

type requirementDoc struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	// Both default to true when omitted.
	RequireAttachment *bool `yaml:"require_attachment"`
	RequireNote       *bool `yaml:"require_note"`
}

type linkDoc struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type colonyDoc struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Number       int    `yaml:"number"`
	Siege        string `yaml:"siege"`
	Charter      string `yaml:"charter"`
	MembersCount int    `yaml:"members_count"`
	Approved     bool   `yaml:"approved"`
}

// Parse builds a Catalog from raw tiers and library documents.
func Parse(tiersYAML, libraryYAML []byte) (*Catalog, error) {
	var tiers tier.RequirementMap
	if err := yaml.Unmarshal(tiersYAML, &tiers); err != nil {
		return nil, fmt.Errorf("catalog: parsing %s: %w", tiersFile, err)
	}
	if err := tiers.Validate(); err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", tiersFile, err)
	}

	var doc libraryDoc
	if err := yaml.Unmarshal(libraryYAML, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parsing %s: %w", libraryFile, err)
	}

	initial := tier.Initial
	if doc.InitialTier != "" {
		t, err := tier.Parse(doc.InitialTier)
		if err != nil {
			return nil, fmt.Errorf("catalog: initial_tier %q: %w", doc.InitialTier, err)
		}
		initial = t
	}

	library := make([]badge.Badge, 0, len(doc.Badges))
	seen := make(map[string]bool, len(doc.Badges))
	for _, bd := range doc.Badges {
		b, err := bd.toBadge(doc.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("catalog: badge %q: %w", bd.ID, err)
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("catalog: duplicate badge %q: %w", b.ID, shared.ErrAlreadyExists)
		}
		seen[b.ID] = true
		library = append(library, b)
	}

	for t, items := range tiers {
		for _, it := range items {
			if it.Kind == tier.ItemKeystone && !seen[it.BadgeID] {
				return nil, fmt.Errorf("catalog: %s keystone %q names unknown badge %q: %w",
					t, it.ID, it.BadgeID, shared.ErrNotFound)
			}
		}
	}

	colonies := make([]colony.Colony, 0, len(doc.Colonies))
	for _, cd := range doc.Colonies {
		if cd.ID == "" || cd.Name == "" {
			return nil, fmt.Errorf("catalog: colony %q: id and name are required: %w", cd.ID, shared.ErrValidation)
		}
		colonies = append(colonies, colony.Colony{
			ID:           cd.ID,
			Name:         cd.Name,
			Number:       cd.Number,
			Siege:        cd.Siege,
			Charter:      cd.Charter,
			MembersCount: cd.MembersCount,
			IsApproved:   cd.Approved,
			Notices:      []colony.Notice{},
			Events:       []colony.Gathering{},
		})
	}

	return &Catalog{
		Tiers:       tiers,
		Library:     library,
		Colonies:    colonies,
		AccessFund:  shared.Cents(doc.AccessFundCents),
		InitialTier: initial,
	}, nil
}

func (d badgeDoc) toBadge(createdAt time.Time) (badge.Badge, error) {
	if d.ID == "" || d.Title == "" {
		return badge.Badge{}, fmt.Errorf("id and title are required: %w", shared.ErrValidation)
	}
	domain, ok := badge.ParseDomain(d.Domain)
	if !ok {
		return badge.Badge{}, fmt.Errorf("unknown domain %q: %w", d.Domain, shared.ErrValidation)
	}
	difficulty := badge.Difficulty(d.Difficulty)
	if d.Difficulty == 0 {
		difficulty = badge.DefaultDifficulty
	}
	if !difficulty.IsValid() {
		return badge.Badge{}, fmt.Errorf("difficulty %d out of range: %w", d.Difficulty, shared.ErrValidation)
	}

	var secondary []badge.Domain
	for _, s := range d.SecondaryDomains {
		sd, ok := badge.ParseDomain(s)
		if !ok {
			return badge.Badge{}, fmt.Errorf("unknown secondary domain %q: %w", s, shared.ErrValidation)
		}
		secondary = append(secondary, sd)
	}
	if len(secondary) > badge.MaxSecondaryDomains {
		secondary = secondary[:badge.MaxSecondaryDomains]
	}

	reqs := make([]badge.Requirement, 0, len(d.Requirements))
	for _, r := range d.Requirements {
		if r.ID == "" {
			return badge.Badge{}, fmt.Errorf("requirement without id: %w", shared.ErrValidation)
		}
		reqs = append(reqs, badge.NewRequirement(r.ID, r.Description, boolOr(r.RequireAttachment, true), boolOr(r.RequireNote, true)))
	}

	var links []badge.UsefulLink
	for _, l := range d.Links {
		links = append(links, badge.UsefulLink{Label: l.Label, URL: l.URL})
	}

	return badge.Badge{
		ID:               d.ID,
		Title:            d.Title,
		Description:      d.Description,
		Domain:           domain,
		SecondaryDomains: secondary,
		Difficulty:       difficulty,
		Requirements:     reqs,
		IsVerified:       true,
		IsPartnership:    d.PartnerName != "",
		PartnerName:      d.PartnerName,
		UsefulLinks:      links,
		CreatedAt:        createdAt,
	}, nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// Seed builds the first State for a member who has no snapshot yet.
func (c *Catalog) Seed(userID, name, email string) (guild.State, error) {
	user, err := member.New(userID, name, email, c.InitialTier)
	if err != nil {
		return guild.State{}, fmt.Errorf("catalog: seed: %w", err)
	}
	library := make([]badge.Badge, len(c.Library))
	for i, b := range c.Library {
		library[i] = b.Clone()
	}
	colonies := make([]colony.Colony, len(c.Colonies))
	for i, col := range c.Colonies {
		colonies[i] = col.Clone()
	}
	return guild.NewState(user, library, colonies, c.AccessFund), nil
}
