package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

func TestLoad_Builtin(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, tier.Seeker, c.InitialTier)
	assert.Equal(t, shared.Cents(124050), c.AccessFund)

	require.Len(t, c.Library, 3)
	titles := []string{c.Library[0].Title, c.Library[1].Title, c.Library[2].Title}
	assert.Equal(t, []string{"Forest Stewardship", "Community Architect", "The Socratic Path"}, titles)
	for _, b := range c.Library {
		assert.True(t, b.IsVerified, b.ID)
		assert.Len(t, b.Requirements, 8, b.ID)
		assert.Equal(t, badge.StateInProgress, badge.DeriveState(b), b.ID)
		for _, r := range b.Requirements {
			assert.True(t, r.RequiresAttachment())
			assert.True(t, r.RequiresNote())
			assert.False(t, r.IsCompleted())
		}
	}
	assert.Equal(t, badge.DomainEnvironment, c.Library[0].Domain)
	assert.Equal(t, badge.Difficulty(5), c.Library[2].Difficulty)

	require.Len(t, c.Colonies, 2)
	assert.Equal(t, "Portland Colony", c.Colonies[0].Name)
	assert.Equal(t, 101, c.Colonies[0].Number)
	assert.Equal(t, "The Virtual Siege", c.Colonies[1].Siege)
	assert.Equal(t, 128, c.Colonies[1].MembersCount)
	assert.True(t, c.Colonies[1].IsApproved)

	items, err := c.Tiers.For(tier.Wayfarer)
	require.NoError(t, err)
	assert.NotEmpty(t, items)
}

func TestSeed(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	s, err := c.Seed("u1", "Ada", "ada@example.org")
	require.NoError(t, err)

	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, tier.Seeker, s.User.Tier)
	assert.Empty(t, s.User.Badges)
	assert.Len(t, s.BadgesLibrary, 3)
	assert.Equal(t, shared.Cents(124050), s.AccessFundBalance)
	assert.NotNil(t, s.VerificationRequests)

	s.BadgesLibrary[0].Title = "changed"
	assert.Equal(t, "Forest Stewardship", c.Library[0].Title)
}

func TestSeed_RequiresUserID(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	_, err = c.Seed("", "Ada", "")
	assert.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	okTiers := []byte("Wayfarer:\n  - id: w1\n    kind: milestone\n    description: x\n")
	okLibrary := []byte("badges:\n  - id: b1\n    title: T\n    domain: Skill\n")

	tests := []struct {
		name    string
		tiers   []byte
		library []byte
	}{
		{"bad yaml", []byte("::"), okLibrary},
		{"initial tier as key", []byte("Member:\n  - id: m\n    kind: milestone\n"), okLibrary},
		{"unknown item kind", []byte("Wayfarer:\n  - id: w1\n    kind: quest\n"), okLibrary},
		{"keystone for missing badge", []byte("Wayfarer:\n  - id: w1\n    kind: keystone\n    badge_id: nope\n"), okLibrary},
		{"unknown domain", okTiers, []byte("badges:\n  - id: b1\n    title: T\n    domain: Cooking\n")},
		{"difficulty out of range", okTiers, []byte("badges:\n  - id: b1\n    title: T\n    domain: Skill\n    difficulty: 9\n")},
		{"duplicate badge", okTiers, []byte("badges:\n  - {id: b1, title: T, domain: Skill}\n  - {id: b1, title: U, domain: Skill}\n")},
		{"bad initial tier", okTiers, []byte("initial_tier: Overlord\n")},
		{"colony without name", okTiers, []byte("colonies:\n  - id: c1\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.tiers, tt.library)
			assert.Error(t, err)
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	c, err := Parse([]byte("{}"), []byte(`
badges:
  - id: b9
    title: Night Sky
    domain: knowledge
    secondary_domains: [Skill, Ethics, Society]
    partner_name: Observatory
    requirements:
      - {id: r1, description: Chart a constellation, require_attachment: false}
`))
	require.NoError(t, err)

	assert.Equal(t, tier.Initial, c.InitialTier)
	b := c.Library[0]
	assert.Equal(t, badge.DomainKnowledge, b.Domain)
	assert.Equal(t, badge.DefaultDifficulty, b.Difficulty)
	assert.Len(t, b.SecondaryDomains, badge.MaxSecondaryDomains)
	assert.True(t, b.IsPartnership)
	assert.False(t, b.Requirements[0].RequiresAttachment())
	assert.True(t, b.Requirements[0].RequiresNote())
}

func TestLoadDir_OverridesAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	lib := []byte(`
initial_tier: Wayfarer
badges:
  - {id: b1, title: Forest Stewardship, domain: Environment}
  - {id: b2, title: Community Architect, domain: Society}
  - {id: b3, title: The Socratic Path, domain: Ethics}
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, libraryFile), lib, 0o600))

	c, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, tier.Wayfarer, c.InitialTier)
	assert.Empty(t, c.Colonies)

	items, err := c.Tiers.For(tier.Keystone)
	require.NoError(t, err)
	assert.NotEmpty(t, items, "tiers come from the embedded file")
}
