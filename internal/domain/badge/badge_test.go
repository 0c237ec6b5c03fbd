package badge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func boolp(b bool) *bool { return &b }

func TestDeriveState(t *testing.T) {
	empty := Badge{ID: "b0"}
	assert.Equal(t, StateMastered, DeriveState(empty))
	assert.True(t, empty.IsMastered())

	b := Badge{ID: "b1", Requirements: []Requirement{
		NewRequirement("r1", "photo", true, false),
		NewRequirement("r2", "note", false, true),
	}}
	assert.Equal(t, StateInProgress, DeriveState(b))

	req, err := b.Requirement("r1")
	require.NoError(t, err)
	req.RecordEvidence(Evidence{URL: strp("https://example.org/1")})
	assert.True(t, b.Requirements[0].IsCompleted())
	assert.Equal(t, StateInProgress, DeriveState(b))

	req, err = b.Requirement("r2")
	require.NoError(t, err)
	req.RecordEvidence(Evidence{Note: strp("reflected")})
	assert.Equal(t, StateMastered, DeriveState(b))

	done, total := b.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 2, total)
}

func TestBadge_RequirementNotFound(t *testing.T) {
	b := Badge{ID: "b1"}
	_, err := b.Requirement("missing")
	assert.True(t, shared.IsNotFound(err))
}

func TestNew_Manual(t *testing.T) {
	d := Draft{
		Title:            "River Keeper",
		Description:      "Care for a waterway",
		Domain:           DomainEnvironment,
		SecondaryDomains: []Domain{DomainService, DomainEnvironment},
		Difficulty:       4,
		Requirements: []RequirementDraft{
			{Description: "Survey the bank", RequireAttachment: boolp(true), RequireNote: boolp(false)},
			{Description: "Join a cleanup"},
		},
	}
	b, err := New(d, NewParams{ID: "badge-1", CreatorID: "u1", Origin: OriginManual, CreatedAt: fixedNow})
	require.NoError(t, err)

	assert.True(t, b.IsUserCreated)
	assert.False(t, b.IsVerified)
	assert.Equal(t, "u1", b.CreatorID)
	assert.Equal(t, []Domain{DomainService}, b.SecondaryDomains)
	require.Len(t, b.Requirements, 2)
	assert.Equal(t, "req-1", b.Requirements[0].ID)
	assert.False(t, b.Requirements[0].RequiresNote())
	assert.True(t, b.Requirements[1].RequiresAttachment())
	assert.True(t, b.Requirements[1].RequiresNote())
	assert.Equal(t, StateInProgress, DeriveState(b))
}

func TestNew_GeneratedIDsAvoidAuthorIDs(t *testing.T) {
	d := Draft{
		Title:      "Lantern Bearer",
		Domain:     DomainService,
		Difficulty: 2,
		Requirements: []RequirementDraft{
			{ID: "req-2", Description: "Light the path"},
			{Description: "Guide a newcomer"},
			{Description: "Keep the lamp log"},
		},
	}
	b, err := New(d, NewParams{ID: "badge-2", Origin: OriginManual, CreatedAt: fixedNow})
	require.NoError(t, err)

	ids := make([]string, 0, len(b.Requirements))
	for _, r := range b.Requirements {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"req-2", "req-1", "req-3"}, ids)
}

func TestNew_ManualRejectsBadInput(t *testing.T) {
	base := Draft{Title: "T", Domain: DomainSkill, Difficulty: 2}

	noTitle := base
	noTitle.Title = "  "
	_, err := New(noTitle, NewParams{ID: "x", Origin: OriginManual})
	assert.True(t, shared.IsValidation(err))

	badDifficulty := base
	badDifficulty.Difficulty = 9
	_, err = New(badDifficulty, NewParams{ID: "x", Origin: OriginManual})
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	badDomain := base
	badDomain.Domain = "Alchemy"
	_, err = New(badDomain, NewParams{ID: "x", Origin: OriginManual})
	assert.True(t, shared.IsValidation(err))

	dup := base
	dup.Requirements = []RequirementDraft{{ID: "a", Description: "one"}, {ID: "a", Description: "two"}}
	_, err = New(dup, NewParams{ID: "x", Origin: OriginManual})
	assert.True(t, shared.IsValidation(err))
}

func TestNew_OracleDraftToleratesMalformedInput(t *testing.T) {
	b, err := New(Draft{}, NewParams{ID: "badge-2", CreatorID: "u1", Origin: OriginOracle})
	require.NoError(t, err)

	assert.Equal(t, UntitledBadge, b.Title)
	assert.Equal(t, DefaultDifficulty, b.Difficulty)
	assert.Equal(t, DomainSkill, b.Domain)
	assert.Empty(t, b.Requirements)
	assert.True(t, b.IsMastered())

	d := DraftFromTexts("Beekeeping", "", "environment", []Domain{"knowledge", "Nope", "Skill", "Ethics"}, 0,
		[]string{"Inspect a hive", "", "Harvest honey"})
	b, err = New(d, NewParams{ID: "badge-3", Origin: OriginOracle})
	require.NoError(t, err)
	assert.Equal(t, DomainEnvironment, b.Domain)
	assert.Equal(t, []Domain{DomainKnowledge, DomainSkill}, b.SecondaryDomains)
	assert.Equal(t, DefaultDifficulty, b.Difficulty)
	require.Len(t, b.Requirements, 2)
	for _, r := range b.Requirements {
		assert.True(t, r.RequiresAttachment())
		assert.True(t, r.RequiresNote())
		assert.False(t, r.IsCompleted())
	}
}

func TestPlaceholderDraft(t *testing.T) {
	d := PlaceholderDraft("")
	assert.Equal(t, UntitledBadge, d.Title)
	assert.NoError(t, d.Validate())

	d = PlaceholderDraft("Pottery")
	assert.Equal(t, "Pottery", d.Title)
}

func TestCopyForJournal_IsIndependent(t *testing.T) {
	lib := Badge{
		ID:          "b1",
		Title:       "Forest Stewardship",
		IsVerified:  true,
		Reflections: "library text",
		Requirements: []Requirement{
			NewRequirement("r1", "a", true, true),
			NewRequirement("r2", "legacy", false, false),
		},
		UsefulLinks: []UsefulLink{{Label: "Guide", URL: "https://example.org"}},
	}
	lib.Requirements[0].RecordEvidence(Evidence{URL: strp("u"), Note: strp("n")})

	c := lib.CopyForJournal()
	assert.Equal(t, "b1", c.ID)
	assert.False(t, c.IsVerified)
	assert.Empty(t, c.Reflections)
	assert.False(t, c.Requirements[0].IsCompleted())
	assert.True(t, c.Requirements[1].IsCompleted())

	c.Requirements[0].RecordEvidence(Evidence{Note: strp("mine")})
	c.AddLink(UsefulLink{Label: "x", URL: "y"})
	assert.Equal(t, "n", lib.Requirements[0].EvidenceNote())
	assert.Len(t, lib.UsefulLinks, 1)
}

func TestMint(t *testing.T) {
	draft := Badge{
		ID:            "prop-1",
		Title:         "Seed Saver",
		IsUserCreated: true,
		CreatorID:     "u1",
		Reflections:   "draft notes",
		Requirements:  []Requirement{NewRequirement("r1", "save seeds", false, true)},
	}
	draft.Requirements[0].RecordEvidence(Evidence{Note: strp("saved")})

	m := Mint(draft, MintParams{ID: "official-9", PartnerName: "Seed Library", MintedAt: fixedNow})
	assert.Equal(t, "official-9", m.ID)
	assert.True(t, m.IsVerified)
	assert.False(t, m.IsUserCreated)
	assert.True(t, m.IsPartnership)
	assert.Equal(t, "Seed Library", m.PartnerName)
	assert.Equal(t, "u1", m.CreatorID)
	assert.Empty(t, m.Reflections)
	assert.False(t, m.Requirements[0].HasEvidence())
	assert.True(t, draft.Requirements[0].HasEvidence())

	plain := Mint(draft, MintParams{ID: "official-10"})
	assert.False(t, plain.IsPartnership)
	assert.Empty(t, plain.PartnerName)
}
