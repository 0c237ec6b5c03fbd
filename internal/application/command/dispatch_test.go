package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

func TestCommands_Validation(t *testing.T) {
	cases := map[string]Command{
		"evidence without requirement":  RecordEvidenceCommand{BadgeID: "b1"},
		"revoke without badge":          RevokeRequirementCommand{RequirementID: "r1"},
		"download without badge":        DownloadBadgeCommand{},
		"create with library origin":    CreateBadgeCommand{Origin: badge.OriginLibrary},
		"link without url":              SubmitLinkSuggestionCommand{BadgeID: "b1", Label: "Guide"},
		"link with bad url":             SubmitLinkSuggestionCommand{BadgeID: "b1", Label: "Guide", URL: "not a url"},
		"partnership with unknown type": SubmitPartnershipCommand{PartnerName: "Acme", PartnerType: "Company"},
		"partnership with bad website":  SubmitPartnershipCommand{PartnerName: "Acme", PartnerType: "Creator", WebsiteURL: "acme"},
		"promotion to unknown tier":     SubmitPromotionCommand{TargetTier: "Overlord"},
		"promotion statement unnamed":   SubmitPromotionCommand{TargetTier: "Wayfarer", Statements: []council.ActionStatement{{Intent: "x"}}},
		"resolve to pending":            ResolveRequestCommand{RequestID: "req-1", Status: "pending"},
		"resolve unknown kind":          ResolveRequestCommand{Kind: "bribe", RequestID: "req-1", Status: "approved"},
		"partner badge without name":    ResolveRequestCommand{RequestID: "prop-1", Status: "approved", AsPartnerBadge: true},
		"privacy unknown storage":       UpdatePrivacyCommand{StorageLocation: "usb_stick"},
		"colony without siege":          ProposeColonyCommand{Name: "Delta"},
		"join without colony":           JoinColonyCommand{},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			err := cmd.Validate()
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err), "got %v", err)
		})
	}
}

func TestCommands_ValidInputPasses(t *testing.T) {
	cmds := []Command{
		RecordEvidenceCommand{BadgeID: "b1", RequirementID: "r1", Note: strp("planted an oak")},
		CreateBadgeCommand{Draft: badge.Draft{Title: "Bread"}},
		SubmitLinkSuggestionCommand{BadgeID: "b1", Label: "Guide", URL: "https://example.org/guide"},
		SubmitPartnershipCommand{PartnerName: "Acme", PartnerType: "Organization"},
		SubmitPromotionCommand{TargetTier: "wayfarer"},
		ResolveRequestCommand{RequestID: "req-1", Status: "needs-info"},
		ResolveRequestCommand{Kind: "proposal", RequestID: "prop-1", Status: "approve", AsPartnerBadge: true, PartnerName: "Acme"},
		UpdatePrivacyCommand{StorageLocation: "guild_sync", AutoSync: true},
		ProposeColonyCommand{Name: "Delta", Siege: "Lisbon"},
	}
	for _, cmd := range cmds {
		assert.NoError(t, cmd.Validate(), "%T", cmd)
	}
}

func TestCommands_ToEventNormalizesInput(t *testing.T) {
	ev := ResolveRequestCommand{Kind: "link", RequestID: "link-1", Status: "needs-info"}.ToEvent()
	assert.Equal(t, "ResolveRequest", ev.Name())

	promo := SubmitPromotionCommand{TargetTier: "journeyer"}.ToEvent()
	assert.Equal(t, "SubmitPromotion", promo.Name())

	create := CreateBadgeCommand{Draft: badge.Draft{Title: "x"}}.ToEvent()
	assert.Equal(t, "CreateBadge", create.Name())
}

func TestDispatchHandler_VerificationFlow(t *testing.T) {
	pub := &recorder{}
	s := newTestStore(t, nil, pub)
	h := NewDispatchHandler(s, nil)
	ctx := context.Background()

	_, err := h.Handle(ctx, DownloadBadgeCommand{BadgeID: "b1"})
	require.NoError(t, err)

	_, err = h.Handle(ctx, RecordEvidenceCommand{BadgeID: "b1", RequirementID: "r1", URL: strp("https://img.example/oak.jpg")})
	require.NoError(t, err)

	// Not yet mastered.
	_, err = h.Handle(ctx, SubmitVerificationCommand{BadgeID: "b1"})
	require.Error(t, err)

	res, err := h.Handle(ctx, RecordEvidenceCommand{BadgeID: "b1", RequirementID: "r2", Note: strp("Oaks shelter jays.")})
	require.NoError(t, err)
	assert.True(t, res.Has(shared.EventBadgeMastered))

	res, err = h.Handle(ctx, SubmitVerificationCommand{BadgeID: "b1"})
	require.NoError(t, err)
	require.Len(t, res.State.VerificationRequests, 1)
	reqID := res.State.VerificationRequests[0].ID

	res, err = h.Handle(ctx, ResolveRequestCommand{RequestID: reqID, Status: "approved", Feedback: "Well documented."})
	require.NoError(t, err)
	assert.True(t, res.State.User.Badges[0].IsVerified)
	assert.Equal(t, council.StatusApproved, res.State.VerificationRequests[0].Status)

	_, err = h.Handle(ctx, ResolveRequestCommand{RequestID: reqID, Status: "rejected"})
	require.Error(t, err)
	assert.True(t, shared.IsAlreadyProcessed(err))
	assert.Equal(t, council.StatusApproved, s.State().VerificationRequests[0].Status)
}

func TestDispatchHandler_PromotionIsPermissive(t *testing.T) {
	s := newTestStore(t, nil, nil)
	h := NewDispatchHandler(s, nil)
	ctx := context.Background()

	res, err := h.Handle(ctx, SubmitPromotionCommand{TargetTier: "Keystone"})
	require.NoError(t, err)
	id := res.State.PromotionRequests[0].ID

	res, err = h.Handle(ctx, ResolveRequestCommand{Kind: "promotion", RequestID: id, Status: "approve"})
	require.NoError(t, err)
	assert.Equal(t, tier.Keystone, res.State.User.Tier)
	assert.True(t, res.Has(shared.EventTierPromoted))
}

func TestDispatchHandler_InvalidCommandNeverReachesStore(t *testing.T) {
	pub := &recorder{}
	s := newTestStore(t, nil, pub)
	h := NewDispatchHandler(s, nil)

	_, err := h.Handle(context.Background(), JoinColonyCommand{})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Empty(t, pub.types())
}
