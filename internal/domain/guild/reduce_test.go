package guild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/member"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

type unknownEvent struct{ RecordEvidence }

func (unknownEvent) Name() string { return "unknown" }

func TestReduce_ErrorLeavesStateUntouched(t *testing.T) {
	s := newTestState(t)
	env := testEnv()

	next, evs, err := Reduce(s, RecordEvidence{BadgeID: "b1", RequirementID: "r1", URL: strp("x")}, env)
	assert.True(t, shared.IsNotFound(err))
	assert.Nil(t, evs)
	assert.Equal(t, s, next)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := newTestState(t)
	env := testEnv()
	s, _ = mustReduce(t, s, env, DownloadBadge{BadgeID: "b1"})
	before := s.Clone()

	_, _, err := Reduce(s, RecordEvidence{BadgeID: "b1", RequirementID: "r1", URL: strp("https://example.org")}, env)
	require.NoError(t, err)
	assert.Equal(t, before, s)
}

func TestDownloadBadge(t *testing.T) {
	s := newTestState(t)
	env := testEnv()

	s, evs := mustReduce(t, s, env, DownloadBadge{BadgeID: "b1"})
	require.Len(t, s.User.Badges, 1)
	owned := s.User.Badges[0]
	assert.Equal(t, "b1", owned.ID)
	assert.False(t, owned.IsVerified)
	assert.Equal(t, badge.StateInProgress, badge.DeriveState(owned))
	assert.Equal(t, []shared.EventType{shared.EventBadgeAdded}, eventTypes(evs))

	_, _, err := Reduce(s, DownloadBadge{BadgeID: "b1"}, env)
	assert.True(t, shared.IsAlreadyExists(err))

	_, _, err = Reduce(s, DownloadBadge{BadgeID: "nope"}, env)
	assert.True(t, shared.IsNotFound(err))
}

func TestLegacyChecklistBadgeIsMasteredOnDownload(t *testing.T) {
	s, _ := mustReduce(t, newTestState(t), testEnv(), DownloadBadge{BadgeID: "b3"})
	assert.True(t, s.User.Badges[0].IsMastered())
}

func TestScenario_TwoRequirementBadgeToVerification(t *testing.T) {
	s := newTestState(t)
	env := testEnv()
	s, _ = mustReduce(t, s, env, DownloadBadge{BadgeID: "b1"})

	s, evs := mustReduce(t, s, env,
		RecordEvidence{BadgeID: "b1", RequirementID: "r1", URL: strp("https://example.org/oak.jpg")})
	b, err := s.User.Badge("b1")
	require.NoError(t, err)
	assert.True(t, b.Requirements[0].IsCompleted())
	assert.False(t, b.Requirements[1].IsCompleted())
	assert.Equal(t, badge.StateInProgress, badge.DeriveState(*b))
	assert.Equal(t, []shared.EventType{shared.EventEvidenceRecorded}, eventTypes(evs))

	_, _, err = Reduce(s, SubmitVerification{BadgeID: "b1"}, env)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	s, evs = mustReduce(t, s, env,
		RecordEvidence{BadgeID: "b1", RequirementID: "r2", Note: strp("Oaks shelter jays.")})
	b, _ = s.User.Badge("b1")
	assert.Equal(t, badge.StateMastered, badge.DeriveState(*b))
	assert.Equal(t, []shared.EventType{shared.EventEvidenceRecorded, shared.EventBadgeMastered}, eventTypes(evs))

	s, evs = mustReduce(t, s, env, SubmitVerification{BadgeID: "b1"})
	require.Len(t, s.VerificationRequests, 1)
	assert.Equal(t, council.StatusPending, s.VerificationRequests[0].Status)
	assert.Equal(t, "Forest Stewardship", s.VerificationRequests[0].BadgeTitle)
	assert.Equal(t, []shared.EventType{shared.EventRequestSubmitted}, eventTypes(evs))

	_, _, err = Reduce(s, SubmitVerification{BadgeID: "b1"}, env)
	assert.True(t, shared.IsAlreadyExists(err))
}

func TestRevokeDropsMasteryAndShowcase(t *testing.T) {
	env := testEnv()
	s := masterB1(t, newTestState(t), env)
	s, _ = mustReduce(t, s, env, ToggleShowcase{BadgeID: "b1"})
	require.Equal(t, []string{"b1"}, s.User.ShowcasedBadgeIDs)

	s, evs := mustReduce(t, s, env, RevokeRequirement{BadgeID: "b1", RequirementID: "r2"})
	b, _ := s.User.Badge("b1")
	assert.Empty(t, b.Requirements[1].EvidenceNote())
	assert.False(t, b.Requirements[1].IsCompleted())
	assert.False(t, b.IsMastered())
	assert.Empty(t, s.User.ShowcasedBadgeIDs)
	assert.Equal(t, []shared.EventType{
		shared.EventEvidenceRevoked, shared.EventBadgeMasteryLost, shared.EventShowcaseChanged,
	}, eventTypes(evs))
}

func TestShowcaseRequiresMastery(t *testing.T) {
	env := testEnv()
	s, _ := mustReduce(t, newTestState(t), env, DownloadBadge{BadgeID: "b2"})
	_, _, err := Reduce(s, ToggleShowcase{BadgeID: "b2"}, env)
	assert.ErrorIs(t, err, shared.ErrShowcaseNotMastered)
}

func TestResolveVerification_Idempotent(t *testing.T) {
	env := testEnv()
	s := masterB1(t, newTestState(t), env)
	s, _ = mustReduce(t, s, env, SubmitVerification{BadgeID: "b1"})
	id := s.VerificationRequests[0].ID

	s, evs := mustReduce(t, s, env, ResolveRequest{Kind: council.KindVerification, RequestID: id, Status: council.StatusApproved, Feedback: "Well documented"})
	b, _ := s.User.Badge("b1")
	assert.True(t, b.IsVerified)
	assert.Equal(t, council.StatusApproved, s.VerificationRequests[0].Status)
	assert.Equal(t, "Well documented", s.VerificationRequests[0].Feedback)
	assert.Equal(t, []shared.EventType{shared.EventRequestResolved}, eventTypes(evs))

	again, evs, err := Reduce(s, ResolveRequest{RequestID: id, Status: council.StatusApproved}, env)
	assert.True(t, shared.IsAlreadyProcessed(err))
	assert.Nil(t, evs)
	assert.Equal(t, s, again)
	assert.Len(t, again.User.Badges, 1)

	_, _, err = Reduce(s, ResolveRequest{RequestID: id, Status: council.StatusRejected}, env)
	assert.True(t, shared.IsAlreadyProcessed(err))
}

func TestResolve_RejectionHasNoSideEffect(t *testing.T) {
	env := testEnv()
	s := masterB1(t, newTestState(t), env)
	s, _ = mustReduce(t, s, env, SubmitVerification{BadgeID: "b1"})
	id := s.VerificationRequests[0].ID

	for _, status := range []council.Status{council.StatusRejected, council.StatusNeedsInfo} {
		next, _ := mustReduce(t, s, env, ResolveRequest{RequestID: id, Status: status, Feedback: "Blurry photo"})
		b, _ := next.User.Badge("b1")
		assert.False(t, b.IsVerified)
		assert.Equal(t, status, next.VerificationRequests[0].Status)
		assert.Equal(t, "Blurry photo", next.VerificationRequests[0].Feedback)
	}
}

func TestResolve_UnknownRequestAndBadStatus(t *testing.T) {
	s := newTestState(t)
	env := testEnv()

	next, _, err := Reduce(s, ResolveRequest{RequestID: "req-404", Status: council.StatusApproved}, env)
	assert.True(t, shared.IsNotFound(err))
	assert.Equal(t, s, next)

	_, _, err = Reduce(s, ResolveRequest{RequestID: "req-1", Status: council.StatusPending}, env)
	assert.ErrorIs(t, err, shared.ErrStateTransition)
}

func manualDraft() badge.Draft {
	return badge.Draft{
		Title:       "Seed Saver",
		Description: "Keep heirloom varieties alive",
		Domain:      badge.DomainEnvironment,
		Difficulty:  3,
		Requirements: []badge.RequirementDraft{
			{Description: "Save seeds from three plants"},
			{Description: "Share seeds with a neighbour"},
		},
	}
}

func TestApproveProposal_MintsExactlyOneBadge(t *testing.T) {
	env := testEnv()
	s := newTestState(t)
	s, _ = mustReduce(t, s, env, SubmitProposal{Draft: manualDraft(), Goal: "Preserve biodiversity", Metrics: "50 packets"})
	require.Len(t, s.BadgeProposals, 1)
	prop := s.BadgeProposals[0]
	assert.True(t, prop.Badge.IsUserCreated)
	assert.Equal(t, "u1", prop.Badge.CreatorID)

	libBefore := len(s.BadgesLibrary)
	s, evs := mustReduce(t, s, env, ResolveRequest{
		Kind: council.KindProposal, RequestID: prop.ID, Status: council.StatusApproved,
		AsPartnerBadge: true, PartnerName: "Seed Library Co-op",
	})
	require.Len(t, s.BadgesLibrary, libBefore+1)
	minted := s.BadgesLibrary[len(s.BadgesLibrary)-1]
	assert.NotEqual(t, prop.ID, minted.ID)
	for _, b := range s.BadgesLibrary[:libBefore] {
		assert.NotEqual(t, b.ID, minted.ID)
	}
	assert.True(t, minted.IsVerified)
	assert.False(t, minted.IsUserCreated)
	assert.True(t, minted.IsPartnership)
	assert.Equal(t, "Seed Library Co-op", minted.PartnerName)
	assert.Equal(t, "Seed Saver", minted.Title)
	assert.Equal(t, []shared.EventType{shared.EventRequestResolved, shared.EventLibraryBadgeMinted}, eventTypes(evs))

	_, _, err := Reduce(s, ResolveRequest{RequestID: prop.ID, Status: council.StatusApproved}, env)
	assert.True(t, shared.IsAlreadyProcessed(err))
}

func TestApproveProposal_WithoutPartner(t *testing.T) {
	env := testEnv()
	s, _ := mustReduce(t, newTestState(t), env, SubmitProposal{Draft: manualDraft()})
	s, _ = mustReduce(t, s, env, ResolveRequest{RequestID: s.BadgeProposals[0].ID, Status: council.StatusApproved})
	minted := s.BadgesLibrary[len(s.BadgesLibrary)-1]
	assert.False(t, minted.IsPartnership)
	assert.Empty(t, minted.PartnerName)
}

func TestApproveProposal_PartnerNameRequiredIsAtomic(t *testing.T) {
	env := testEnv()
	s, _ := mustReduce(t, newTestState(t), env, SubmitProposal{Draft: manualDraft()})

	next, _, err := Reduce(s, ResolveRequest{RequestID: s.BadgeProposals[0].ID, Status: council.StatusApproved, AsPartnerBadge: true}, env)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
	assert.Equal(t, council.StatusPending, next.BadgeProposals[0].Status)
	assert.Len(t, next.BadgesLibrary, 3)
}

func TestSubmitProposal_OracleDraftIsNormalized(t *testing.T) {
	env := testEnv()
	s, _ := mustReduce(t, newTestState(t), env, SubmitProposal{Draft: badge.Draft{}, Origin: badge.OriginOracle})
	assert.Equal(t, badge.UntitledBadge, s.BadgeProposals[0].Badge.Title)

	_, _, err := Reduce(s, SubmitProposal{Draft: badge.Draft{}}, env)
	assert.True(t, shared.IsValidation(err))
}

func TestApprovePromotion_IgnoresPrerequisites(t *testing.T) {
	env := testEnv()
	s := newTestState(t)
	require.Empty(t, s.User.Badges)

	s, _ = mustReduce(t, s, env, SubmitPromotion{TargetTier: tier.Warden})
	p := s.PromotionRequests[0]
	assert.Equal(t, tier.Seeker, p.CurrentTier)

	s, evs := mustReduce(t, s, env, ResolveRequest{RequestID: p.ID, Status: council.StatusApproved})
	assert.Equal(t, tier.Warden, s.User.Tier)
	assert.Equal(t, []shared.EventType{shared.EventRequestResolved, shared.EventTierPromoted}, eventTypes(evs))

	_, _, err := Reduce(s, ResolveRequest{RequestID: p.ID, Status: council.StatusApproved}, env)
	assert.True(t, shared.IsAlreadyProcessed(err))
	assert.Equal(t, tier.Warden, s.User.Tier)
}

func TestSubmitPromotion_RejectsInvalidTarget(t *testing.T) {
	s := newTestState(t)
	for _, target := range []tier.Tier{tier.Member, "Archmage"} {
		_, _, err := Reduce(s, SubmitPromotion{TargetTier: target}, testEnv())
		assert.ErrorIs(t, err, shared.ErrInvalidTier)
	}
}

func TestApproveLinkSuggestion_UpdatesLibraryAndOwnedCopy(t *testing.T) {
	env := testEnv()
	s, _ := mustReduce(t, newTestState(t), env,
		DownloadBadge{BadgeID: "b1"},
		SubmitLinkSuggestion{BadgeID: "b1", Label: "Tree guide", URL: "https://example.org/trees"},
		SubmitLinkSuggestion{BadgeID: "b2", Label: "Mapping 101", URL: "https://example.org/maps"},
	)
	require.Len(t, s.LinkSuggestions, 2)

	s, _ = mustReduce(t, s, env,
		ResolveRequest{Kind: council.KindLink, RequestID: s.LinkSuggestions[0].ID, Status: council.StatusApproved},
		ResolveRequest{Kind: council.KindLink, RequestID: s.LinkSuggestions[1].ID, Status: council.StatusApproved},
	)

	lib1, _ := s.LibraryBadge("b1")
	own1, _ := s.User.Badge("b1")
	want := []badge.UsefulLink{{Label: "Tree guide", URL: "https://example.org/trees"}}
	assert.Equal(t, want, lib1.UsefulLinks)
	assert.Equal(t, want, own1.UsefulLinks)

	lib2, _ := s.LibraryBadge("b2")
	assert.Equal(t, []badge.UsefulLink{{Label: "Mapping 101", URL: "https://example.org/maps"}}, lib2.UsefulLinks)
	assert.False(t, s.User.Owns("b2"))
}

func TestSubmitLinkSuggestion_Validation(t *testing.T) {
	s := newTestState(t)
	_, _, err := Reduce(s, SubmitLinkSuggestion{BadgeID: "b1", Label: " ", URL: "https://x"}, testEnv())
	assert.True(t, shared.IsValidation(err))

	_, _, err = Reduce(s, SubmitLinkSuggestion{BadgeID: "b9", Label: "x", URL: "https://x"}, testEnv())
	assert.True(t, shared.IsNotFound(err))
}

func TestPartnership_StatusOnly(t *testing.T) {
	env := testEnv()
	s, _ := mustReduce(t, newTestState(t), env, SubmitPartnership{
		PartnerName: "River Trust", PartnerType: council.PartnerOrganization, Description: "Joint cleanups",
	})
	before := s.Clone()

	s, evs := mustReduce(t, s, env, ResolveRequest{RequestID: s.PartnershipRequests[0].ID, Status: council.StatusApproved})
	assert.Equal(t, council.StatusApproved, s.PartnershipRequests[0].Status)
	assert.Equal(t, before.User, s.User)
	assert.Equal(t, before.BadgesLibrary, s.BadgesLibrary)
	assert.Equal(t, []shared.EventType{shared.EventRequestResolved}, eventTypes(evs))

	_, _, err := Reduce(s, SubmitPartnership{PartnerName: "X", PartnerType: "Guild"}, env)
	assert.True(t, shared.IsValidation(err))
}

func TestPhysical_FirstCopyFreeThenFee(t *testing.T) {
	env := testEnv()
	s := masterB1(t, newTestState(t), env)

	s, evs := mustReduce(t, s, env, SubmitPhysical{BadgeID: "b1"})
	assert.Equal(t, shared.Zero, s.PhysicalBadgeRequests[0].Cost)
	assert.Equal(t, []string{"b1"}, s.User.ClaimedFreePhysicalBadgeIDs)
	assert.Equal(t, []shared.EventType{shared.EventRequestSubmitted, shared.EventPhysicalClaimed}, eventTypes(evs))

	s, _ = mustReduce(t, s, env, SubmitPhysical{BadgeID: "b1"})
	assert.Equal(t, shared.Cents(1500), s.PhysicalBadgeRequests[1].Cost)
	assert.Equal(t, "15.00", s.PhysicalBadgeRequests[1].Cost.String())
	assert.Equal(t, []string{"b1"}, s.User.ClaimedFreePhysicalBadgeIDs)

	// Rejecting the free request does not give the claim back.
	s, _ = mustReduce(t, s, env, ResolveRequest{RequestID: s.PhysicalBadgeRequests[0].ID, Status: council.StatusRejected})
	assert.Equal(t, []string{"b1"}, s.User.ClaimedFreePhysicalBadgeIDs)

	before := s.Clone()
	s, _ = mustReduce(t, s, env, ResolveRequest{RequestID: s.PhysicalBadgeRequests[1].ID, Status: council.StatusApproved})
	assert.Equal(t, before.User, s.User)
}

func TestScenario_TwoDifferentBadgesBothFree(t *testing.T) {
	env := testEnv()
	s := masterB1(t, newTestState(t), env)
	s, _ = mustReduce(t, s, env, DownloadBadge{BadgeID: "b3"})

	s, _ = mustReduce(t, s, env, SubmitPhysical{BadgeID: "b1"}, SubmitPhysical{BadgeID: "b3"})
	require.Len(t, s.PhysicalBadgeRequests, 2)
	assert.True(t, s.PhysicalBadgeRequests[0].Cost.IsFree())
	assert.True(t, s.PhysicalBadgeRequests[1].Cost.IsFree())
	assert.ElementsMatch(t, []string{"b1", "b3"}, s.User.ClaimedFreePhysicalBadgeIDs)
}

func TestPhysical_ConfiguredFee(t *testing.T) {
	env := testEnv()
	env.ArtifactFee = 2250
	s := masterB1(t, newTestState(t), env)
	s, _ = mustReduce(t, s, env, SubmitPhysical{BadgeID: "b1"}, SubmitPhysical{BadgeID: "b1"})
	assert.Equal(t, shared.Cents(2250), s.PhysicalBadgeRequests[1].Cost)
}

func TestReduce_ZeroEnvKeepsIDsUniqueAndCharges(t *testing.T) {
	var env Env
	s := masterB1(t, newTestState(t), env)
	s, _ = mustReduce(t, s, env, SubmitPhysical{BadgeID: "b1"})
	s, _ = mustReduce(t, s, env, SubmitPhysical{BadgeID: "b1"})

	require.Len(t, s.PhysicalBadgeRequests, 2)
	first, second := s.PhysicalBadgeRequests[0], s.PhysicalBadgeRequests[1]
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, first.Cost.IsFree())
	assert.Equal(t, council.DefaultArtifactFee, second.Cost)

	s, _ = mustReduce(t, s, env, ResolveRequest{RequestID: second.ID, Status: council.StatusRejected})
	assert.Equal(t, council.StatusPending, s.PhysicalBadgeRequests[0].Status)
	assert.Equal(t, council.StatusRejected, s.PhysicalBadgeRequests[1].Status)
}

func TestCreateBadge(t *testing.T) {
	env := testEnv()
	s, evs := mustReduce(t, newTestState(t), env, CreateBadge{Draft: manualDraft(), Origin: badge.OriginManual})
	require.Len(t, s.User.Badges, 1)
	b := s.User.Badges[0]
	assert.True(t, b.IsUserCreated)
	assert.False(t, b.IsVerified)
	assert.Equal(t, "u1", b.CreatorID)
	assert.Equal(t, []shared.EventType{shared.EventBadgeAdded}, eventTypes(evs))

	_, _, err := Reduce(s, CreateBadge{Draft: manualDraft(), Origin: badge.OriginLibrary}, env)
	assert.True(t, shared.IsValidation(err))
}

func TestUpdateReflection(t *testing.T) {
	env := testEnv()
	s, _ := mustReduce(t, newTestState(t), env, DownloadBadge{BadgeID: "b1"}, UpdateReflection{BadgeID: "b1", Text: ""})
	s, _ = mustReduce(t, s, env, UpdateReflection{BadgeID: "b1", Text: "The oak taught patience."})
	b, _ := s.User.Badge("b1")
	assert.Equal(t, "The oak taught patience.", b.Reflections)
}

func TestColonies(t *testing.T) {
	env := testEnv()
	s := newTestState(t)

	_, _, err := Reduce(s, JoinColony{ColonyID: "c2"}, env)
	assert.ErrorIs(t, err, shared.ErrColonyNotApproved)
	_, _, err = Reduce(s, JoinColony{ColonyID: "c9"}, env)
	assert.True(t, shared.IsNotFound(err))

	s, _ = mustReduce(t, s, env, JoinColony{ColonyID: "c1"})
	assert.Equal(t, "c1", s.User.ColonyID)

	s, _ = mustReduce(t, s, env, ProposeColony{ColonyName: "Harbor Colony", Siege: "Tidewater", Charter: "Keep the docks"})
	founded := s.Colonies[len(s.Colonies)-1]
	assert.Equal(t, 103, founded.Number)
	assert.False(t, founded.IsApproved)

	s, _ = mustReduce(t, s, env, ApproveColony{ColonyID: founded.ID})
	c, _ := s.Colony(founded.ID)
	assert.True(t, c.IsApproved)

	_, _, err = Reduce(s, ApproveColony{ColonyID: founded.ID}, env)
	assert.True(t, shared.IsAlreadyProcessed(err))
}

func TestPrivacyAndCredentials(t *testing.T) {
	env := testEnv()
	s, _ := mustReduce(t, newTestState(t), env,
		UpdatePrivacy{Privacy: member.Privacy{StorageLocation: member.StorageGuildSync, AutoSync: true}},
		SetCredentials{Credentials: member.Credentials{PublicKey: "pk", PrivateKeyHash: "$2a$hash", LastBackup: t0}},
	)
	assert.Equal(t, member.StorageGuildSync, s.User.Privacy.StorageLocation)
	require.NotNil(t, s.User.Security)
	assert.Equal(t, "pk", s.User.Security.PublicKey)

	_, _, err := Reduce(s, SetCredentials{}, env)
	assert.True(t, shared.IsValidation(err))
	_, _, err = Reduce(s, UpdatePrivacy{Privacy: member.Privacy{StorageLocation: "usb"}}, env)
	assert.True(t, shared.IsValidation(err))
}

func TestPendingRequests_OldestFirst(t *testing.T) {
	env := testEnv()
	s := masterB1(t, newTestState(t), env)
	s, _ = mustReduce(t, s, env,
		SubmitPromotion{TargetTier: tier.Wayfarer},
		SubmitVerification{BadgeID: "b1"},
		SubmitPartnership{PartnerName: "River Trust", PartnerType: council.PartnerOrganization},
	)
	s, _ = mustReduce(t, s, env, ResolveRequest{RequestID: s.VerificationRequests[0].ID, Status: council.StatusRejected})

	pending := s.PendingRequests()
	require.Len(t, pending, 2)
	assert.Equal(t, council.KindPromotion, pending[0].Kind())
	assert.Equal(t, council.KindPartnership, pending[1].Kind())
}

func TestApprovalsCoverEveryKind(t *testing.T) {
	for _, k := range council.Kinds {
		_, ok := approvals[k]
		assert.True(t, ok, "no approval registered for %s", k)
	}
}

func TestReduce_UnknownEvent(t *testing.T) {
	s := newTestState(t)
	_, _, err := Reduce(s, unknownEvent{}, testEnv())
	assert.True(t, shared.IsValidation(err))
}
