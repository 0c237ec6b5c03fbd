package guild

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/colony"
	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/member"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

var t0 = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

// testEnv returns an Env whose clock advances one minute per call.
func testEnv() Env {
	tick := 0
	return Env{
		Now: func() time.Time {
			tick++
			return t0.Add(time.Duration(tick) * time.Minute)
		},
		IDs:         &SequenceIDs{},
		ArtifactFee: council.DefaultArtifactFee,
	}
}

func strp(s string) *string { return &s }

func libraryBadge(id, title string, reqs ...badge.Requirement) badge.Badge {
	return badge.Badge{
		ID:           id,
		Title:        title,
		Domain:       badge.DomainEnvironment,
		Difficulty:   2,
		Requirements: reqs,
		IsVerified:   true,
	}
}

func newTestState(t *testing.T) State {
	t.Helper()
	user, err := member.New("u1", "Ada", "ada@example.org", tier.Seeker)
	require.NoError(t, err)

	library := []badge.Badge{
		libraryBadge("b1", "Forest Stewardship",
			badge.NewRequirement("r1", "Photograph a native tree", true, false),
			badge.NewRequirement("r2", "Write about its role", false, true),
		),
		libraryBadge("b2", "Community Architect",
			badge.NewRequirement("r1", "Map a neighbourhood", true, true),
		),
		libraryBadge("b3", "Checklist Only",
			badge.NewRequirement("r1", "Read the charter", false, false),
		),
	}
	colonies := []colony.Colony{
		{ID: "c1", Name: "Portland Colony", Number: 101, MembersCount: 42, IsApproved: true},
		{ID: "c2", Name: "Pending Colony", Number: 102, MembersCount: 1},
	}
	return NewState(user, library, colonies, 124050)
}

// mustReduce applies events in order and fails the test on any error.
func mustReduce(t *testing.T, s State, env Env, events ...Event) (State, []shared.Event) {
	t.Helper()
	var all []shared.Event
	for _, e := range events {
		next, evs, err := Reduce(s, e, env)
		require.NoError(t, err, e.Name())
		s = next
		all = append(all, evs...)
	}
	return s, all
}

// masterB1 downloads b1 and satisfies both of its requirements.
func masterB1(t *testing.T, s State, env Env) State {
	t.Helper()
	s, _ = mustReduce(t, s, env,
		DownloadBadge{BadgeID: "b1"},
		RecordEvidence{BadgeID: "b1", RequirementID: "r1", URL: strp("https://example.org/oak.jpg")},
		RecordEvidence{BadgeID: "b1", RequirementID: "r2", Note: strp("Oaks shelter jays.")},
	)
	return s
}

func eventTypes(evs []shared.Event) []shared.EventType {
	out := make([]shared.EventType, len(evs))
	for i, e := range evs {
		out[i] = e.EventType()
	}
	return out
}
