package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/colony"
	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/member"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func testEnv() guild.Env {
	var mu sync.Mutex
	tick := 0
	return guild.Env{
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			tick++
			return t0.Add(time.Duration(tick) * time.Minute)
		},
		IDs:         &guild.SequenceIDs{},
		ArtifactFee: council.DefaultArtifactFee,
	}
}

func seedState(t *testing.T) guild.State {
	t.Helper()
	user, err := member.New("u1", "Ada", "ada@example.org", tier.Seeker)
	require.NoError(t, err)

	library := []badge.Badge{
		{
			ID: "b1", Title: "Forest Stewardship", Domain: badge.DomainEnvironment, Difficulty: 2, IsVerified: true,
			Requirements: []badge.Requirement{
				badge.NewRequirement("r1", "Photograph a native tree", true, false),
				badge.NewRequirement("r2", "Write about its role", false, true),
			},
		},
	}
	colonies := []colony.Colony{{ID: "c1", Name: "Portland Colony", Number: 101, MembersCount: 42, IsApproved: true}}
	return guild.NewState(user, library, colonies, 124050)
}

func strp(s string) *string { return &s }

// memRepo is an in-memory SnapshotRepository that records every save.
type memRepo struct {
	mu      sync.Mutex
	saved   map[string]guild.State
	saves   int
	failing error
	loadErr error
	block   chan struct{}
}

func newMemRepo() *memRepo { return &memRepo{saved: map[string]guild.State{}} }

func (r *memRepo) Load(_ context.Context, userID string) (guild.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return guild.State{}, r.loadErr
	}
	s, ok := r.saved[userID]
	if !ok {
		return guild.State{}, shared.WrapError("snapshot", "Load", shared.ErrNotFound, "no snapshot", nil)
	}
	return s.Clone(), nil
}

func (r *memRepo) Save(_ context.Context, userID string, s guild.State) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.failing != nil {
		return r.failing
	}
	r.saved[userID] = s.Clone()
	return nil
}

func (r *memRepo) get(userID string) (guild.State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.saved[userID]
	return s, ok
}

// recorder is an EventPublisher that keeps what it receives.
type recorder struct {
	mu     sync.Mutex
	events []shared.Event
	err    error
}

func (r *recorder) Publish(e shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) types() []shared.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

var errDiskFull = errors.New("disk full")

func newTestStore(t *testing.T, repo guild.SnapshotRepository, pub shared.EventPublisher) *Store {
	t.Helper()
	s := NewStore(seedState(t), testEnv(), repo, pub, DefaultStoreConfig("u1"), nil)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}
