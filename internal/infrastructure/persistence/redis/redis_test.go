package redis

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/member"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/internal/domain/tier"
	"github.com/heron-guild/guildhall/internal/infrastructure/messaging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type memKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet error
	failSet error
	sets    int
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) GetBytes(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memKV) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	m.sets++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type memSnapshots struct {
	states  map[string]guild.State
	loads   int
	saveErr error
}

func (m *memSnapshots) Load(_ context.Context, userID string) (guild.State, error) {
	m.loads++
	s, ok := m.states[userID]
	if !ok {
		return guild.State{}, shared.NewDomainError("snapshot", "Load", shared.ErrNotFound, "no snapshot")
	}
	return s, nil
}

func (m *memSnapshots) Save(_ context.Context, userID string, s guild.State) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.states[userID] = s
	return nil
}

type countingGuide struct {
	calls int
	fail  error
}

func (g *countingGuide) RecommendNext(context.Context, []string, []string) (string, error) {
	g.calls++
	if g.fail != nil {
		return "", g.fail
	}
	return "Walk the forest path.", nil
}

func (g *countingGuide) SuggestRequirement(_ context.Context, title, _ string, _ []string) (string, error) {
	g.calls++
	return "Teach " + title + " to a friend.", nil
}

func (g *countingGuide) RateComplexity(context.Context, string, string, []string) (int, error) {
	g.calls++
	return 4, nil
}

func sampleState(t *testing.T, name string) guild.State {
	t.Helper()
	u, err := member.New("u1", name, "", tier.Seeker)
	require.NoError(t, err)
	return guild.NewState(u, nil, nil, 100)
}

// ─────────────────────────────────────────────────────────────────────────────
// SnapshotCache
// ─────────────────────────────────────────────────────────────────────────────

func TestSnapshotCache_ReadThrough(t *testing.T) {
	inner := &memSnapshots{states: map[string]guild.State{"u1": sampleState(t, "Ada")}}
	kv := newMemKV()
	c := NewSnapshotCache(inner, kv, 0, nil)
	ctx := context.Background()

	s, err := c.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", s.User.Name)
	assert.Equal(t, 1, inner.loads)
	assert.Contains(t, kv.data, SnapshotKey("u1"))

	s, err = c.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", s.User.Name)
	assert.Equal(t, 1, inner.loads, "second load is served from cache")
}

func TestSnapshotCache_NotFoundPassesThrough(t *testing.T) {
	c := NewSnapshotCache(&memSnapshots{states: map[string]guild.State{}}, newMemKV(), 0, nil)

	_, err := c.Load(context.Background(), "nobody")
	assert.True(t, shared.IsNotFound(err))
}

func TestSnapshotCache_WriteThrough(t *testing.T) {
	inner := &memSnapshots{states: map[string]guild.State{}}
	kv := newMemKV()
	c := NewSnapshotCache(inner, kv, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "u1", sampleState(t, "Grace")))
	assert.Equal(t, "Grace", inner.states["u1"].User.Name)

	s, err := c.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Grace", s.User.Name)
	assert.Equal(t, 0, inner.loads)
}

func TestSnapshotCache_FailedSaveInvalidates(t *testing.T) {
	inner := &memSnapshots{states: map[string]guild.State{}}
	kv := newMemKV()
	c := NewSnapshotCache(inner, kv, 0, nil)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "u1", sampleState(t, "Grace")))
	inner.saveErr = errors.New("disk full")

	err := c.Save(ctx, "u1", sampleState(t, "Hopper"))
	assert.Error(t, err)
	assert.NotContains(t, kv.data, SnapshotKey("u1"))
}

func TestSnapshotCache_BrokenCacheFallsBack(t *testing.T) {
	inner := &memSnapshots{states: map[string]guild.State{"u1": sampleState(t, "Ada")}}
	kv := newMemKV()
	kv.failGet = errors.New("connection refused")
	kv.failSet = errors.New("connection refused")
	c := NewSnapshotCache(inner, kv, 0, nil)

	s, err := c.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", s.User.Name)
}

func TestSnapshotCache_UnreadableEntryIsDropped(t *testing.T) {
	inner := &memSnapshots{states: map[string]guild.State{"u1": sampleState(t, "Ada")}}
	kv := newMemKV()
	kv.data[SnapshotKey("u1")] = []byte("{not json")
	c := NewSnapshotCache(inner, kv, 0, nil)

	s, err := c.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", s.User.Name)
	assert.Equal(t, 1, inner.loads)
}

// ─────────────────────────────────────────────────────────────────────────────
// GuidanceCache
// ─────────────────────────────────────────────────────────────────────────────

func TestGuidanceCache_Memoizes(t *testing.T) {
	inner := &countingGuide{}
	c := NewGuidanceCache(inner, newMemKV(), 0, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		text, err := c.RecommendNext(ctx, []string{"Forest Stewardship"}, []string{"rivers"})
		require.NoError(t, err)
		assert.Equal(t, "Walk the forest path.", text)

		req, err := c.SuggestRequirement(ctx, "Knots", "Tie them", nil)
		require.NoError(t, err)
		assert.Equal(t, "Teach Knots to a friend.", req)

		n, err := c.RateComplexity(ctx, "Knots", "Tie them", []string{"bowline"})
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	}
	assert.Equal(t, 3, inner.calls)

	_, err := c.RecommendNext(ctx, []string{"Forest Stewardship"}, []string{"mountains"})
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls, "different inputs miss the cache")
}

func TestGuidanceCache_DoesNotCacheFailures(t *testing.T) {
	inner := &countingGuide{fail: errors.New("oracle down")}
	kv := newMemKV()
	c := NewGuidanceCache(inner, kv, 0, nil)
	ctx := context.Background()

	_, err := c.RecommendNext(ctx, nil, nil)
	require.Error(t, err)
	assert.Empty(t, kv.data)

	inner.fail = nil
	text, err := c.RecommendNext(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Walk the forest path.", text)
	assert.Equal(t, 2, inner.calls)
}

func TestDigest_SeparatesGroups(t *testing.T) {
	assert.NotEqual(t, digest([]string{"a", "b"}, nil), digest([]string{"a"}, []string{"b"}))
	assert.Equal(t, digest([]string{"a"}, []string{"b"}), digest([]string{"a"}, []string{"b"}))
}

// ─────────────────────────────────────────────────────────────────────────────
// Live Redis
// ─────────────────────────────────────────────────────────────────────────────

func liveCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("GUILDHALL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GUILDHALL_TEST_REDIS_ADDR not set")
	}
	cfg := DefaultConfig()
	cfg.Addr = addr
	c, err := NewCache(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_Live(t *testing.T) {
	c := liveCache(t)
	ctx := context.Background()
	key := SnapshotKey("test-" + time.Now().Format("150405.000000"))
	t.Cleanup(func() { _ = c.Delete(ctx, key) })

	_, err := c.GetBytes(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.SetBytes(ctx, key, []byte("v1"), time.Minute))
	got, err := c.GetBytes(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	assert.ErrorIs(t, c.SetBytes(ctx, key, nil, -time.Second), ErrCacheInvalidTTL)

	ok, err := c.TryLock(ctx, key, "me", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.TryLock(ctx, key, "you", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, c.Unlock(ctx, key, "me"))
}

func TestPubSub_Live(t *testing.T) {
	c := liveCache(t)
	ps := NewPubSubClient(c.Client())
	t.Cleanup(func() { _ = ps.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := "guildhall:test:" + time.Now().Format("150405.000000")
	msgs, err := ps.Subscribe(ctx, channel)
	require.NoError(t, err)

	require.NoError(t, ps.Publish(ctx, channel, "hello"))
	select {
	case m := <-msgs:
		assert.Equal(t, messaging.RedisMessage{Channel: channel, Payload: "hello"}, m)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}
