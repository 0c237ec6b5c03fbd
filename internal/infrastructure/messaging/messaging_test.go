package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mastered() shared.Event {
	return shared.NewBadgeMasteredEvent("u1", "b1", "Forest Stewardship", at)
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, Multiplier: 2}
}

// ─────────────────────────────────────────────────────────────────────────────
// InMemoryEventBus
// ─────────────────────────────────────────────────────────────────────────────

func TestInMemoryEventBus_SyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	var got []string
	require.NoError(t, bus.Subscribe(shared.EventBadgeMastered, func(e shared.Event) error {
		got = append(got, "typed:"+e.AggregateID())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		got = append(got, "all:"+string(e.EventType()))
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventTierPromoted, func(shared.Event) error {
		t.Fatal("wrong event type delivered")
		return nil
	}))

	require.NoError(t, bus.Publish(mastered()))
	assert.Equal(t, []string{"typed:b1", "all:badge.mastered"}, got)

	snap := bus.Metrics().Snapshot()
	assert.EqualValues(t, 1, snap.TotalPublished)
	assert.EqualValues(t, 2, snap.HandlerExecutions)
}

func TestInMemoryEventBus_HandlerFailuresDoNotFailPublish(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	reached := false
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("nope") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { reached = true; return nil }))

	require.NoError(t, bus.Publish(mastered()))
	assert.True(t, reached)
	assert.EqualValues(t, 2, bus.Metrics().Snapshot().HandlerFailures)
}

func TestInMemoryEventBus_AsyncCloseWaits(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = true
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)

	var n atomic.Int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		n.Add(1)
		return nil
	}))
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(mastered()))
	}
	require.NoError(t, bus.Close())
	assert.EqualValues(t, 5, n.Load())
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(mastered()), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestInMemoryEventBus_RejectsNil(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()
	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(shared.EventBadgeMastered, nil))
}

// ─────────────────────────────────────────────────────────────────────────────
// RedisEventBus
// ─────────────────────────────────────────────────────────────────────────────

type fakeRedis struct {
	mu        sync.Mutex
	published []string
	msgs      chan RedisMessage
	failPub   error
}

func newFakeRedis() *fakeRedis { return &fakeRedis{msgs: make(chan RedisMessage, 8)} }

func (f *fakeRedis) Publish(_ context.Context, _ string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPub != nil {
		return f.failPub
	}
	f.published = append(f.published, message.(string))
	return nil
}

func (f *fakeRedis) Subscribe(context.Context, ...string) (<-chan RedisMessage, error) {
	return f.msgs, nil
}

func (f *fakeRedis) Close() error { return nil }

func (f *fakeRedis) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}

func TestRedisEventBus_PublishesEnvelope(t *testing.T) {
	client := newFakeRedis()
	bus, err := NewRedisEventBus(RedisEventBusConfig{Client: client, InstanceID: "me"})
	require.NoError(t, err)
	defer bus.Close()

	local := 0
	require.NoError(t, bus.Subscribe(shared.EventBadgeMastered, func(shared.Event) error { local++; return nil }))
	require.NoError(t, bus.Publish(mastered()))
	assert.Equal(t, 1, local)

	sent := client.sent()
	require.Len(t, sent, 1)
	var env eventEnvelope
	require.NoError(t, json.Unmarshal([]byte(sent[0]), &env))
	assert.Equal(t, "me", env.InstanceID)
	assert.Equal(t, shared.EventBadgeMastered, env.EventType)
	assert.Equal(t, "Forest Stewardship", env.Payload["title"])
}

func TestRedisEventBus_RedisFailureStillDeliversLocally(t *testing.T) {
	client := newFakeRedis()
	client.failPub = errors.New("connection reset")
	bus, err := NewRedisEventBus(RedisEventBusConfig{Client: client})
	require.NoError(t, err)
	defer bus.Close()

	local := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { local++; return nil }))
	require.NoError(t, bus.Publish(mastered()))
	assert.Equal(t, 1, local)
}

func TestRedisEventBus_ReplaysRemoteEventsOnly(t *testing.T) {
	client := newFakeRedis()
	bus, err := NewRedisEventBus(RedisEventBusConfig{Client: client, InstanceID: "me"})
	require.NoError(t, err)
	defer bus.Close()

	received := make(chan shared.Event, 4)
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error { received <- e; return nil }))

	own, _ := json.Marshal(eventEnvelope{InstanceID: "me", EventType: shared.EventBadgeMastered, AggregateID: "own"})
	remote, _ := json.Marshal(eventEnvelope{InstanceID: "other", EventType: shared.EventTierPromoted, AggregateID: "u2", OccurredAt: at})
	client.msgs <- RedisMessage{Payload: string(own)}
	client.msgs <- RedisMessage{Payload: "not json"}
	client.msgs <- RedisMessage{Err: errors.New("blip")}
	client.msgs <- RedisMessage{Payload: string(remote)}

	select {
	case e := <-received:
		re, ok := e.(*RemoteEvent)
		require.True(t, ok)
		assert.Equal(t, "other", re.Origin())
		assert.Equal(t, shared.EventTierPromoted, re.EventType())
		assert.Equal(t, "u2", re.AggregateID())
	case <-time.After(2 * time.Second):
		t.Fatal("remote event not delivered")
	}
	assert.Empty(t, received)
}

func TestRedisEventBus_RequiresClient(t *testing.T) {
	_, err := NewRedisEventBus(RedisEventBusConfig{})
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Dispatcher
// ─────────────────────────────────────────────────────────────────────────────

func newDispatcher(t *testing.T) (*InMemoryEventBus, *Dispatcher) {
	t.Helper()
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	t.Cleanup(func() { _ = bus.Close() })
	cfg := DefaultDispatcherConfig()
	cfg.Retry = fastRetry()
	d := NewDispatcher(bus, cfg)
	t.Cleanup(d.Stop)
	require.NoError(t, d.Start())
	return bus, d
}

func TestDispatcher_RoutesByType(t *testing.T) {
	bus, d := newDispatcher(t)

	var calls []string
	require.NoError(t, d.Register("mastery", func(e shared.Event) error {
		calls = append(calls, string(e.EventType()))
		return nil
	}, shared.EventBadgeMastered, shared.EventBadgeMasteryLost))

	require.NoError(t, bus.Publish(mastered()))
	require.NoError(t, bus.Publish(shared.NewTierPromotedEvent("u1", "Seeker", "Wayfarer", at)))
	require.NoError(t, bus.Publish(shared.NewBadgeMasteryLostEvent("u1", "b1", "Forest Stewardship", at)))

	assert.Equal(t, []string{"badge.mastered", "badge.mastery_lost"}, calls)
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	_, d := newDispatcher(t)

	attempts := 0
	require.NoError(t, d.Register("flaky", func(shared.Event) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, shared.EventBadgeMastered))

	require.NoError(t, d.Dispatch(mastered()))
	assert.Equal(t, 3, attempts)
	assert.Zero(t, d.DeadLetters().Size())
}

func TestDispatcher_DeadLettersAfterRetries(t *testing.T) {
	_, d := newDispatcher(t)

	attempts := 0
	require.NoError(t, d.Register("broken", func(shared.Event) error {
		attempts++
		return errors.New("down")
	}, shared.EventBadgeMastered))

	err := d.Dispatch(mastered())
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	entry, ok := d.DeadLetters().Pop()
	require.True(t, ok)
	assert.Equal(t, "broken", entry.HandlerName)
	assert.Equal(t, 3, entry.Attempts)
	assert.EqualError(t, entry.Err, "down")
}

func TestDispatcher_ValidationErrorsAreNotRetried(t *testing.T) {
	_, d := newDispatcher(t)

	attempts := 0
	require.NoError(t, d.Register("strict", func(shared.Event) error {
		attempts++
		return shared.NewDomainError("council", "Append", shared.ErrValidation, "bad decision")
	}, shared.EventBadgeMastered))

	err := d.Dispatch(mastered())
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, 1, attempts)
}

func TestDispatcher_Middleware(t *testing.T) {
	_, d := newDispatcher(t)

	var order []string
	trace := func(name string) Middleware {
		return func(next shared.EventHandler) shared.EventHandler {
			return func(e shared.Event) error {
				order = append(order, name)
				return next(e)
			}
		}
	}
	d.Use(trace("outer"), trace("inner"), RecoveryMiddleware(d.logger))
	require.NoError(t, d.RegisterHandler(HandlerRegistration{
		Name:       "panics",
		MaxRetries: 1,
		Handler:    func(shared.Event) error { panic("kaboom") },
	}, shared.EventBadgeMastered))

	err := d.Dispatch(mastered())
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.Equal(t, []string{"outer", "inner", "outer", "inner"}, order)
}

func TestDispatcher_RegisterValidation(t *testing.T) {
	_, d := newDispatcher(t)
	assert.Error(t, d.Register("", func(shared.Event) error { return nil }, shared.EventBadgeMastered))
	assert.Error(t, d.Register("x", nil, shared.EventBadgeMastered))
	assert.Error(t, d.Register("x", func(shared.Event) error { return nil }))
}

func TestDeadLetterQueue_DropsOldest(t *testing.T) {
	q := NewDeadLetterQueue(2)
	q.Add(DeadLetterEntry{HandlerName: "a"})
	q.Add(DeadLetterEntry{HandlerName: "b"})
	q.Add(DeadLetterEntry{HandlerName: "c"})

	entries := q.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].HandlerName)
	assert.Equal(t, "c", entries[1].HandlerName)
}
