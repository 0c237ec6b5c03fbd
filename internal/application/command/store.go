// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// Holds the authoritative in-memory State of one member. Every change goes
// through guild.Reduce; persistence runs behind it and never blocks or fails
// a transition.
// ══════════════════════════════════════════════════════════════════════════════

// StoreConfig configures the Store.
type StoreConfig struct {
	// UserID keys the snapshot in the repository.
	UserID string

	// SaveTimeout bounds a single snapshot write.
	SaveTimeout time.Duration
}

// DefaultStoreConfig returns default settings for the given member.
func DefaultStoreConfig(userID string) StoreConfig {
	return StoreConfig{
		UserID:      userID,
		SaveTimeout: 5 * time.Second,
	}
}

// Store serializes events against one State.
type Store struct {
	mu    sync.Mutex
	state guild.State
	env   guild.Env

	publisher shared.EventPublisher
	saver     *saver
	logger    *logger.Logger
}

// NewStore creates a Store seeded with initial. repo and publisher are optional.
func NewStore(
	initial guild.State,
	env guild.Env,
	repo guild.SnapshotRepository,
	publisher shared.EventPublisher,
	config StoreConfig,
	log *logger.Logger,
) *Store {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("store"), logger.UserID(config.UserID))

	s := &Store{
		state:     initial.Clone(),
		env:       env,
		publisher: publisher,
		logger:    log,
	}
	if repo != nil {
		s.saver = newSaver(repo, config, log)
		go s.saver.run()
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() guild.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies one event. On error the state is left as it was and the
// returned State is the unchanged current one.
func (s *Store) Dispatch(ctx context.Context, e guild.Event) (guild.State, []shared.Event, error) {
	if err := ctx.Err(); err != nil {
		return s.State(), nil, err
	}

	s.mu.Lock()
	next, events, err := guild.Reduce(s.state, e, s.env)
	if err != nil {
		current := s.state.Clone()
		s.mu.Unlock()
		s.logger.Debug("event rejected", logger.String("event", e.Name()), logger.Err(err))
		return current, nil, err
	}
	s.state = next
	if s.saver != nil {
		s.saver.enqueue(next)
	}
	s.mu.Unlock()

	// Published outside the lock so handlers may read the store.
	s.publish(events)

	s.logger.Debug("event applied",
		logger.String("event", e.Name()),
		logger.Int("domain_events", len(events)),
	)
	return next.Clone(), events, nil
}

func (s *Store) publish(events []shared.Event) {
	if s.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := s.publisher.Publish(ev); err != nil {
			s.logger.Warn("failed to publish event",
				logger.EventType(string(ev.EventType())),
				logger.Err(err),
			)
		}
	}
}

// Flush waits until every state dispatched so far has been handed to the repository.
func (s *Store) Flush(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}
	return s.saver.flush(ctx)
}

// Close drains pending saves and stops the background writer.
func (s *Store) Close(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}
	return s.saver.close(ctx)
}

// ─────────────────────────────────────────────────────────────────────────────
// Background saver
// ─────────────────────────────────────────────────────────────────────────────

// saver writes snapshots on its own goroutine. Only the latest pending state
// is kept; intermediate states are skipped.
type saver struct {
	repo    guild.SnapshotRepository
	userID  string
	timeout time.Duration
	logger  *logger.Logger

	mu      sync.Mutex
	pending *guild.State
	queued  uint64
	written uint64
	waiters []flushWaiter

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type flushWaiter struct {
	target uint64
	ch     chan struct{}
}

func newSaver(repo guild.SnapshotRepository, config StoreConfig, log *logger.Logger) *saver {
	timeout := config.SaveTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &saver{
		repo:    repo,
		userID:  config.UserID,
		timeout: timeout,
		logger:  log,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (w *saver) enqueue(s guild.State) {
	w.mu.Lock()
	w.pending = &s
	w.queued++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *saver) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *saver) drain() {
	for {
		w.mu.Lock()
		st, seq := w.pending, w.queued
		w.pending = nil
		w.mu.Unlock()

		if st == nil {
			return
		}
		w.write(*st)

		w.mu.Lock()
		w.written = seq
		kept := w.waiters[:0]
		for _, fw := range w.waiters {
			if fw.target <= w.written {
				close(fw.ch)
				continue
			}
			kept = append(kept, fw)
		}
		w.waiters = kept
		w.mu.Unlock()
	}
}

func (w *saver) write(s guild.State) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	if err := w.repo.Save(ctx, w.userID, s); err != nil {
		w.logger.Error("failed to save snapshot", logger.Err(err), logger.Latency(time.Since(start)))
		return
	}
	w.logger.Debug("snapshot saved", logger.Latency(time.Since(start)))
}

func (w *saver) flush(ctx context.Context) error {
	w.mu.Lock()
	if w.written >= w.queued {
		w.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	w.waiters = append(w.waiters, flushWaiter{target: w.queued, ch: ch})
	w.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("store: flush: %w", ctx.Err())
	}
}

func (w *saver) close(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stop) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("store: close: %w", ctx.Err())
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Bootstrapping
// ─────────────────────────────────────────────────────────────────────────────

// LoadOrSeed returns the stored snapshot for userID, or seed() when there is
// none. A broken or unreachable store is logged and also falls back to seed;
// the second return value reports whether a stored snapshot was used.
func LoadOrSeed(
	ctx context.Context,
	repo guild.SnapshotRepository,
	userID string,
	seed func() guild.State,
	log *logger.Logger,
) (guild.State, bool) {
	if repo == nil {
		return seed(), false
	}
	if log == nil {
		log = logger.Nop()
	}

	s, err := repo.Load(ctx, userID)
	switch {
	case err == nil:
		return s, true
	case shared.IsNotFound(err):
		log.Info("no snapshot found, starting from seed content", logger.UserID(userID))
	case errors.Is(err, shared.ErrInvalidFormat):
		log.Error("stored snapshot is unreadable, starting from seed content",
			logger.UserID(userID), logger.Err(err))
	default:
		log.Warn("snapshot store unavailable, starting from seed content",
			logger.UserID(userID), logger.Err(err))
	}
	return seed(), false
}
