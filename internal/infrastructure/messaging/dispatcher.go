package messaging

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher routes bus events to named handlers, wrapping each in middleware
// and retrying failures with exponential backoff. Events a handler still
// rejects after its retries land in the dead letter queue.
type Dispatcher struct {
	bus         shared.EventSubscriber
	handlers    map[shared.EventType][]HandlerRegistration
	middlewares []Middleware
	retry       RetryConfig
	deadLetters *DeadLetterQueue
	logger      *logger.Logger

	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// HandlerRegistration contains handler metadata.
type HandlerRegistration struct {
	Name    string
	Handler shared.EventHandler

	// MaxRetries overrides RetryConfig.MaxRetries when positive.
	MaxRetries int
}

// RetryConfig contains retry configuration.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
	}
}

// DispatcherConfig contains configuration for the Dispatcher.
type DispatcherConfig struct {
	Retry RetryConfig

	// DeadLetterQueueSize caps the queue; zero disables it.
	DeadLetterQueueSize int

	Logger *logger.Logger
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Retry:               DefaultRetryConfig(),
		DeadLetterQueueSize: 100,
	}
}

// NewDispatcher creates a dispatcher on top of bus. Call Start to attach it.
func NewDispatcher(bus shared.EventSubscriber, config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		bus:      bus,
		handlers: make(map[shared.EventType][]HandlerRegistration),
		retry:    config.Retry,
		logger:   config.Logger.With(logger.Component("dispatcher")),
		ctx:      ctx,
		cancel:   cancel,
	}
	if config.DeadLetterQueueSize > 0 {
		d.deadLetters = NewDeadLetterQueue(config.DeadLetterQueueSize)
	}
	return d
}

// Register adds a named handler for each of the given event types.
func (d *Dispatcher) Register(name string, handler shared.EventHandler, eventTypes ...shared.EventType) error {
	return d.RegisterHandler(HandlerRegistration{Name: name, Handler: handler}, eventTypes...)
}

// RegisterHandler adds reg for each of the given event types.
func (d *Dispatcher) RegisterHandler(reg HandlerRegistration, eventTypes ...shared.EventType) error {
	if reg.Handler == nil {
		return errors.New("handler cannot be nil")
	}
	if reg.Name == "" {
		return errors.New("handler name is required")
	}
	if len(eventTypes) == 0 {
		return fmt.Errorf("handler %s: no event types", reg.Name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range eventTypes {
		d.handlers[t] = append(d.handlers[t], reg)
	}
	d.logger.Debug("registered handler", logger.String("handler", reg.Name), logger.Int("event_types", len(eventTypes)))
	return nil
}

// Use appends middleware. The first added is the outermost.
func (d *Dispatcher) Use(mw ...Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, mw...)
}

// Start subscribes the dispatcher to every event on the bus.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = true
	d.mu.Unlock()
	return d.bus.SubscribeAll(d.Dispatch)
}

// Stop cancels pending retries.
func (d *Dispatcher) Stop() {
	d.cancel()
}

// DeadLetters returns the dead letter queue, or nil when disabled.
func (d *Dispatcher) DeadLetters() *DeadLetterQueue {
	return d.deadLetters
}

// Dispatch runs every handler registered for the event's type, in
// registration order. It returns the joined errors of handlers that gave up.
func (d *Dispatcher) Dispatch(event shared.Event) error {
	d.mu.RLock()
	regs := d.handlers[event.EventType()]
	middlewares := d.middlewares
	d.mu.RUnlock()

	var errs []error
	for _, reg := range regs {
		if err := d.run(event, reg, middlewares); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) run(event shared.Event, reg HandlerRegistration, middlewares []Middleware) error {
	handler := reg.Handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	retries := d.retry.MaxRetries
	if reg.MaxRetries > 0 {
		retries = reg.MaxRetries
	}

	attempts := 0
	op := func() error {
		attempts++
		err := handler(event)
		if err != nil && shared.IsValidation(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		d.logger.Warn("handler attempt failed",
			logger.String("handler", reg.Name),
			logger.Int("attempt", attempts),
			logger.Duration("backoff", wait),
			logger.Err(err),
		)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(d.newBackOff(), uint64(retries)), d.ctx), notify)
	if err == nil {
		return nil
	}

	if d.deadLetters != nil {
		d.deadLetters.Add(DeadLetterEntry{
			Event:       event,
			HandlerName: reg.Name,
			Err:         err,
			Attempts:    attempts,
			FailedAt:    time.Now(),
		})
	}
	return fmt.Errorf("handler %s failed after %d attempts: %w", reg.Name, attempts, err)
}

func (d *Dispatcher) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if d.retry.InitialInterval > 0 {
		b.InitialInterval = d.retry.InitialInterval
	}
	if d.retry.MaxInterval > 0 {
		b.MaxInterval = d.retry.MaxInterval
	}
	if d.retry.Multiplier > 0 {
		b.Multiplier = d.retry.Multiplier
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// RecoveryMiddleware turns a handler panic into an ErrHandlerPanic error.
func RecoveryMiddleware(log *logger.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("handler panic recovered",
						logger.EventType(string(event.EventType())),
						logger.Any("panic", r),
						logger.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
				}
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs every handler run.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			fields := []logger.Field{
				logger.EventType(string(event.EventType())),
				logger.String("aggregate_id", event.AggregateID()),
				logger.Latency(time.Since(start)),
			}
			if err != nil {
				log.Error("handler failed", append(fields, logger.Err(err))...)
				return err
			}
			log.Debug("handler completed", fields...)
			return nil
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetterEntry represents an event a handler gave up on.
type DeadLetterEntry struct {
	Event       shared.Event
	HandlerName string
	Err         error
	Attempts    int
	FailedAt    time.Time
}

// DeadLetterQueue keeps the most recent failed deliveries.
type DeadLetterQueue struct {
	mu      sync.Mutex
	entries []DeadLetterEntry
	maxSize int
}

// NewDeadLetterQueue creates a queue holding at most maxSize entries.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &DeadLetterQueue{maxSize: maxSize}
}

// Add appends an entry, dropping the oldest when full.
func (q *DeadLetterQueue) Add(entry DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns a copy of all entries, oldest first.
func (q *DeadLetterQueue) Entries() []DeadLetterEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]DeadLetterEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Size returns the current queue size.
func (q *DeadLetterQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Pop removes and returns the oldest entry.
func (q *DeadLetterQueue) Pop() (DeadLetterEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return DeadLetterEntry{}, false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e, true
}
