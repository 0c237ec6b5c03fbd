package command

import (
	"context"
	"fmt"

	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCH
// Every user or Council action is a Command: it validates its own input and
// names the guild event it stands for.
// ══════════════════════════════════════════════════════════════════════════════

// Command is a validated write operation.
type Command interface {
	// Validate checks the input before anything touches the state.
	Validate() error

	// ToEvent returns the guild event the command stands for.
	ToEvent() guild.Event
}

// DispatchResult contains the outcome of a command.
type DispatchResult struct {
	// State is the state after the command.
	State guild.State

	// Events lists what changed, in order.
	Events []shared.Event
}

// Has reports whether an event of the given type was emitted.
func (r *DispatchResult) Has(t shared.EventType) bool {
	for _, e := range r.Events {
		if e.EventType() == t {
			return true
		}
	}
	return false
}

// DispatchHandler validates commands and applies them to the Store.
type DispatchHandler struct {
	store  *Store
	logger *logger.Logger
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(store *Store, log *logger.Logger) *DispatchHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DispatchHandler{
		store:  store,
		logger: log.With(logger.Component("dispatch")),
	}
}

// Handle validates cmd and applies its event.
func (h *DispatchHandler) Handle(ctx context.Context, cmd Command) (*DispatchResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: validation failed: %w", err)
	}

	ev := cmd.ToEvent()
	state, events, err := h.store.Dispatch(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %s: %w", ev.Name(), err)
	}

	h.logger.Info("command applied",
		logger.String("event", ev.Name()),
		logger.Int("domain_events", len(events)),
	)
	return &DispatchResult{State: state, Events: events}, nil
}
