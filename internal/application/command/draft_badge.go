package command

import (
	"context"
	"fmt"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DRAFT BADGE COMMAND
// Asks the drafting collaborator for a badge outline. Nothing is committed:
// the caller reviews the draft and submits it with CreateBadgeCommand or
// SubmitProposalCommand, or discards it.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeDrafter produces a badge outline for a topic.
type BadgeDrafter interface {
	DraftBadge(ctx context.Context, topic, goal string) (badge.Draft, error)
}

// DraftBadgeCommand contains the drafting input.
type DraftBadgeCommand struct {
	Topic string `validate:"required,max=500"`
	Goal  string `validate:"max=2000"`
}

// Validate validates the command.
func (c DraftBadgeCommand) Validate() error { return validateStruct("DraftBadge", c) }

// DraftBadgeResult contains the draft.
type DraftBadgeResult struct {
	// Draft is always usable: normalized, with defaults filled in.
	Draft badge.Draft

	// Fallback is true when the placeholder draft was substituted.
	Fallback bool

	// Reason explains the fallback.
	Reason string
}

// DraftBadgeHandler handles DraftBadgeCommand.
type DraftBadgeHandler struct {
	drafter BadgeDrafter
	enabled func() bool
	logger  *logger.Logger
}

// NewDraftBadgeHandler creates a new DraftBadgeHandler. drafter may be nil
// and enabled may be nil (always on).
func NewDraftBadgeHandler(drafter BadgeDrafter, enabled func() bool, log *logger.Logger) *DraftBadgeHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DraftBadgeHandler{
		drafter: drafter,
		enabled: enabled,
		logger:  log.With(logger.Component("draft_badge")),
	}
}

// Handle returns a draft. Collaborator failures never surface as errors;
// only invalid input does.
func (h *DraftBadgeHandler) Handle(ctx context.Context, cmd DraftBadgeCommand) (*DraftBadgeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("draft_badge: validation failed: %w", err)
	}

	fallback := func(reason string) *DraftBadgeResult {
		return &DraftBadgeResult{
			Draft:    badge.PlaceholderDraft(cmd.Topic).Normalize(),
			Fallback: true,
			Reason:   reason,
		}
	}

	if h.drafter == nil {
		return fallback("drafting is not configured"), nil
	}
	if h.enabled != nil && !h.enabled() {
		return fallback("drafting is disabled"), nil
	}

	draft, err := h.drafter.DraftBadge(ctx, cmd.Topic, cmd.Goal)
	if err != nil {
		h.logger.Warn("drafting failed, using placeholder", logger.Err(err))
		return fallback(err.Error()), nil
	}

	return &DraftBadgeResult{Draft: draft.Normalize()}, nil
}
