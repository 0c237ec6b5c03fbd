// Package eventhandler holds subscribers to domain events. They run after a
// state change is committed and never feed back into the workflow engine.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON REQUEST RESOLVED HANDLER
// Appends every Council decision to the decision log.
// ═══════════════════════════════════════════════════════════════════════════

// DecisionLogConfig configures OnRequestResolvedHandler.
type DecisionLogConfig struct {
	// Timeout bounds one append.
	Timeout time.Duration
}

// DefaultDecisionLogConfig returns the default configuration.
func DefaultDecisionLogConfig() DecisionLogConfig {
	return DecisionLogConfig{Timeout: 5 * time.Second}
}

// OnRequestResolvedHandler records Council decisions.
type OnRequestResolvedHandler struct {
	log    council.DecisionLog
	config DecisionLogConfig
	logger *logger.Logger
}

// NewOnRequestResolvedHandler creates a new OnRequestResolvedHandler.
func NewOnRequestResolvedHandler(log council.DecisionLog, config DecisionLogConfig, l *logger.Logger) *OnRequestResolvedHandler {
	if l == nil {
		l = logger.Nop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultDecisionLogConfig().Timeout
	}
	return &OnRequestResolvedHandler{
		log:    log,
		config: config,
		logger: l.With(logger.String("handler", "on_request_resolved")),
	}
}

// Handle implements shared.EventHandler.
func (h *OnRequestResolvedHandler) Handle(event shared.Event) error {
	resolved, ok := event.(shared.RequestResolvedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", logger.EventType(string(event.EventType())))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	d := council.Decision{
		RequestID:   resolved.RequestID,
		Kind:        council.Kind(resolved.Kind),
		SubmitterID: resolved.SubmitterID,
		Status:      council.Status(resolved.Status),
		Feedback:    resolved.Feedback,
		DecidedAt:   resolved.OccurredAt(),
	}
	if err := h.log.Append(ctx, d); err != nil {
		h.logger.Error("failed to record decision",
			logger.RequestID(d.RequestID),
			logger.Err(err),
		)
		return fmt.Errorf("append decision: %w", err)
	}

	h.logger.Info("decision recorded",
		logger.RequestID(d.RequestID),
		logger.RequestKind(string(d.Kind)),
		logger.String("status", string(d.Status)),
	)
	return nil
}
