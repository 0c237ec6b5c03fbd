package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON MEMBER MILESTONE HANDLER
// Turns the events a member cares about into short notices: mastery gained
// or lost, promotions, Council decisions, artifact claims, new library badges.
// ═══════════════════════════════════════════════════════════════════════════

// Notice is a message for the member.
type Notice struct {
	UserID string
	Title  string
	Body   string
	At     time.Time
}

// Notifier delivers notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// MilestoneEvents lists the event types OnMemberMilestoneHandler understands.
var MilestoneEvents = []shared.EventType{
	shared.EventBadgeMastered,
	shared.EventBadgeMasteryLost,
	shared.EventTierPromoted,
	shared.EventRequestResolved,
	shared.EventPhysicalClaimed,
	shared.EventLibraryBadgeMinted,
}

// OnMemberMilestoneHandler sends notices for milestone events.
type OnMemberMilestoneHandler struct {
	notifier Notifier
	userID   string
	logger   *logger.Logger
}

// NewOnMemberMilestoneHandler creates a new handler for the given member.
func NewOnMemberMilestoneHandler(notifier Notifier, userID string, l *logger.Logger) *OnMemberMilestoneHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &OnMemberMilestoneHandler{
		notifier: notifier,
		userID:   userID,
		logger:   l.With(logger.String("handler", "on_member_milestone")),
	}
}

// Handle implements shared.EventHandler.
func (h *OnMemberMilestoneHandler) Handle(event shared.Event) error {
	n, ok := h.compose(event)
	if !ok {
		h.logger.Debug("no notice for event", logger.EventType(string(event.EventType())))
		return nil
	}
	n.UserID = h.userID
	n.At = event.OccurredAt()

	if err := h.notifier.Notify(context.Background(), n); err != nil {
		h.logger.Warn("failed to deliver notice", logger.Err(err))
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

func (h *OnMemberMilestoneHandler) compose(event shared.Event) (Notice, bool) {
	switch e := event.(type) {
	case shared.MasteryEvent:
		if e.EventType() == shared.EventBadgeMastered {
			return Notice{Title: "Badge mastered", Body: fmt.Sprintf("Every requirement of %q is complete.", e.Title)}, true
		}
		return Notice{Title: "Mastery revoked", Body: fmt.Sprintf("%q needs evidence again.", e.Title)}, true
	case shared.TierPromotedEvent:
		return Notice{Title: "Ascension granted", Body: fmt.Sprintf("You rose from %s to %s.", e.FromTier, e.ToTier)}, true
	case shared.RequestResolvedEvent:
		body := fmt.Sprintf("Your %s request %s was %s.", e.Kind, e.RequestID, e.Status)
		if e.Feedback != "" {
			body += " Council notes: " + e.Feedback
		}
		return Notice{Title: "Council decision", Body: body}, true
	case shared.PhysicalClaimedEvent:
		if e.Cost.IsFree() {
			return Notice{Title: "Artifact requested", Body: "Your first artifact of this badge is free."}, true
		}
		return Notice{Title: "Artifact requested", Body: fmt.Sprintf("Forging fee: %s.", e.Cost)}, true
	case shared.LibraryBadgeMintedEvent:
		body := fmt.Sprintf("%q joined the official library.", e.Title)
		if e.PartnerName != "" {
			body = fmt.Sprintf("%q joined the official library in partnership with %s.", e.Title, e.PartnerName)
		}
		return Notice{Title: "New library badge", Body: body}, true
	default:
		return Notice{}, false
	}
}
