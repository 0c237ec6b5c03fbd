// Package council models the requests members file with the Council and the
// single pending → resolved lifecycle they all share.
package council

import (
	"fmt"
	"time"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the lifecycle state shared by every request kind.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusNeedsInfo Status = "needs_info"
)

// IsValid checks the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusNeedsInfo:
		return true
	default:
		return false
	}
}

// IsResolution reports whether s is a valid target of a resolution.
func (s Status) IsResolution() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusNeedsInfo
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s.IsResolution()
}

// ParseStatus parses a resolution target, accepting "needs-info" as well.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "approve", "approved":
		return StatusApproved, nil
	case "reject", "rejected":
		return StatusRejected, nil
	case "needs_info", "needs-info", "info":
		return StatusNeedsInfo, nil
	case "pending":
		return StatusPending, nil
	}
	return "", shared.WrapError("council", "ParseStatus", shared.ErrInvalidInput,
		fmt.Sprintf("unknown status %q", s), nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// KIND
// ══════════════════════════════════════════════════════════════════════════════

// Kind tags the six request variants.
type Kind string

const (
	KindVerification Kind = "verification"
	KindProposal     Kind = "proposal"
	KindPromotion    Kind = "promotion"
	KindLink         Kind = "link"
	KindPartnership  Kind = "partnership"
	KindPhysical     Kind = "physical"
)

// Kinds lists every request kind.
var Kinds = []Kind{KindVerification, KindProposal, KindPromotion, KindLink, KindPartnership, KindPhysical}

// IsValid checks the kind is known.
func (k Kind) IsValid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// HEADER
// ══════════════════════════════════════════════════════════════════════════════

// Header carries the fields every request shares.
type Header struct {
	ID            string     `json:"id"`
	SubmitterID   string     `json:"userId"`
	SubmitterName string     `json:"userName"`
	SubmittedAt   time.Time  `json:"submittedAt"`
	Status        Status     `json:"status"`
	Feedback      string     `json:"feedback,omitempty"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
}

// NewHeader creates a pending header.
func NewHeader(id, submitterID, submitterName string, at time.Time) Header {
	return Header{
		ID:            id,
		SubmitterID:   submitterID,
		SubmitterName: submitterName,
		SubmittedAt:   at,
		Status:        StatusPending,
	}
}

// Head gives mutable access to the header of any request.
func (h *Header) Head() *Header { return h }

// IsPending reports whether the request awaits a decision.
func (h *Header) IsPending() bool { return h.Status == StatusPending }

// Resolve moves a pending request to a resolution status. Any other starting
// status is rejected so that side effects can never be applied twice.
func (h *Header) Resolve(to Status, feedback string, at time.Time) error {
	if !to.IsResolution() {
		return shared.WrapError("council", "Resolve", shared.ErrStateTransition,
			fmt.Sprintf("cannot resolve to %q", to), nil)
	}
	if h.Status != StatusPending {
		return shared.WrapError("council", "Resolve", shared.ErrAlreadyProcessed,
			fmt.Sprintf("request %s is already %s", h.ID, h.Status), nil)
	}
	h.Status = to
	if feedback != "" {
		h.Feedback = feedback
	}
	h.ResolvedAt = &at
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST
// ══════════════════════════════════════════════════════════════════════════════

// Request is implemented by the six request variants in this package only.
type Request interface {
	Kind() Kind
	Head() *Header
	sealed()
}

func (*Verification) sealed()   {}
func (*Proposal) sealed()       {}
func (*Promotion) sealed()      {}
func (*LinkSuggestion) sealed() {}
func (*Partnership) sealed()    {}
func (*Physical) sealed()       {}

// Kind implements Request.
func (*Verification) Kind() Kind { return KindVerification }

// Kind implements Request.
func (*Proposal) Kind() Kind { return KindProposal }

// Kind implements Request.
func (*Promotion) Kind() Kind { return KindPromotion }

// Kind implements Request.
func (*LinkSuggestion) Kind() Kind { return KindLink }

// Kind implements Request.
func (*Partnership) Kind() Kind { return KindPartnership }

// Kind implements Request.
func (*Physical) Kind() Kind { return KindPhysical }
