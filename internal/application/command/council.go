package command

import (
	"strings"

	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/internal/domain/tier"
)

// ══════════════════════════════════════════════════════════════════════════════
// COUNCIL COMMANDS
// Submissions open a pending request; ResolveRequestCommand closes one.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitVerificationCommand asks the Council to verify a mastered badge.
type SubmitVerificationCommand struct {
	BadgeID string `validate:"required"`
}

// Validate validates the command.
func (c SubmitVerificationCommand) Validate() error { return validateStruct("SubmitVerification", c) }

// ToEvent implements Command.
func (c SubmitVerificationCommand) ToEvent() guild.Event {
	return guild.SubmitVerification{BadgeID: c.BadgeID}
}

// SubmitProposalCommand offers a badge for the official library.
type SubmitProposalCommand struct {
	Draft   badge.Draft
	Origin  badge.Origin `validate:"omitempty,oneof=manual oracle"`
	Goal    string       `validate:"max=2000"`
	Metrics string       `validate:"max=2000"`
}

// Validate validates the command.
func (c SubmitProposalCommand) Validate() error { return validateStruct("SubmitProposal", c) }

// ToEvent implements Command.
func (c SubmitProposalCommand) ToEvent() guild.Event {
	return guild.SubmitProposal{Draft: c.Draft, Origin: c.Origin, Goal: c.Goal, Metrics: c.Metrics}
}

// SubmitPromotionCommand petitions for a higher tier. Prerequisites are not
// checked here; the Council judges them.
type SubmitPromotionCommand struct {
	TargetTier         string `validate:"required"`
	SupportingBadgeIDs []string
	Statements         []council.ActionStatement
}

// Validate validates the command.
func (c SubmitPromotionCommand) Validate() error {
	if err := validateStruct("SubmitPromotion", c); err != nil {
		return err
	}
	if _, err := tier.Parse(c.TargetTier); err != nil {
		return shared.WrapError("command", "SubmitPromotion", shared.ErrValidation, "unknown target tier", err)
	}
	for _, st := range c.Statements {
		if shared.IsBlank(st.RequirementID) {
			return shared.NewDomainError("command", "SubmitPromotion", shared.ErrValidation,
				"every action statement must name its requirement")
		}
	}
	return nil
}

// ToEvent implements Command.
func (c SubmitPromotionCommand) ToEvent() guild.Event {
	t, _ := tier.Parse(c.TargetTier)
	return guild.SubmitPromotion{
		TargetTier:         t,
		SupportingBadgeIDs: c.SupportingBadgeIDs,
		Statements:         c.Statements,
	}
}

// SubmitLinkSuggestionCommand proposes a resource link for a badge.
type SubmitLinkSuggestionCommand struct {
	BadgeID string `validate:"required"`
	Label   string `validate:"required,max=200"`
	URL     string `validate:"required,url"`
}

// Validate validates the command.
func (c SubmitLinkSuggestionCommand) Validate() error {
	return validateStruct("SubmitLinkSuggestion", c)
}

// ToEvent implements Command.
func (c SubmitLinkSuggestionCommand) ToEvent() guild.Event {
	return guild.SubmitLinkSuggestion{
		BadgeID: c.BadgeID,
		Label:   strings.TrimSpace(c.Label),
		URL:     strings.TrimSpace(c.URL),
	}
}

// SubmitPartnershipCommand proposes a collaboration.
type SubmitPartnershipCommand struct {
	PartnerName string `validate:"required,max=200"`
	PartnerType string `validate:"required,oneof=Organization Creator Institution"`
	Description string `validate:"max=5000"`
	WebsiteURL  string `validate:"omitempty,url"`
}

// Validate validates the command.
func (c SubmitPartnershipCommand) Validate() error { return validateStruct("SubmitPartnership", c) }

// ToEvent implements Command.
func (c SubmitPartnershipCommand) ToEvent() guild.Event {
	return guild.SubmitPartnership{
		PartnerName: strings.TrimSpace(c.PartnerName),
		PartnerType: council.PartnerType(c.PartnerType),
		Description: c.Description,
		WebsiteURL:  c.WebsiteURL,
	}
}

// SubmitPhysicalCommand requests a physical artifact of a mastered badge.
type SubmitPhysicalCommand struct {
	BadgeID string `validate:"required"`
}

// Validate validates the command.
func (c SubmitPhysicalCommand) Validate() error { return validateStruct("SubmitPhysical", c) }

// ToEvent implements Command.
func (c SubmitPhysicalCommand) ToEvent() guild.Event { return guild.SubmitPhysical{BadgeID: c.BadgeID} }

// ResolveRequestCommand records a Council decision. Kind may be left empty.
type ResolveRequestCommand struct {
	Kind      string `validate:"omitempty,oneof=verification proposal promotion link partnership physical"`
	RequestID string `validate:"required"`
	Status    string `validate:"required"`
	Feedback  string `validate:"max=5000"`

	AsPartnerBadge bool
	PartnerName    string `validate:"required_if=AsPartnerBadge true"`
}

// Validate validates the command.
func (c ResolveRequestCommand) Validate() error {
	if err := validateStruct("ResolveRequest", c); err != nil {
		return err
	}
	st, err := council.ParseStatus(c.Status)
	if err != nil || !st.IsResolution() {
		return shared.NewDomainError("command", "ResolveRequest", shared.ErrValidation,
			"status must be approved, rejected or needs_info")
	}
	return nil
}

// ToEvent implements Command.
func (c ResolveRequestCommand) ToEvent() guild.Event {
	st, _ := council.ParseStatus(c.Status)
	return guild.ResolveRequest{
		Kind:           council.Kind(c.Kind),
		RequestID:      c.RequestID,
		Status:         st,
		Feedback:       c.Feedback,
		AsPartnerBadge: c.AsPartnerBadge,
		PartnerName:    strings.TrimSpace(c.PartnerName),
	}
}
