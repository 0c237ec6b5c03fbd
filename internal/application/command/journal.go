package command

import (
	"github.com/heron-guild/guildhall/internal/domain/badge"
	"github.com/heron-guild/guildhall/internal/domain/guild"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOURNAL COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// RecordEvidenceCommand attaches an attachment reference and/or a note to a
// requirement. Nil fields keep what is already recorded.
type RecordEvidenceCommand struct {
	BadgeID       string  `validate:"required"`
	RequirementID string  `validate:"required"`
	URL           *string `validate:"omitempty,max=2048"`
	Note          *string `validate:"omitempty,max=10000"`
}

// Validate validates the command.
func (c RecordEvidenceCommand) Validate() error { return validateStruct("RecordEvidence", c) }

// ToEvent implements Command.
func (c RecordEvidenceCommand) ToEvent() guild.Event {
	return guild.RecordEvidence{BadgeID: c.BadgeID, RequirementID: c.RequirementID, URL: c.URL, Note: c.Note}
}

// RevokeRequirementCommand clears a requirement's evidence.
type RevokeRequirementCommand struct {
	BadgeID       string `validate:"required"`
	RequirementID string `validate:"required"`
}

// Validate validates the command.
func (c RevokeRequirementCommand) Validate() error { return validateStruct("RevokeRequirement", c) }

// ToEvent implements Command.
func (c RevokeRequirementCommand) ToEvent() guild.Event {
	return guild.RevokeRequirement{BadgeID: c.BadgeID, RequirementID: c.RequirementID}
}

// UpdateReflectionCommand replaces a badge's reflection text.
type UpdateReflectionCommand struct {
	BadgeID string `validate:"required"`
	Text    string `validate:"max=20000"`
}

// Validate validates the command.
func (c UpdateReflectionCommand) Validate() error { return validateStruct("UpdateReflection", c) }

// ToEvent implements Command.
func (c UpdateReflectionCommand) ToEvent() guild.Event {
	return guild.UpdateReflection{BadgeID: c.BadgeID, Text: c.Text}
}

// DownloadBadgeCommand copies a library badge into the journal.
type DownloadBadgeCommand struct {
	BadgeID string `validate:"required"`
}

// Validate validates the command.
func (c DownloadBadgeCommand) Validate() error { return validateStruct("DownloadBadge", c) }

// ToEvent implements Command.
func (c DownloadBadgeCommand) ToEvent() guild.Event { return guild.DownloadBadge{BadgeID: c.BadgeID} }

// CreateBadgeCommand writes a self-authored badge into the journal.
// Field-level checks on the draft belong to the badge package.
type CreateBadgeCommand struct {
	Draft  badge.Draft
	Origin badge.Origin `validate:"omitempty,oneof=manual oracle"`
}

// Validate validates the command.
func (c CreateBadgeCommand) Validate() error { return validateStruct("CreateBadge", c) }

// ToEvent implements Command.
func (c CreateBadgeCommand) ToEvent() guild.Event {
	origin := c.Origin
	if origin == "" {
		origin = badge.OriginManual
	}
	return guild.CreateBadge{Draft: c.Draft, Origin: origin}
}

// ToggleShowcaseCommand flips a mastered badge in or out of the showcase.
type ToggleShowcaseCommand struct {
	BadgeID string `validate:"required"`
}

// Validate validates the command.
func (c ToggleShowcaseCommand) Validate() error { return validateStruct("ToggleShowcase", c) }

// ToEvent implements Command.
func (c ToggleShowcaseCommand) ToEvent() guild.Event { return guild.ToggleShowcase{BadgeID: c.BadgeID} }
