package command

import (
	"strings"

	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/member"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE AND COLONY COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePrivacyCommand replaces storage preferences.
type UpdatePrivacyCommand struct {
	StorageLocation string `validate:"required,oneof=local personal_cloud guild_sync"`
	Encrypted       bool
	AutoSync        bool
}

// Validate validates the command.
func (c UpdatePrivacyCommand) Validate() error { return validateStruct("UpdatePrivacy", c) }

// ToEvent implements Command.
func (c UpdatePrivacyCommand) ToEvent() guild.Event {
	return guild.UpdatePrivacy{Privacy: member.Privacy{
		StorageLocation: member.StorageLocation(c.StorageLocation),
		IsEncrypted:     c.Encrypted,
		AutoSync:        c.AutoSync,
	}}
}

// JoinColonyCommand affiliates the member with an approved colony.
type JoinColonyCommand struct {
	ColonyID string `validate:"required"`
}

// Validate validates the command.
func (c JoinColonyCommand) Validate() error { return validateStruct("JoinColony", c) }

// ToEvent implements Command.
func (c JoinColonyCommand) ToEvent() guild.Event { return guild.JoinColony{ColonyID: c.ColonyID} }

// ProposeColonyCommand founds a colony awaiting approval.
type ProposeColonyCommand struct {
	Name    string `validate:"required,max=120"`
	Siege   string `validate:"required,max=120"`
	Charter string `validate:"max=5000"`
}

// Validate validates the command.
func (c ProposeColonyCommand) Validate() error { return validateStruct("ProposeColony", c) }

// ToEvent implements Command.
func (c ProposeColonyCommand) ToEvent() guild.Event {
	return guild.ProposeColony{
		ColonyName: strings.TrimSpace(c.Name),
		Siege:      strings.TrimSpace(c.Siege),
		Charter:    c.Charter,
	}
}

// ApproveColonyCommand charters a proposed colony.
type ApproveColonyCommand struct {
	ColonyID string `validate:"required"`
}

// Validate validates the command.
func (c ApproveColonyCommand) Validate() error { return validateStruct("ApproveColony", c) }

// ToEvent implements Command.
func (c ApproveColonyCommand) ToEvent() guild.Event { return guild.ApproveColony{ColonyID: c.ColonyID} }
