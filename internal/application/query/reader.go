// Package query contains read operations (CQRS - Queries).
package query

import "github.com/heron-guild/guildhall/internal/domain/guild"

// StateReader exposes the current guild state. command.Store implements it.
type StateReader interface {
	State() guild.State
}
