// Package service adapts infrastructure clients to the interfaces the
// application layer depends on.
package service

import "github.com/google/uuid"

// UUIDGenerator implements guild.IDGenerator with random UUIDs.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a UUIDGenerator.
func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

// NewID returns "<prefix>-<uuid>", or a bare uuid when prefix is empty.
func (UUIDGenerator) NewID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}
