// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each one is emitted after a state change has been committed.
const (
	// Badge events
	EventBadgeAdded         EventType = "badge.added"
	EventEvidenceRecorded   EventType = "badge.evidence_recorded"
	EventEvidenceRevoked    EventType = "badge.evidence_revoked"
	EventBadgeMastered      EventType = "badge.mastered"
	EventBadgeMasteryLost   EventType = "badge.mastery_lost"
	EventReflectionUpdated  EventType = "badge.reflection_updated"
	EventLibraryBadgeMinted EventType = "library.badge_minted"

	// Council events
	EventRequestSubmitted EventType = "council.request_submitted"
	EventRequestResolved  EventType = "council.request_resolved"

	// Member events
	EventTierPromoted       EventType = "member.tier_promoted"
	EventPhysicalClaimed    EventType = "member.physical_claimed"
	EventShowcaseChanged    EventType = "member.showcase_changed"
	EventProfileUpdated     EventType = "member.profile_updated"
	EventCredentialsRotated EventType = "member.credentials_rotated"

	// Colony events
	EventColonyJoined   EventType = "colony.joined"
	EventColonyProposed EventType = "colony.proposed"
	EventColonyApproved EventType = "colony.approved"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event stamped with the given time.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeAddedEvent is emitted when a badge enters the user's journal.
type BadgeAddedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	BadgeID string `json:"badge_id"`
	Title   string `json:"title"`
	Origin  string `json:"origin"` // library, manual, oracle
}

// Payload implements Event interface.
func (e BadgeAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"badge_id": e.BadgeID,
		"title":    e.Title,
		"origin":   e.Origin,
	}
}

// NewBadgeAddedEvent creates a new BadgeAddedEvent.
func NewBadgeAddedEvent(userID, badgeID, title, origin string, at time.Time) BadgeAddedEvent {
	return BadgeAddedEvent{
		BaseEvent: NewBaseEvent(EventBadgeAdded, badgeID, at),
		UserID:    userID,
		BadgeID:   badgeID,
		Title:     title,
		Origin:    origin,
	}
}

// EvidenceEvent is emitted when evidence on a requirement is recorded or revoked.
type EvidenceEvent struct {
	BaseEvent
	BadgeID       string `json:"badge_id"`
	RequirementID string `json:"requirement_id"`
	Completed     bool   `json:"completed"`
}

// Payload implements Event interface.
func (e EvidenceEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"badge_id":       e.BadgeID,
		"requirement_id": e.RequirementID,
		"completed":      e.Completed,
	}
}

// NewEvidenceRecordedEvent creates an EvidenceEvent for a recording.
func NewEvidenceRecordedEvent(badgeID, requirementID string, completed bool, at time.Time) EvidenceEvent {
	return EvidenceEvent{
		BaseEvent:     NewBaseEvent(EventEvidenceRecorded, badgeID, at),
		BadgeID:       badgeID,
		RequirementID: requirementID,
		Completed:     completed,
	}
}

// NewEvidenceRevokedEvent creates an EvidenceEvent for a revocation.
func NewEvidenceRevokedEvent(badgeID, requirementID string, completed bool, at time.Time) EvidenceEvent {
	return EvidenceEvent{
		BaseEvent:     NewBaseEvent(EventEvidenceRevoked, badgeID, at),
		BadgeID:       badgeID,
		RequirementID: requirementID,
		Completed:     completed,
	}
}

// MasteryEvent is emitted when a badge crosses the mastery boundary in either direction.
type MasteryEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	BadgeID string `json:"badge_id"`
	Title   string `json:"title"`
}

// Payload implements Event interface.
func (e MasteryEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"badge_id": e.BadgeID,
		"title":    e.Title,
	}
}

// NewBadgeMasteredEvent creates a MasteryEvent for a badge that became mastered.
func NewBadgeMasteredEvent(userID, badgeID, title string, at time.Time) MasteryEvent {
	return MasteryEvent{
		BaseEvent: NewBaseEvent(EventBadgeMastered, badgeID, at),
		UserID:    userID,
		BadgeID:   badgeID,
		Title:     title,
	}
}

// NewBadgeMasteryLostEvent creates a MasteryEvent for a badge that fell back to in-progress.
func NewBadgeMasteryLostEvent(userID, badgeID, title string, at time.Time) MasteryEvent {
	return MasteryEvent{
		BaseEvent: NewBaseEvent(EventBadgeMasteryLost, badgeID, at),
		UserID:    userID,
		BadgeID:   badgeID,
		Title:     title,
	}
}

// ReflectionUpdatedEvent is emitted when a badge reflection changes.
type ReflectionUpdatedEvent struct {
	BaseEvent
	BadgeID string `json:"badge_id"`
	Length  int    `json:"length"`
}

// Payload implements Event interface.
func (e ReflectionUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"badge_id": e.BadgeID,
		"length":   e.Length,
	}
}

// NewReflectionUpdatedEvent creates a new ReflectionUpdatedEvent.
func NewReflectionUpdatedEvent(badgeID string, length int, at time.Time) ReflectionUpdatedEvent {
	return ReflectionUpdatedEvent{
		BaseEvent: NewBaseEvent(EventReflectionUpdated, badgeID, at),
		BadgeID:   badgeID,
		Length:    length,
	}
}

// LibraryBadgeMintedEvent is emitted when an approved proposal becomes an official badge.
type LibraryBadgeMintedEvent struct {
	BaseEvent
	BadgeID     string `json:"badge_id"`
	RequestID   string `json:"request_id"`
	Title       string `json:"title"`
	PartnerName string `json:"partner_name,omitempty"`
}

// Payload implements Event interface.
func (e LibraryBadgeMintedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"badge_id":     e.BadgeID,
		"request_id":   e.RequestID,
		"title":        e.Title,
		"partner_name": e.PartnerName,
	}
}

// NewLibraryBadgeMintedEvent creates a new LibraryBadgeMintedEvent.
func NewLibraryBadgeMintedEvent(badgeID, requestID, title, partnerName string, at time.Time) LibraryBadgeMintedEvent {
	return LibraryBadgeMintedEvent{
		BaseEvent:   NewBaseEvent(EventLibraryBadgeMinted, badgeID, at),
		BadgeID:     badgeID,
		RequestID:   requestID,
		Title:       title,
		PartnerName: partnerName,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Council Events
// ═══════════════════════════════════════════════════════════════════════════

// RequestSubmittedEvent is emitted when a request enters the Council queue.
type RequestSubmittedEvent struct {
	BaseEvent
	RequestID   string `json:"request_id"`
	Kind        string `json:"kind"`
	SubmitterID string `json:"submitter_id"`
}

// Payload implements Event interface.
func (e RequestSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"request_id":   e.RequestID,
		"kind":         e.Kind,
		"submitter_id": e.SubmitterID,
	}
}

// NewRequestSubmittedEvent creates a new RequestSubmittedEvent.
func NewRequestSubmittedEvent(requestID, kind, submitterID string, at time.Time) RequestSubmittedEvent {
	return RequestSubmittedEvent{
		BaseEvent:   NewBaseEvent(EventRequestSubmitted, requestID, at),
		RequestID:   requestID,
		Kind:        kind,
		SubmitterID: submitterID,
	}
}

// RequestResolvedEvent is emitted when the Council decides a pending request.
type RequestResolvedEvent struct {
	BaseEvent
	RequestID   string `json:"request_id"`
	Kind        string `json:"kind"`
	SubmitterID string `json:"submitter_id"`
	Status      string `json:"status"`
	Feedback    string `json:"feedback,omitempty"`
}

// Payload implements Event interface.
func (e RequestResolvedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"request_id":   e.RequestID,
		"kind":         e.Kind,
		"submitter_id": e.SubmitterID,
		"status":       e.Status,
		"feedback":     e.Feedback,
	}
}

// NewRequestResolvedEvent creates a new RequestResolvedEvent.
func NewRequestResolvedEvent(requestID, kind, submitterID, status, feedback string, at time.Time) RequestResolvedEvent {
	return RequestResolvedEvent{
		BaseEvent:   NewBaseEvent(EventRequestResolved, requestID, at),
		RequestID:   requestID,
		Kind:        kind,
		SubmitterID: submitterID,
		Status:      status,
		Feedback:    feedback,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Member Events
// ═══════════════════════════════════════════════════════════════════════════

// TierPromotedEvent is emitted when an approved promotion changes the user's tier.
type TierPromotedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	FromTier string `json:"from_tier"`
	ToTier   string `json:"to_tier"`
}

// Payload implements Event interface.
func (e TierPromotedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"from_tier": e.FromTier,
		"to_tier":   e.ToTier,
	}
}

// NewTierPromotedEvent creates a new TierPromotedEvent.
func NewTierPromotedEvent(userID, from, to string, at time.Time) TierPromotedEvent {
	return TierPromotedEvent{
		BaseEvent: NewBaseEvent(EventTierPromoted, userID, at),
		UserID:    userID,
		FromTier:  from,
		ToTier:    to,
	}
}

// PhysicalClaimedEvent is emitted when a physical artifact request is priced and filed.
type PhysicalClaimedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	BadgeID   string `json:"badge_id"`
	RequestID string `json:"request_id"`
	Cost      Cents  `json:"cost"`
}

// Payload implements Event interface.
func (e PhysicalClaimedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"badge_id":   e.BadgeID,
		"request_id": e.RequestID,
		"cost":       e.Cost.String(),
	}
}

// NewPhysicalClaimedEvent creates a new PhysicalClaimedEvent.
func NewPhysicalClaimedEvent(userID, badgeID, requestID string, cost Cents, at time.Time) PhysicalClaimedEvent {
	return PhysicalClaimedEvent{
		BaseEvent: NewBaseEvent(EventPhysicalClaimed, userID, at),
		UserID:    userID,
		BadgeID:   badgeID,
		RequestID: requestID,
		Cost:      cost,
	}
}

// MemberChangedEvent covers profile-level changes that carry only a short detail.
type MemberChangedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Detail string `json:"detail"`
}

// Payload implements Event interface.
func (e MemberChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"detail":  e.Detail,
	}
}

// NewMemberChangedEvent creates a MemberChangedEvent of the given type.
func NewMemberChangedEvent(eventType EventType, userID, detail string, at time.Time) MemberChangedEvent {
	return MemberChangedEvent{
		BaseEvent: NewBaseEvent(eventType, userID, at),
		UserID:    userID,
		Detail:    detail,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Colony Events
// ═══════════════════════════════════════════════════════════════════════════

// ColonyEvent is emitted for colony membership and lifecycle changes.
type ColonyEvent struct {
	BaseEvent
	ColonyID string `json:"colony_id"`
	Name     string `json:"name"`
	UserID   string `json:"user_id,omitempty"`
}

// Payload implements Event interface.
func (e ColonyEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"colony_id": e.ColonyID,
		"name":      e.Name,
		"user_id":   e.UserID,
	}
}

// NewColonyEvent creates a ColonyEvent of the given type.
func NewColonyEvent(eventType EventType, colonyID, name, userID string, at time.Time) ColonyEvent {
	return ColonyEvent{
		BaseEvent: NewBaseEvent(eventType, colonyID, at),
		ColonyID:  colonyID,
		Name:      name,
		UserID:    userID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to all subscribed handlers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
