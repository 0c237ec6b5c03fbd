// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "badge", "council", "member"
	Op      string // Operation that failed, e.g., "RecordEvidence", "Resolve"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Badge domain errors
var (
	ErrBadgeNotFound         = NewDomainError("badge", "Find", ErrNotFound, "badge not found")
	ErrBadgeAlreadyOwned     = NewDomainError("badge", "Download", ErrAlreadyExists, "badge already in journal")
	ErrInvalidDomain         = NewDomainError("badge", "Validate", ErrInvalidInput, "invalid domain")
	ErrInvalidDifficulty     = NewDomainError("badge", "Validate", ErrValueOutOfRange, "difficulty must be between 1 and 5")
	ErrEmptyBadgeTitle       = NewDomainError("badge", "Validate", ErrEmptyValue, "badge title cannot be empty")
	ErrDuplicateRequirements = NewDomainError("badge", "Validate", ErrInvalidInput, "requirement ids must be unique")
)

// Council domain errors
var (
	ErrRequestNotFound    = NewDomainError("council", "Find", ErrNotFound, "request not found")
	ErrInvalidResolution  = NewDomainError("council", "Resolve", ErrStateTransition, "invalid resolution status")
	ErrUnknownRequestKind = NewDomainError("council", "Resolve", ErrInvalidInput, "unknown request kind")
	ErrDuplicatePending   = NewDomainError("council", "Submit", ErrAlreadyExists, "a pending request already exists")
	ErrMissingPartnerName = NewDomainError("council", "Resolve", ErrEmptyValue, "partner name required for partner badge")
)

// Member domain errors
var (
	ErrInvalidTier           = NewDomainError("tier", "Validate", ErrInvalidInput, "invalid tier")
	ErrShowcaseNotMastered   = NewDomainError("member", "Showcase", ErrInvalidState, "only mastered badges can be showcased")
	ErrInvalidStorage        = NewDomainError("member", "UpdatePrivacy", ErrInvalidInput, "invalid storage location")
	ErrColonyNotFound        = NewDomainError("colony", "Find", ErrNotFound, "colony not found")
	ErrColonyNotApproved     = NewDomainError("colony", "Join", ErrInvalidState, "colony is not approved")
	ErrColonyAlreadyApproved = NewDomainError("colony", "Approve", ErrAlreadyProcessed, "colony already approved")
)

// External service errors
var (
	ErrOracleNotConfigured = NewDomainError("oracle", "Configure", ErrExternalService, "oracle API key is not configured")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsAlreadyProcessed checks if the error reports an already resolved request.
func IsAlreadyProcessed(err error) bool {
	return errors.Is(err, ErrAlreadyProcessed)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}
