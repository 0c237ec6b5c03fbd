package council

import (
	"context"
	"time"
)

// Decision is one resolved request as recorded in the council's decision log.
type Decision struct {
	RequestID   string    `json:"requestId"`
	Kind        Kind      `json:"kind"`
	SubmitterID string    `json:"userId"`
	Status      Status    `json:"status"`
	Feedback    string    `json:"feedback,omitempty"`
	DecidedAt   time.Time `json:"decidedAt"`
}

// DecisionLog is an append-only record of council resolutions.
type DecisionLog interface {
	// Append stores a decision. Appending the same request twice is a no-op.
	Append(ctx context.Context, d Decision) error

	// List returns the most recent decisions first, at most limit of them.
	List(ctx context.Context, limit int) ([]Decision, error)
}
