package postgres

import (
	"context"
	"fmt"

	"github.com/heron-guild/guildhall/internal/domain/council"
)

// DecisionLogRepository implements council.DecisionLog for PostgreSQL.
type DecisionLogRepository struct {
	q Querier
}

// NewDecisionLogRepository creates a new DecisionLogRepository.
func NewDecisionLogRepository(q Querier) *DecisionLogRepository {
	return &DecisionLogRepository{q: q}
}

// Append inserts the decision unless one for the same request exists.
func (r *DecisionLogRepository) Append(ctx context.Context, d council.Decision) error {
	query := `
		INSERT INTO council_decisions (request_id, kind, submitter_id, status, feedback, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (request_id) DO NOTHING
	`
	_, err := r.q.Exec(ctx, query,
		d.RequestID, string(d.Kind), d.SubmitterID, string(d.Status), d.Feedback, d.DecidedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append decision: %w", err)
	}
	return nil
}

// List returns up to limit decisions, newest first. A non-positive limit returns all.
func (r *DecisionLogRepository) List(ctx context.Context, limit int) ([]council.Decision, error) {
	query := `
		SELECT request_id, kind, submitter_id, status, feedback, decided_at
		FROM council_decisions
		ORDER BY decided_at DESC, request_id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var out []council.Decision
	for rows.Next() {
		var (
			d            council.Decision
			kind, status string
		)
		if err := rows.Scan(&d.RequestID, &kind, &d.SubmitterID, &status, &d.Feedback, &d.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.Kind = council.Kind(kind)
		d.Status = council.Status(status)
		out = append(out, d)
	}
	return out, rows.Err()
}
