package store

import (
	"context"
	"fmt"

	"github.com/spennies/spennies/internal/domain"
)

// UpsertEstimate creates or replaces the budget estimate for a
// (user, category, month, year) key.
func (s *SQLiteStore) UpsertEstimate(ctx context.Context, e *domain.Estimate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("UpsertEstimate: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO estimates (id, user_id, category, estimated_amount, month, year, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, category, month, year)
		 DO UPDATE SET estimated_amount = excluded.estimated_amount, updated_at = excluded.updated_at`,
		e.ID, e.UserID, e.Category, e.EstimatedAmount, e.Month, e.Year,
		formatTS(e.CreatedAt), formatTS(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("UpsertEstimate: upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("UpsertEstimate: commit: %w", err)
	}
	return nil
}

// ListEstimates returns the user's budget estimates for one month.
func (s *SQLiteStore) ListEstimates(ctx context.Context, userID string, month, year int) ([]*domain.Estimate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, category, estimated_amount, month, year, created_at, updated_at
		 FROM estimates WHERE user_id = ? AND month = ? AND year = ?
		 ORDER BY category ASC`,
		userID, month, year)
	if err != nil {
		return nil, fmt.Errorf("ListEstimates: query: %w", err)
	}
	defer rows.Close()

	var result []*domain.Estimate
	for rows.Next() {
		var (
			e                domain.Estimate
			created, updated string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.EstimatedAmount,
			&e.Month, &e.Year, &created, &updated); err != nil {
			return nil, fmt.Errorf("ListEstimates: scan: %w", err)
		}
		if e.CreatedAt, err = parseTS(created); err != nil {
			return nil, err
		}
		if e.UpdatedAt, err = parseTS(updated); err != nil {
			return nil, err
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}
