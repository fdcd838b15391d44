package store

import (
	"context"
	"fmt"

	"github.com/spennies/spennies/internal/domain"
)

// ReplaceInsights swaps the user's stored insights for a fresh batch in one
// transaction, so readers never observe a half-written set.
func (s *SQLiteStore) ReplaceInsights(ctx context.Context, userID string, insights []*domain.Insight) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReplaceInsights: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM ai_insights WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("ReplaceInsights: clear: %w", err)
	}

	for _, in := range insights {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ai_insights (id, user_id, insight_type, content, generated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			in.ID, in.UserID, string(in.InsightType), in.Content, formatTS(in.GeneratedAt))
		if err != nil {
			return fmt.Errorf("ReplaceInsights: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ReplaceInsights: commit: %w", err)
	}
	return nil
}

// ListInsights returns the user's stored insights, newest first.
func (s *SQLiteStore) ListInsights(ctx context.Context, userID string) ([]*domain.Insight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, insight_type, content, generated_at
		 FROM ai_insights WHERE user_id = ? ORDER BY generated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListInsights: query: %w", err)
	}
	defer rows.Close()

	var result []*domain.Insight
	for rows.Next() {
		var in domain.Insight
		var typ, genAt string
		if err := rows.Scan(&in.ID, &in.UserID, &typ, &in.Content, &genAt); err != nil {
			return nil, fmt.Errorf("ListInsights: scan: %w", err)
		}
		in.InsightType = domain.InsightType(typ)
		if in.GeneratedAt, err = parseTS(genAt); err != nil {
			return nil, err
		}
		result = append(result, &in)
	}
	return result, rows.Err()
}
