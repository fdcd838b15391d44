package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spennies/spennies/internal/domain"
)

const transactionColumns = "id, user_id, amount, category, type, description, date, source, created_at, updated_at"

// InsertTransaction writes one transaction inside its own transaction scope.
func (s *SQLiteStore) InsertTransaction(ctx context.Context, t *domain.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InsertTransaction: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Amount, t.Category, string(t.Type), t.Description,
		formatDate(t.Date), string(t.Source), formatTS(t.CreatedAt), formatTS(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("InsertTransaction: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("InsertTransaction: commit: %w", err)
	}
	return nil
}

// DeleteTransaction removes one owned transaction by id.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("DeleteTransaction: transaction %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteTransaction: commit: %w", err)
	}
	return nil
}

// FindLatestMatch resolves a selection query against owned transactions.
// Candidates are ordered by date descending, ties broken by creation time
// descending, and only the best match is returned.
func (s *SQLiteStore) FindLatestMatch(ctx context.Context, userID string, f TransactionFilter) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []interface{}{userID}

	if f.Amount != nil {
		query += ` AND amount = ?`
		args = append(args, *f.Amount)
	}
	if strings.TrimSpace(f.Description) != "" {
		query += ` AND LOWER(description) LIKE ?`
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(f.Description))+"%")
	}
	query += ` ORDER BY date DESC, created_at DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, args...)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindLatestMatch: %w", err)
	}
	return t, nil
}

// ListTransactions returns the user's most recent transactions.
func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? ORDER BY date DESC, created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// MonthlyTotals sums income and expense amounts from monthStart onwards.
func (s *SQLiteStore) MonthlyTotals(ctx context.Context, userID string, monthStart time.Time) (MonthTotals, error) {
	var totals MonthTotals
	err := s.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN type = 'INCOME' THEN amount ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN type = 'EXPENSE' THEN amount ELSE 0 END), 0)
		 FROM transactions WHERE user_id = ? AND date >= ?`,
		userID, formatDate(monthStart)).Scan(&totals.Income, &totals.Expense)
	if err != nil {
		return MonthTotals{}, fmt.Errorf("MonthlyTotals: %w", err)
	}
	return totals, nil
}

// MonthlyCategoryTotals breaks down expenses by category from monthStart onwards.
func (s *SQLiteStore) MonthlyCategoryTotals(ctx context.Context, userID string, monthStart time.Time) ([]CategoryTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COALESCE(SUM(amount), 0)
		 FROM transactions
		 WHERE user_id = ? AND date >= ? AND type = 'EXPENSE'
		 GROUP BY category ORDER BY SUM(amount) DESC`,
		userID, formatDate(monthStart))
	if err != nil {
		return nil, fmt.Errorf("MonthlyCategoryTotals: query: %w", err)
	}
	defer rows.Close()

	var result []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("MonthlyCategoryTotals: scan: %w", err)
		}
		result = append(result, ct)
	}
	return result, rows.Err()
}

// TopExpenses returns the largest expenses of the month.
func (s *SQLiteStore) TopExpenses(ctx context.Context, userID string, monthStart time.Time, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 3
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? AND date >= ? AND type = 'EXPENSE'
		 ORDER BY amount DESC LIMIT ?`,
		userID, formatDate(monthStart), limit)
	if err != nil {
		return nil, fmt.Errorf("TopExpenses: query: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t                     domain.Transaction
		typ, source           string
		date, created, update string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Category, &typ,
		&t.Description, &date, &source, &created, &update)
	if err != nil {
		return nil, err
	}

	t.Type = domain.TransactionType(typ)
	t.Source = domain.TransactionSource(source)
	if t.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTS(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTS(update); err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]*domain.Transaction, error) {
	var result []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("collectTransactions: scan: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
