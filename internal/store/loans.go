package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spennies/spennies/internal/domain"
)

const loanColumns = "id, user_id, lender_name, amount, purpose, date_taken, due_date, interest_rate, reminder_days, is_paid, paid_date, created_at"

// InsertLoan writes one loan inside its own transaction scope.
func (s *SQLiteStore) InsertLoan(ctx context.Context, l *domain.Loan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InsertLoan: begin: %w", err)
	}
	defer tx.Rollback()

	var paidDate interface{}
	if l.PaidDate != nil {
		paidDate = formatTS(*l.PaidDate)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO loans (`+loanColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.LenderName, l.Amount, l.Purpose,
		formatDate(l.DateTaken), formatDate(l.DueDate),
		l.InterestRate, l.ReminderDays, boolToInt(l.IsPaid), paidDate, formatTS(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("InsertLoan: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("InsertLoan: commit: %w", err)
	}
	return nil
}

// DeleteLoan removes one owned loan by id.
func (s *SQLiteStore) DeleteLoan(ctx context.Context, userID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteLoan: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM loans WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("DeleteLoan: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("DeleteLoan: loan %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteLoan: commit: %w", err)
	}
	return nil
}

// FindLoanByLender returns the first matching loan by lender substring,
// oldest first, or nil when nothing matches.
func (s *SQLiteStore) FindLoanByLender(ctx context.Context, userID, lender string, unpaidOnly bool) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id = ?`
	args := []interface{}{userID}

	if unpaidOnly {
		query += ` AND is_paid = 0`
	}
	if strings.TrimSpace(lender) != "" {
		query += ` AND LOWER(lender_name) LIKE ?`
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(lender))+"%")
	}
	query += ` ORDER BY created_at ASC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, args...)
	l, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindLoanByLender: %w", err)
	}
	return l, nil
}

// MarkLoanPaid sets the paid flag and paid date on one owned loan.
func (s *SQLiteStore) MarkLoanPaid(ctx context.Context, userID, id string, paidAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("MarkLoanPaid: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE loans SET is_paid = 1, paid_date = ? WHERE user_id = ? AND id = ? AND is_paid = 0`,
		formatTS(paidAt), userID, id)
	if err != nil {
		return fmt.Errorf("MarkLoanPaid: update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("MarkLoanPaid: no unpaid loan %s", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("MarkLoanPaid: commit: %w", err)
	}
	return nil
}

// ListOpenLoans returns the user's unpaid loans, oldest first.
func (s *SQLiteStore) ListOpenLoans(ctx context.Context, userID string) ([]*domain.Loan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans
		 WHERE user_id = ? AND is_paid = 0 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListOpenLoans: query: %w", err)
	}
	defer rows.Close()

	return collectLoans(rows)
}

// ListLoans returns all of the user's loans, newest first.
func (s *SQLiteStore) ListLoans(ctx context.Context, userID string) ([]*domain.Loan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans
		 WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListLoans: query: %w", err)
	}
	defer rows.Close()

	return collectLoans(rows)
}

// ListLoansDue returns unpaid loans across all users whose reminder window
// includes today. The window is reminder_days before the due date.
func (s *SQLiteStore) ListLoansDue(ctx context.Context, today time.Time) ([]*domain.Loan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans
		 WHERE is_paid = 0
		   AND due_date >= ?
		   AND date(due_date, '-' || reminder_days || ' days') <= ?
		 ORDER BY due_date ASC`,
		formatDate(today), formatDate(today))
	if err != nil {
		return nil, fmt.Errorf("ListLoansDue: query: %w", err)
	}
	defer rows.Close()

	return collectLoans(rows)
}

func scanLoan(row rowScanner) (*domain.Loan, error) {
	var l domain.Loan
	var dateTaken, dueDate, created string
	var isPaid int
	var paidDate sql.NullString
	err := row.Scan(&l.ID, &l.UserID, &l.LenderName, &l.Amount, &l.Purpose,
		&dateTaken, &dueDate, &l.InterestRate, &l.ReminderDays, &isPaid, &paidDate, &created)
	if err != nil {
		return nil, err
	}

	l.IsPaid = isPaid != 0
	if l.DateTaken, err = parseDate(dateTaken); err != nil {
		return nil, err
	}
	if l.DueDate, err = parseDate(dueDate); err != nil {
		return nil, err
	}
	if l.CreatedAt, err = parseTS(created); err != nil {
		return nil, err
	}
	if paidDate.Valid {
		t, err := parseTS(paidDate.String)
		if err != nil {
			return nil, err
		}
		l.PaidDate = &t
	}
	return &l, nil
}

func collectLoans(rows *sql.Rows) ([]*domain.Loan, error) {
	var result []*domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("collectLoans: scan: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
