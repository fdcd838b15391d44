package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spennies/spennies/internal/domain"
)

const userColumns = "id, email, name, job_type, language, ai_tone, avg_income, savings_target, created_at, updated_at"

// CreateUser inserts a new user.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.JobType, u.Language, u.AITone,
		u.AvgIncome, u.SavingsTarget, formatTS(u.CreatedAt), formatTS(u.UpdatedAt))
	if err != nil {
		return fmt.Errorf("CreateUser: insert: %w", err)
	}
	return nil
}

// GetUser fetches a user by id.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("GetUser: user %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("GetUser: %w", err)
	}
	return u, nil
}

// GetUserByEmail fetches a user by email, or nil when absent.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetUserByEmail: %w", err)
	}
	return u, nil
}

// UpdateUserProfile persists the mutable profile fields of a user.
func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, u *domain.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("UpdateUserProfile: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, job_type = ?, language = ?, ai_tone = ?,
		     avg_income = ?, savings_target = ?, updated_at = ?
		 WHERE id = ?`,
		u.Name, u.JobType, u.Language, u.AITone,
		u.AvgIncome, u.SavingsTarget, formatTS(u.UpdatedAt), u.ID)
	if err != nil {
		return fmt.Errorf("UpdateUserProfile: update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdateUserProfile: user %s not found", u.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("UpdateUserProfile: commit: %w", err)
	}
	return nil
}

// ListUserIDs returns every user id. Used by the reminder worker.
func (s *SQLiteStore) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users`)
	if err != nil {
		return nil, fmt.Errorf("ListUserIDs: query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListUserIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u                domain.User
		created, updated string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.JobType, &u.Language, &u.AITone,
		&u.AvgIncome, &u.SavingsTarget, &created, &updated)
	if err != nil {
		return nil, err
	}
	if u.CreatedAt, err = parseTS(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTS(updated); err != nil {
		return nil, err
	}
	return &u, nil
}
