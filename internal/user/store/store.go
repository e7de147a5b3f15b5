package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/database"
	"github.com/MrJamesThe3rd/bonsai/internal/user"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectUserColumns = `
	u.id, u.first_name, u.last_name, u.email, u.password_hash, u.company_id, u.created_at, u.updated_at
`

func (s *Store) scanUser(ctx context.Context, row *sql.Row) (*user.User, error) {
	var u user.User

	if err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.CompanyID, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	ids, err := s.transactionIDs(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	u.TransactionIDs = ids

	return &u, nil
}

// liveCompany holds when $n is NULL or names a company that is not
// soft-deleted. The row is share-locked against a concurrent delete.
func liveCompany(n string) string {
	return `(` + n + `::uuid IS NULL OR EXISTS (
		SELECT 1 FROM companies c WHERE c.id = ` + n + `::uuid AND c.deleted_at IS NULL FOR SHARE
	))`
}

// CreateUser inserts the user. A company that is unknown or soft-deleted
// yields user.ErrCompanyNotFound.
func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, company_id, created_at, updated_at)
		SELECT $1::text, $2::text, $3::text, $4::text, $5::uuid, NOW(), NOW()
		WHERE ` + liveCompany("$5") + `
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		u.FirstName,
		u.LastName,
		u.Email,
		u.PasswordHash,
		u.CompanyID,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return user.ErrCompanyNotFound
		case database.IsUniqueViolation(err):
			return user.ErrEmailTaken
		case database.IsForeignKeyViolation(err):
			return user.ErrCompanyNotFound
		}

		return fmt.Errorf("creating user: %w", err)
	}

	u.TransactionIDs = []uuid.UUID{}

	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + selectUserColumns + `
		FROM users u
		WHERE u.id = $1 AND u.deleted_at IS NULL`

	return s.scanUser(ctx, s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + selectUserColumns + `
		FROM users u
		WHERE u.email = $1 AND u.deleted_at IS NULL`

	return s.scanUser(ctx, s.db.QueryRowContext(ctx, query, email))
}

// UpdateCompany points the user at companyID, which must be live, or at no
// company when it is nil.
func (s *Store) UpdateCompany(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) error {
	query := `
		UPDATE users
		SET company_id = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL AND ` + liveCompany("$1")

	res, err := s.db.ExecContext(ctx, query, companyID, userID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return user.ErrCompanyNotFound
		}

		return fmt.Errorf("updating company: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n > 0 {
		return nil
	}

	if companyID == nil {
		return user.ErrNotFound
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL)`, userID).Scan(&exists); err != nil {
		return fmt.Errorf("checking user: %w", err)
	}

	if !exists {
		return user.ErrNotFound
	}

	return user.ErrCompanyNotFound
}

// DeleteUser soft-deletes the user and drops their transaction list. The
// transactions themselves stay live.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM user_transactions WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("clearing transaction list: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx,
		`UPDATE users SET deleted_at = NOW(), company_id = NULL WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) AppendTransaction(ctx context.Context, userID, txID uuid.UUID) error {
	query := `
		INSERT INTO user_transactions (user_id, transaction_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, transaction_id) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, userID, txID); err != nil {
		return fmt.Errorf("appending transaction: %w", err)
	}

	return nil
}

func (s *Store) RemoveTransactions(ctx context.Context, userID uuid.UUID, txIDs []uuid.UUID) error {
	ids := make([]string, len(txIDs))
	for i, id := range txIDs {
		ids[i] = id.String()
	}

	query := `DELETE FROM user_transactions WHERE user_id = $1 AND transaction_id = ANY($2::uuid[])`

	if _, err := s.db.ExecContext(ctx, query, userID, ids); err != nil {
		return fmt.Errorf("removing transactions: %w", err)
	}

	return nil
}

func (s *Store) transactionIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT transaction_id FROM user_transactions WHERE user_id = $1 ORDER BY seq ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing transaction ids: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning transaction id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction ids: %w", err)
	}

	return ids, nil
}
