package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/MrJamesThe3rd/bonsai/internal/company"
	"github.com/MrJamesThe3rd/bonsai/internal/database"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateCompany(ctx context.Context, c *company.Company) error {
	query := `
		INSERT INTO companies (name, industry, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, c.Name, c.Industry).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return company.ErrNameTaken
		}

		return fmt.Errorf("creating company: %w", err)
	}

	return nil
}

func (s *Store) GetCompany(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	query := `
		SELECT id, name, industry, created_at
		FROM companies
		WHERE id = $1 AND deleted_at IS NULL
	`

	var c company.Company
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Industry, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, company.ErrNotFound
		}

		return nil, fmt.Errorf("getting company: %w", err)
	}

	members, err := s.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	c.MemberIDs = make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		c.MemberIDs = append(c.MemberIDs, m.UserID)
	}

	return &c, nil
}

func (s *Store) ListCompanies(ctx context.Context) ([]*company.Company, error) {
	query := `
		SELECT c.id, c.name, c.industry, c.created_at,
		       COALESCE(array_agg(m.user_id::text ORDER BY m.seq) FILTER (WHERE m.user_id IS NOT NULL), '{}')
		FROM companies c
		LEFT JOIN company_members m ON m.company_id = c.id
		WHERE c.deleted_at IS NULL
		GROUP BY c.id
		ORDER BY c.name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}
	defer rows.Close()

	var companies []*company.Company

	// pgtype.Map is not safe for concurrent use, so each call gets its own.
	types := pgtype.NewMap()

	for rows.Next() {
		var c company.Company

		var memberIDs []string

		if err := rows.Scan(&c.ID, &c.Name, &c.Industry, &c.CreatedAt, types.SQLScanner(&memberIDs)); err != nil {
			return nil, fmt.Errorf("scanning company: %w", err)
		}

		c.MemberIDs = make([]uuid.UUID, 0, len(memberIDs))

		for _, raw := range memberIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("parsing member id: %w", err)
			}

			c.MemberIDs = append(c.MemberIDs, id)
		}

		companies = append(companies, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating company rows: %w", err)
	}

	return companies, nil
}

// DeleteCompany soft-deletes the company, clears its roster and detaches the
// users in one database transaction.
func (s *Store) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx,
		`UPDATE companies SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("deleting company: %w", err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	} else if n == 0 {
		return company.ErrNotFound
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM company_members WHERE company_id = $1`, id); err != nil {
		return fmt.Errorf("clearing members: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, `UPDATE users SET company_id = NULL WHERE company_id = $1`, id); err != nil {
		return fmt.Errorf("detaching users: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// AddMember puts userID on the roster of a live company. The company row is
// share-locked so a concurrent DeleteCompany cannot clear the roster under it.
func (s *Store) AddMember(ctx context.Context, companyID, userID uuid.UUID) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := lockLiveCompany(ctx, dbTx, companyID); err != nil {
		return err
	}

	if err := insertMember(ctx, dbTx, companyID, userID); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error {
	query := `DELETE FROM company_members WHERE company_id = $1 AND user_id = $2`

	if _, err := s.db.ExecContext(ctx, query, companyID, userID); err != nil {
		return fmt.Errorf("deleting member: %w", err)
	}

	return nil
}

// SetMembership leaves userID on companyID's roster and no other, or on none
// when companyID is nil.
func (s *Store) SetMembership(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if companyID != nil {
		if err := lockLiveCompany(ctx, dbTx, *companyID); err != nil {
			return err
		}
	}

	query := `DELETE FROM company_members WHERE user_id = $1 AND ($2::uuid IS NULL OR company_id <> $2::uuid)`

	if _, err := dbTx.ExecContext(ctx, query, userID, companyID); err != nil {
		return fmt.Errorf("leaving other companies: %w", err)
	}

	if companyID != nil {
		if err := insertMember(ctx, dbTx, *companyID, userID); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) ListMembers(ctx context.Context, companyID uuid.UUID) ([]company.Member, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, m.joined_at
		FROM company_members m
		JOIN users u ON u.id = m.user_id AND u.deleted_at IS NULL
		WHERE m.company_id = $1
		ORDER BY m.seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	members := []company.Member{}

	for rows.Next() {
		var m company.Member
		if err := rows.Scan(&m.UserID, &m.FirstName, &m.LastName, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}

		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating member rows: %w", err)
	}

	return members, nil
}

func lockLiveCompany(ctx context.Context, dbTx *sql.Tx, id uuid.UUID) error {
	var one int

	err := dbTx.QueryRowContext(ctx,
		`SELECT 1 FROM companies WHERE id = $1 AND deleted_at IS NULL FOR SHARE`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return company.ErrNotFound
		}

		return fmt.Errorf("locking company: %w", err)
	}

	return nil
}

func insertMember(ctx context.Context, dbTx *sql.Tx, companyID, userID uuid.UUID) error {
	query := `
		INSERT INTO company_members (company_id, user_id, joined_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (company_id, user_id) DO NOTHING
	`

	if _, err := dbTx.ExecContext(ctx, query, companyID, userID); err != nil {
		return fmt.Errorf("inserting member: %w", err)
	}

	return nil
}
