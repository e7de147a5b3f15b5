package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the schema version the binaries are built against.
const ExpectedSchemaVersion = 3

type Migration struct {
	Version     int
	Description string
	Statements  []string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Statements: []string{
			`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

			`CREATE TABLE IF NOT EXISTS companies (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				name TEXT NOT NULL,
				industry TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMPTZ
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_name ON companies (LOWER(name)) WHERE deleted_at IS NULL`,

			`CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				email TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				company_id UUID REFERENCES companies (id),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ,
				deleted_at TIMESTAMPTZ
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email) WHERE deleted_at IS NULL`,

			`CREATE TABLE IF NOT EXISTS company_members (
				company_id UUID NOT NULL REFERENCES companies (id),
				user_id UUID NOT NULL REFERENCES users (id),
				seq BIGSERIAL,
				joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (company_id, user_id)
			)`,

			`CREATE TABLE IF NOT EXISTS transactions (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				user_id UUID NOT NULL REFERENCES users (id),
				amount DOUBLE PRECISION NOT NULL CHECK (amount >= 0),
				category TEXT NOT NULL,
				items JSONB NOT NULL DEFAULT '[]',
				date TIMESTAMPTZ NOT NULL,
				merchant TEXT NOT NULL,
				receipt_uploaded BOOLEAN NOT NULL DEFAULT FALSE,
				receipt_url TEXT,
				co2_emissions DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (co2_emissions >= 0),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ,
				deleted_at TIMESTAMPTZ
			)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions (user_id, date) WHERE deleted_at IS NULL`,

			`CREATE TABLE IF NOT EXISTS user_transactions (
				user_id UUID NOT NULL REFERENCES users (id),
				transaction_id UUID NOT NULL REFERENCES transactions (id),
				seq BIGSERIAL,
				PRIMARY KEY (user_id, transaction_id)
			)`,
		},
	},
	{
		Version:     2,
		Description: "Add merchant category mappings",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS category_mappings (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				merchant_pattern TEXT NOT NULL,
				category TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
		},
	},
	{
		Version:     3,
		Description: "Index company members by join order",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_company_members_seq ON company_members (company_id, seq)`,
		},
	},
}

// Migrate applies every migration newer than the recorded schema version,
// each in its own database transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	current, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		if err := apply(ctx, db, m); err != nil {
			return err
		}

		slog.Info("applied migration", "version", m.Version, "description", m.Description)
	}

	final, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}

	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}

	return nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	return v, nil
}

func apply(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.Version); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", m.Version, err)
	}

	return nil
}
