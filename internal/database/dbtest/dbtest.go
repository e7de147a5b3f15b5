// Package dbtest opens a migrated PostgreSQL database for store tests.
package dbtest

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bonsai/internal/database"
)

// EnvURL names the variable holding the test database connection string.
const EnvURL = "BONSAI_TEST_DATABASE_URL"

// Open connects to the database named by EnvURL and migrates it. The test is
// skipped when the variable is unset. Every table is emptied on cleanup.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv(EnvURL)
	if url == "" {
		t.Skipf("%s not set", EnvURL)
	}

	ctx := context.Background()

	db, err := database.New(ctx, url, database.PoolConfig{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))

	t.Cleanup(func() {
		_, err := db.ExecContext(ctx, `TRUNCATE
			user_transactions, transactions, company_members, users, companies, category_mappings
			RESTART IDENTITY CASCADE`)
		require.NoError(t, err)
		db.Close()
	})

	return db
}
