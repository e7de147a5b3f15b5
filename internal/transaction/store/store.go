package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTransaction reads a transaction row from the scanner.
// Expected column order matches selectTransactionColumns.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var category string

	var items []byte

	var receiptURL sql.NullString

	if err := s.Scan(
		&tx.ID, &tx.UserID, &tx.Amount, &category, &items, &tx.Date, &tx.Merchant,
		&tx.ReceiptUploaded, &receiptURL, &tx.CO2Emissions,
		&tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.Category = transaction.Category(category)
	tx.ReceiptURL = receiptURL.String

	if len(items) > 0 {
		if err := json.Unmarshal(items, &tx.Items); err != nil {
			return nil, fmt.Errorf("decoding items: %w", err)
		}
	}

	return &tx, nil
}

const selectTransactionColumns = `
	t.id, t.user_id, t.amount, t.category, t.items, t.date, t.merchant,
	t.receipt_uploaded, t.receipt_url, t.co2_emissions, t.created_at, t.updated_at
`

func encodeItems(items []transaction.Item) ([]byte, error) {
	if items == nil {
		items = []transaction.Item{}
	}

	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding items: %w", err)
	}

	return b, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	items, err := encodeItems(tx.Items)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (user_id, amount, category, items, date, merchant, receipt_uploaded, co2_emissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = s.db.QueryRowContext(ctx, query,
		tx.UserID,
		tx.Amount,
		tx.Category,
		items,
		tx.Date,
		tx.Merchant,
		tx.ReceiptUploaded,
		tx.CO2Emissions,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.id = $1 AND t.deleted_at IS NULL`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.deleted_at IS NULL`

	var args []any

	argIdx := 1

	if filter.UserIDs != nil {
		query += fmt.Sprintf(" AND t.user_id = ANY($%d::uuid[])", argIdx)

		args = append(args, idStrings(filter.UserIDs))
		argIdx++
	}

	if filter.Category != nil {
		query += fmt.Sprintf(" AND t.category = $%d", argIdx)

		args = append(args, *filter.Category)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND t.date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND t.date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY t.date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	items, err := encodeItems(tx.Items)
	if err != nil {
		return err
	}

	query := `
		UPDATE transactions
		SET amount = $1, category = $2, items = $3, date = $4, merchant = $5,
		    receipt_uploaded = $6, co2_emissions = $7, updated_at = NOW()
		WHERE id = $8 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query,
		tx.Amount,
		tx.Category,
		items,
		tx.Date,
		tx.Merchant,
		tx.ReceiptUploaded,
		tx.CO2Emissions,
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}

	return requireRow(res)
}

func (s *Store) UpdateReceiptURL(ctx context.Context, id uuid.UUID, url string) error {
	query := `
		UPDATE transactions
		SET receipt_url = $1, receipt_uploaded = TRUE, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, url, id)
	if err != nil {
		return fmt.Errorf("updating receipt url: %w", err)
	}

	return requireRow(res)
}

// DeleteTransactions soft-deletes the user's rows among ids. Rows that are
// missing, already deleted or owned by someone else are skipped.
func (s *Store) DeleteTransactions(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	query := `
		UPDATE transactions
		SET deleted_at = NOW()
		WHERE id = ANY($1::uuid[]) AND user_id = $2 AND deleted_at IS NULL
		RETURNING id
	`

	rows, err := s.db.QueryContext(ctx, query, idStrings(ids), userID)
	if err != nil {
		return nil, fmt.Errorf("deleting transactions: %w", err)
	}
	defer rows.Close()

	var deleted []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning deleted id: %w", err)
		}

		deleted = append(deleted, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deleted rows: %w", err)
	}

	return deleted, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}

	return out
}
