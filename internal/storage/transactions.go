package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pbryant/ledgerguard/internal/common"
	"github.com/pbryant/ledgerguard/internal/model"
)

// InsertTransaction appends one ledger event within the transaction.
// Foreign key and CHECK failures surface as constraint violations and
// roll the whole unit of work back with nothing applied.
func (t *sqliteTx) InsertTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	amountCents, err := model.Cents(txn.Amount)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConstraint, err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, category_id, amount_cents, description, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.UserID, txn.CategoryID, amountCents, txn.Description, txn.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, mapSQLiteError(err))
	}

	return nil
}

// GetTransaction retrieves a single ledger event by ID.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var txn model.Transaction
	var description sql.NullString
	var amountCents int64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, amount_cents, description, occurred_at
		FROM transactions
		WHERE id = ?
	`, id).Scan(
		&txn.ID,
		&txn.UserID,
		&txn.CategoryID,
		&amountCents,
		&description,
		&txn.OccurredAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	txn.Amount = model.FromCents(amountCents)
	if description.Valid {
		txn.Description = description.String
	}

	return &txn, nil
}

// ListTransactionsByUser returns all events for a user in occurrence order.
func (s *SQLiteStorage) ListTransactionsByUser(ctx context.Context, userID int64) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, amount_cents, description, occurred_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY occurred_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var description sql.NullString
		var amountCents int64

		if err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.CategoryID,
			&amountCents,
			&description,
			&txn.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.Amount = model.FromCents(amountCents)
		if description.Valid {
			txn.Description = description.String
		}
		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}
