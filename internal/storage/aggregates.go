package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pbryant/ledgerguard/internal/common"
	"github.com/pbryant/ledgerguard/internal/model"
)

// GetAggregate retrieves the derived spending total for a user.
func (s *SQLiteStorage) GetAggregate(ctx context.Context, userID int64) (*model.Aggregate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getAggregate(ctx, s.db, userID)
}

// GetAggregate reads the aggregate row inside the transaction. The
// surrounding immediate transaction holds the write lock, so the
// existence check and the mutation chosen from it form one atomic
// read-modify-write.
func (t *sqliteTx) GetAggregate(ctx context.Context, userID int64) (*model.Aggregate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getAggregate(ctx, t.tx, userID)
}

func getAggregate(ctx context.Context, q queryable, userID int64) (*model.Aggregate, error) {
	var agg model.Aggregate
	var totalCents int64

	err := q.QueryRowContext(ctx, `
		SELECT user_id, total_cents, event_count, last_updated
		FROM spending_totals
		WHERE user_id = ?
	`, userID).Scan(
		&agg.UserID,
		&totalCents,
		&agg.EventCount,
		&agg.LastUpdated,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: aggregate for user %d", common.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate: %w", err)
	}

	agg.Total = model.FromCents(totalCents)
	return &agg, nil
}

// CreateAggregate inserts the first aggregate row for a user.
func (t *sqliteTx) CreateAggregate(ctx context.Context, agg *model.Aggregate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if agg == nil {
		return fmt.Errorf("%w: aggregate", ErrNilParameter)
	}

	totalCents, err := model.Cents(agg.Total)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConstraint, err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO spending_totals (user_id, total_cents, event_count, last_updated)
		VALUES (?, ?, ?, ?)
	`, agg.UserID, totalCents, agg.EventCount, agg.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to create aggregate: %w", mapSQLiteError(err))
	}

	return nil
}

// IncrementAggregate adds a delta to an existing aggregate row. The
// arithmetic happens in SQL on integer cents, so no application-level
// read-then-write can lose an update.
func (t *sqliteTx) IncrementAggregate(ctx context.Context, userID int64, delta decimal.Decimal, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	deltaCents, err := model.Cents(delta)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConstraint, err)
	}

	result, err := t.tx.ExecContext(ctx, `
		UPDATE spending_totals
		SET total_cents = total_cents + ?,
		    event_count = event_count + 1,
		    last_updated = ?
		WHERE user_id = ?
	`, deltaCents, at, userID)
	if err != nil {
		return fmt.Errorf("failed to increment aggregate: %w", mapSQLiteError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: aggregate for user %d", common.ErrNotFound, userID)
	}

	return nil
}

// ListLimitViolations joins events against their owners and reports
// every transaction whose amount exceeds the user's credit limit.
// Read-only; users with a null limit cannot violate it.
func (s *SQLiteStorage) ListLimitViolations(ctx context.Context) ([]model.Violation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, t.id, t.amount_cents, u.credit_limit_cents
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		WHERE u.credit_limit_cents IS NOT NULL
		  AND t.amount_cents > u.credit_limit_cents
		ORDER BY u.id, t.occurred_at, t.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query limit violations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var violations []model.Violation
	for rows.Next() {
		var v model.Violation
		var amountCents, limitCents int64

		if err := rows.Scan(&v.UserID, &v.TransactionID, &amountCents, &limitCents); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}

		v.Amount = model.FromCents(amountCents)
		v.CreditLimit = model.FromCents(limitCents)
		violations = append(violations, v)
	}

	return violations, rows.Err()
}
