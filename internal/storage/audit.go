package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pbryant/ledgerguard/internal/common"
	"github.com/pbryant/ledgerguard/internal/model"
)

// InsertAuditRecord appends one immutable audit row within the
// transaction. There is no update or delete counterpart on purpose.
func (t *sqliteTx) InsertAuditRecord(ctx context.Context, record *model.AuditRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if record.ChangedAt.IsZero() {
		return fmt.Errorf("%w: missing change time", ErrNilParameter)
	}

	oldCents, err := model.NullCents(record.OldLimit)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConstraint, err)
	}
	newCents, err := model.NullCents(record.NewLimit)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConstraint, err)
	}

	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO credit_limit_audit (user_id, old_limit_cents, new_limit_cents, changed_at)
		VALUES (?, ?, ?, ?)
	`, record.UserID, oldCents, newCents, record.ChangedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", mapSQLiteError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get audit record ID: %w", err)
	}
	record.ID = id

	return nil
}

// GetAuditRecords returns a user's audit trail within a time range,
// oldest first.
func (s *SQLiteStorage) GetAuditRecords(ctx context.Context, userID int64, start, end time.Time) ([]model.AuditRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %v is before start %v", ErrInvalidDateRange, end, start)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, old_limit_cents, new_limit_cents, changed_at
		FROM credit_limit_audit
		WHERE user_id = ? AND changed_at >= ? AND changed_at <= ?
		ORDER BY changed_at, id
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanAuditRecords(rows)
}

func scanAuditRecords(rows *sql.Rows) ([]model.AuditRecord, error) {
	var records []model.AuditRecord
	for rows.Next() {
		var record model.AuditRecord
		var oldCents, newCents sql.NullInt64

		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&oldCents,
			&newCents,
			&record.ChangedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}

		record.OldLimit = model.NullFromCents(oldCents)
		record.NewLimit = model.NullFromCents(newCents)
		records = append(records, record)
	}

	return records, rows.Err()
}
