package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/pbryant/ledgerguard/internal/common"
	"github.com/pbryant/ledgerguard/internal/model"
)

// CreateUser inserts a new user and fills in its assigned ID.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}

	limitCents, err := model.NullCents(user.CreditLimit)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConstraint, err)
	}

	// Absent emails store as NULL; the column is UNIQUE and empty
	// strings would collide.
	email := sql.NullString{String: user.Email, Valid: user.Email != ""}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (first_name, last_name, email, credit_limit_cents, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.FirstName, user.LastName, email, limitCents, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapSQLiteError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user ID: %w", err)
	}
	user.ID = id

	slog.Debug("created user", "id", id, "email", user.Email)
	return nil
}

// GetUser retrieves a single user by ID.
func (s *SQLiteStorage) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getUser(ctx, s.db, id)
}

func getUser(ctx context.Context, q queryable, id int64) (*model.User, error) {
	var user model.User
	var email sql.NullString
	var limitCents sql.NullInt64

	err := q.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, credit_limit_cents, created_at
		FROM users
		WHERE id = ?
	`, id).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&email,
		&limitCents,
		&user.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if email.Valid {
		user.Email = email.String
	}
	user.CreditLimit = model.NullFromCents(limitCents)

	return &user, nil
}

// ListUsers returns all users ordered by ID.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, email, credit_limit_cents, created_at
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		var user model.User
		var email sql.NullString
		var limitCents sql.NullInt64

		if err := rows.Scan(
			&user.ID,
			&user.FirstName,
			&user.LastName,
			&email,
			&limitCents,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		if email.Valid {
			user.Email = email.String
		}
		user.CreditLimit = model.NullFromCents(limitCents)
		users = append(users, user)
	}

	return users, rows.Err()
}

// GetUserForUpdate reads a user inside the transaction. The immediate
// write transaction already holds the database write lock, so the
// pre-image read and the subsequent update cannot interleave with
// another writer.
func (t *sqliteTx) GetUserForUpdate(ctx context.Context, id int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getUser(ctx, t.tx, id)
}

// SetCreditLimit writes the protected attribute within the transaction.
func (t *sqliteTx) SetCreditLimit(ctx context.Context, userID int64, limit decimal.NullDecimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if limit.Valid && limit.Decimal.IsNegative() {
		return fmt.Errorf("%w: negative credit limit %s", common.ErrConstraint, limit.Decimal)
	}

	limitCents, err := model.NullCents(limit)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConstraint, err)
	}

	result, err := t.tx.ExecContext(ctx, `
		UPDATE users SET credit_limit_cents = ? WHERE id = ?
	`, limitCents, userID)
	if err != nil {
		return fmt.Errorf("failed to update credit limit: %w", mapSQLiteError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %d", common.ErrNotFound, userID)
	}

	return nil
}

// UsersWithNullLimit returns the IDs of users whose credit limit has
// never been set, ordered for deterministic repair.
func (t *sqliteTx) UsersWithNullLimit(ctx context.Context) ([]int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT id FROM users WHERE credit_limit_cents IS NULL ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users with null limit: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ListUserNames returns the name fields of every user.
func (t *sqliteTx) ListUserNames(ctx context.Context) ([]model.UserName, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, first_name, last_name FROM users ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []model.UserName
	for rows.Next() {
		var n model.UserName
		if err := rows.Scan(&n.ID, &n.FirstName, &n.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan user name: %w", err)
		}
		names = append(names, n)
	}

	return names, rows.Err()
}

// UpdateUserName rewrites a user's name fields within the transaction.
func (t *sqliteTx) UpdateUserName(ctx context.Context, userID int64, first, last string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(first, "first"); err != nil {
		return err
	}
	if err := validateString(last, "last"); err != nil {
		return err
	}

	_, err := t.tx.ExecContext(ctx, `
		UPDATE users SET first_name = ?, last_name = ? WHERE id = ?
	`, first, last, userID)
	if err != nil {
		return fmt.Errorf("failed to update user name: %w", mapSQLiteError(err))
	}

	return nil
}
