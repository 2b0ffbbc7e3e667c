// Package storage provides the data persistence layer for ledgerguard.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pbryant/ledgerguard/internal/common"
	"github.com/pbryant/ledgerguard/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidUser        = errors.New("invalid user")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateUser validates a user record.
func validateUser(user *model.User) error {
	if user == nil {
		return fmt.Errorf("%w: user", ErrNilParameter)
	}
	if strings.TrimSpace(user.FirstName) == "" {
		return fmt.Errorf("%w: missing first name", ErrInvalidUser)
	}
	if strings.TrimSpace(user.LastName) == "" {
		return fmt.Errorf("%w: missing last name", ErrInvalidUser)
	}
	if user.CreditLimit.Valid && user.CreditLimit.Decimal.IsNegative() {
		return fmt.Errorf("%w: negative credit limit", common.ErrConstraint)
	}
	return nil
}

// validateTransaction validates a ledger event before it is written.
// Amounts must be non-negative with at most two decimal places.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.UserID == 0 {
		return fmt.Errorf("%w: missing user ID", ErrInvalidTransaction)
	}
	if txn.CategoryID == 0 {
		return fmt.Errorf("%w: missing category ID", ErrInvalidTransaction)
	}
	if txn.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing occurrence time", ErrInvalidTransaction)
	}
	if txn.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount %s", common.ErrConstraint, txn.Amount)
	}
	if _, err := model.Cents(txn.Amount); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConstraint, err)
	}
	return nil
}
