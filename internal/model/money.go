// Package model defines the core domain types for the ledger.
package model

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrSubCentPrecision indicates a monetary value with more than two
// decimal places.
var ErrSubCentPrecision = errors.New("amount has sub-cent precision")

// Cents converts a two-decimal monetary value to integer cents.
// Amounts are persisted as cents so that SQL arithmetic on them stays
// exact.
func Cents(d decimal.Decimal) (int64, error) {
	scaled := d.Shift(2)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrSubCentPrecision, d)
	}
	return scaled.IntPart(), nil
}

// FromCents converts integer cents back to a two-decimal value.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// NullCents converts an optional monetary value to nullable cents.
func NullCents(d decimal.NullDecimal) (sql.NullInt64, error) {
	if !d.Valid {
		return sql.NullInt64{}, nil
	}
	cents, err := Cents(d.Decimal)
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: cents, Valid: true}, nil
}

// NullFromCents converts nullable cents to an optional monetary value.
func NullFromCents(cents sql.NullInt64) decimal.NullDecimal {
	if !cents.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: FromCents(cents.Int64), Valid: true}
}
